package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestThatLoggerCanBeStoredAndRetrievedFromContext(t *testing.T) {
	is := is.New(t)

	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).With().Str("service", "test").Logger()

	ctx := NewContextWithLogger(context.Background(), logger)
	log := GetLoggerFromContext(ctx)
	log.Info().Msg("hello")

	is.True(strings.Contains(buf.String(), `"service":"test"`))
}

func TestThatRequestLoggerAddsRequestID(t *testing.T) {
	is := is.New(t)

	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)

	handler := middleware.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := GetLoggerFromContext(r.Context())
		log.Info().Msg("in handler")
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	is.Equal(rec.Code, http.StatusNoContent)
	is.True(strings.Contains(buf.String(), `"request_id"`))
}
