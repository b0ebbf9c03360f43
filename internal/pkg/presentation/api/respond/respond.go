package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/esmart-iot/esmart-api/internal/pkg/application"
	"github.com/rs/zerolog"
)

type problem struct {
	Detail string `json:"detail"`
}

func JSON(w http.ResponseWriter, status int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func Detail(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	JSON(w, status, problem{Detail: detail})
}

// Error writes err using the status code of the application error it wraps.
// Anything unrecognised is logged and reported as an internal error.
func Error(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := StatusCode(err)

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		Detail(w, status, "Internal server error")
		return
	}

	log.Debug().Err(err).Int("status", status).Msg("request rejected")
	Detail(w, status, application.Detail(err))
}

func StatusCode(err error) int {
	switch {
	case errors.Is(err, application.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
