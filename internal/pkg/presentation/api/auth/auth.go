package auth

import (
	"context"
	"net/http"

	"github.com/esmart-iot/esmart-api/internal/pkg/application"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/authentication"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories/database"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/tracing"
	"github.com/esmart-iot/esmart-api/internal/pkg/presentation/api/respond"
	"github.com/go-chi/jwtauth/v5"
	"go.opentelemetry.io/otel"
)

type userContextKey struct{ name string }
type tokenContextKey struct{ name string }

var userCtxKey = &userContextKey{"user"}
var tokenCtxKey = &tokenContextKey{"token"}

var tracer = otel.Tracer("esmart-api/auth")

// NewAuthenticator returns a middleware that requires a valid bearer token
// belonging to an active user. The user is stored in the request context.
func NewAuthenticator(sessions authentication.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var err error

			ctx, span := tracer.Start(r.Context(), "check-auth")
			defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

			logger := logging.GetLoggerFromContext(ctx)

			token := jwtauth.TokenFromHeader(r)
			if token == "" {
				err = application.NewError(application.ErrUnauthorized, "Not authenticated")
				respond.Error(w, logger, err)
				return
			}

			user, err := sessions.Authenticate(ctx, token)
			if err != nil {
				respond.Error(w, logger, err)
				return
			}

			ctx = WithToken(WithUser(r.Context(), user), token)
			ctx = logging.NewContextWithLogger(ctx, logger.With().Str("user_id", user.ID).Logger())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithUser(ctx context.Context, user database.User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

func GetUserFromContext(ctx context.Context) (database.User, bool) {
	user, ok := ctx.Value(userCtxKey).(database.User)
	return user, ok
}

func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey, token)
}

func GetTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenCtxKey).(string)
	return token
}
