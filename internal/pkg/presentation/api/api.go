package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/esmart-iot/esmart-api/internal/pkg/application"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/authentication"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/devices"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/facedetection"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/sensordata"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/users"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/webevents"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	"github.com/esmart-iot/esmart-api/internal/pkg/presentation/api/auth"
	"github.com/esmart-iot/esmart-api/internal/pkg/presentation/api/respond"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("esmart-api/api")

type Services struct {
	Sessions   authentication.Sessions
	Google     authentication.GoogleLogin
	Users      users.UserService
	Devices    devices.DeviceService
	SensorData sensordata.SensorDataService
	Faces      *facedetection.Pipeline
	Live       webevents.WebEvents
}

func RegisterHandlers(ctx context.Context, router *chi.Mux, policies io.Reader, svc Services) (*chi.Mux, error) {

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"message": "esmart Api"})
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	authorizer, err := auth.NewAuthorizer(ctx, policies)
	if err != nil {
		return nil, fmt.Errorf("failed to create api authorizer: %w", err)
	}

	authenticator := auth.NewAuthenticator(svc.Sessions)

	router.Route("/user", func(r chi.Router) {
		r.Post("/register", registerUserHandler(svc.Users))
		r.Post("/authenticate", loginHandler(svc.Sessions))
		r.Post("/refresh", refreshHandler(svc.Sessions))
		r.Get("/login/google", googleLoginHandler(svc.Google))
		r.Get("/auth/callback", googleCallbackHandler(svc.Google))

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Post("/logout", logoutHandler(svc.Sessions))
			r.Get("/users", listUsersHandler(svc.Users, authorizer))
			r.Get("/email", getUserByEmailHandler(svc.Users, authorizer))
			r.Post("/change-password", changePasswordHandler(svc.Users, authorizer))
			r.Get("/{id}", getUserHandler(svc.Users, authorizer))
			r.Put("/{id}", updateUserHandler(svc.Users, authorizer))
			r.Delete("/{id}", deleteUserHandler(svc.Users, authorizer))
		})
	})

	router.Route("/device", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/devices", createDeviceHandler(svc.Devices))
		r.Post("/devices/", createDeviceHandler(svc.Devices))
		r.Get("/get-devices", listDevicesHandler(svc.Devices))
		r.Get("/{id}/get-device-by-id", getDeviceHandler(svc.Devices))
		r.Put("/{id}/update-device", updateDeviceHandler(svc.Devices))
		r.Delete("/{id}/delete-device", deleteDeviceHandler(svc.Devices))
	})

	router.Route("/sensor", func(r chi.Router) {
		r.Post("/", createSensorDataHandler(svc.SensorData))
		r.Get("/by-device/{id}", listSensorDataByDeviceHandler(svc.SensorData))
		if svc.Live != nil {
			r.Get("/events/{id}", svc.Live.Handler().ServeHTTP)
		}
		r.Get("/{id}", getSensorDataHandler(svc.SensorData))

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Put("/{id}", updateSensorDataHandler(svc.SensorData))
			r.Delete("/{id}", deleteSensorDataHandler(svc.SensorData))
		})
	})

	router.Get("/websocket/face-detection", faceDetectionHandler(svc.Faces))

	return router, nil
}

// startSpan starts a handler span and returns a logger tagged with its trace id
func startSpan(r *http.Request, name string) (context.Context, trace.Span, zerolog.Logger) {
	ctx, span := tracer.Start(r.Context(), name)

	log := logging.GetLoggerFromContext(ctx)
	if sc := span.SpanContext(); sc.HasTraceID() {
		log = log.With().Str("traceID", sc.TraceID().String()).Logger()
		ctx = logging.NewContextWithLogger(ctx, log)
	}

	return ctx, span, log
}

func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		return application.NewError(application.ErrBadRequest, "Invalid request body: %s", err.Error())
	}
	return nil
}

// pagination parses the skip and limit query parameters
func pagination(r *http.Request) (uint64, uint64, error) {
	parse := func(name string) (uint64, error) {
		value := r.URL.Query().Get(name)
		if value == "" {
			return 0, nil
		}

		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return 0, application.NewError(application.ErrBadRequest, "%s must be a non negative integer", name)
		}

		return n, nil
	}

	skip, err := parse("skip")
	if err != nil {
		return 0, 0, err
	}

	limit, err := parse("limit")
	if err != nil {
		return 0, 0, err
	}

	return skip, limit, nil
}

// currentUser returns the authenticated user placed in the context by the authenticator
func currentUser(ctx context.Context) (string, error) {
	user, ok := auth.GetUserFromContext(ctx)
	if !ok {
		return "", application.NewError(application.ErrUnauthorized, "Not authenticated")
	}
	return user.ID, nil
}

func authorize(ctx context.Context, authorizer auth.Authorizer, action auth.Action, resource auth.Resource) error {
	user, ok := auth.GetUserFromContext(ctx)
	if !ok {
		return application.NewError(application.ErrUnauthorized, "Not authenticated")
	}

	allowed, err := authorizer.Allowed(ctx, user, action, resource)
	if err != nil {
		return err
	}

	if !allowed {
		return application.NewError(application.ErrForbidden, "Not enough permissions")
	}

	return nil
}
