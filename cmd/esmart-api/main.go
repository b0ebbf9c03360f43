package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/esmart-iot/esmart-api/internal/pkg/application/authentication"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/devices"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/events"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/facedetection"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/sensordata"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/users"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/webevents"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/config"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories/database"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/router"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/tracing"
	"github.com/esmart-iot/esmart-api/internal/pkg/presentation/api"
	"github.com/esmart-iot/esmart-api/internal/pkg/presentation/api/auth"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const serviceName string = "esmart-api"

var policiesFile, notificationsFile, cascadeFile, configFile string

func main() {
	serviceVersion := version()

	ctx, logger := logging.NewLogger(context.Background(), serviceName, serviceVersion)
	logger.Info().Msg("starting up ...")

	flag.StringVar(&policiesFile, "policies", "", "an authorization policy file")
	flag.StringVar(&notificationsFile, "notifications", "/opt/esmart/config/notifications.yaml", "a cloud events subscription file")
	flag.StringVar(&cascadeFile, "cascade", "", "a pigo face detection cascade, defaults to the bundled facefinder")
	flag.StringVar(&configFile, "config", os.Getenv("CONFIG_FILE"), "an env style configuration file")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	if cfg.EnableTracing {
		cleanup, err := tracing.Init(ctx, logger, serviceName, serviceVersion)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init tracing")
		}
		defer cleanup()
	}

	detector, err := facedetection.LoadPigoDetector(cascadeFile, facedetection.DefaultPigoConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load face detection cascade")
	}

	store, err := database.New(database.NewConnector(ctx, cfg.DatabaseURL))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer store.Close()

	sweeper := authentication.NewSweeper(store.Tokens(), cfg.RefreshTokenExpiry, cfg.TokenSweepInterval, logger)
	sweeper.Start()
	defer sweeper.Stop()

	live := webevents.New()
	defer live.Shutdown()

	r, err := setupRouter(ctx, logger, cfg, store, detector, live)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up router")
	}

	addr := net.JoinHostPort(cfg.ListenAddress, cfg.ServicePort)
	logger.Info().Str("addr", addr).Msg("starting to listen for connections")

	err = http.ListenAndServe(addr, r)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("failed to start request router")
	}
}

func setupRouter(ctx context.Context, logger zerolog.Logger, cfg config.Config, store *database.Datastore, detector facedetection.Detector, live webevents.WebEvents) (*chi.Mux, error) {
	cloudEvents, err := newEventSender(logger)
	if err != nil {
		return nil, err
	}

	sender := events.Combine(cloudEvents, live)

	issuer := authentication.NewTokenIssuer(authentication.Config{
		Algorithm:     cfg.JWTAlgorithm,
		AccessSecret:  cfg.JWTSecretKey,
		RefreshSecret: cfg.JWTRefreshSecretKey,
		AccessExpiry:  cfg.AccessTokenExpiry,
		RefreshExpiry: cfg.RefreshTokenExpiry,
	})

	google := authentication.NewGoogleLogin(authentication.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		AuthURL:      cfg.GoogleAuthURL,
		TokenURL:     cfg.GoogleTokenURL,
		UserInfoURL:  cfg.GoogleUserInfoURL,
		FrontendURL:  cfg.FrontendURL,
	}, issuer, store.Users())

	svc := api.Services{
		Sessions:   authentication.NewSessions(issuer, store.Users(), store.Tokens()),
		Google:     google,
		Users:      users.New(store.Users()),
		Devices:    devices.New(store.Devices(), store.SensorData(), sender),
		SensorData: sensordata.New(store.Devices(), store.SensorData(), sender),
		Faces:      facedetection.NewPipeline(detector, cfg.FaceQueueSize),
		Live:       live,
	}

	policies, err := openPolicies(logger)
	if err != nil {
		return nil, err
	}
	defer policies.Close()

	r := router.New(serviceName, logger)

	return api.RegisterHandlers(ctx, r, policies, svc)
}

// openPolicies falls back to the built in policies when no policy file is given
func openPolicies(logger zerolog.Logger) (io.ReadCloser, error) {
	if policiesFile == "" {
		return io.NopCloser(auth.DefaultPolicies()), nil
	}

	logger.Info().Str("file", policiesFile).Msg("loading authorization policies")

	return os.Open(policiesFile)
}

// newEventSender creates a sender without subscribers when the notifications file is missing
func newEventSender(logger zerolog.Logger) (events.EventSender, error) {
	f, err := os.Open(notificationsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info().Str("file", notificationsFile).Msg("no notifications file found, events will not be sent")
			return events.New(nil)
		}
		return nil, err
	}
	defer f.Close()

	cfg, err := events.LoadConfiguration(f)
	if err != nil {
		return nil, err
	}

	return events.New(cfg)
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	buildSettings := buildInfo.Settings
	infoMap := map[string]string{}
	for _, s := range buildSettings {
		infoMap[s.Key] = s.Value
	}

	sha := infoMap["vcs.revision"]
	if infoMap["vcs.modified"] == "true" {
		sha += "+"
	}

	return sha
}
