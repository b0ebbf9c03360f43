package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddress string
	ServicePort   string
	DatabaseURL   string
	EnableTracing bool

	JWTAlgorithm        string
	JWTSecretKey        string
	JWTRefreshSecretKey string
	AccessTokenExpiry   time.Duration
	RefreshTokenExpiry  time.Duration
	TokenSweepInterval  time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	GoogleAuthURL      string
	GoogleTokenURL     string
	GoogleUserInfoURL  string
	FrontendURL        string

	FaceQueueSize int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LISTEN_ADDRESS", "0.0.0.0")
	v.SetDefault("SERVICE_PORT", "8000")
	v.SetDefault("EXTERNAL_DATABASE_URL", "")
	v.SetDefault("ENABLE_TRACING", true)

	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 1440)
	v.SetDefault("REFRESH_TOKEN_EXPIRE_MINUTES", 10080)
	v.SetDefault("TOKEN_SWEEP_INTERVAL", "1h")

	v.SetDefault("GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/auth")
	v.SetDefault("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token")
	v.SetDefault("GOOGLE_USER_INFO_URL", "https://www.googleapis.com/oauth2/v2/userinfo")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")

	v.SetDefault("FACE_QUEUE_SIZE", 10)
}

// Load reads configuration from the environment. Values in configFile, if
// given, are used where no environment variable is set.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := Config{
		ListenAddress: v.GetString("LISTEN_ADDRESS"),
		ServicePort:   v.GetString("SERVICE_PORT"),
		DatabaseURL:   v.GetString("EXTERNAL_DATABASE_URL"),
		EnableTracing: v.GetBool("ENABLE_TRACING"),

		JWTAlgorithm:        v.GetString("JWT_ALGORITHM"),
		JWTSecretKey:        v.GetString("JWT_SECRET_KEY"),
		JWTRefreshSecretKey: v.GetString("JWT_REFRESH_SECRET_KEY"),
		AccessTokenExpiry:   time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		RefreshTokenExpiry:  time.Duration(v.GetInt("REFRESH_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		TokenSweepInterval:  v.GetDuration("TOKEN_SWEEP_INTERVAL"),

		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  v.GetString("GOOGLE_REDIRECT_URI"),
		GoogleAuthURL:      v.GetString("GOOGLE_AUTH_URL"),
		GoogleTokenURL:     v.GetString("GOOGLE_TOKEN_URL"),
		GoogleUserInfoURL:  v.GetString("GOOGLE_USER_INFO_URL"),
		FrontendURL:        v.GetString("FRONTEND_URL"),

		FaceQueueSize: v.GetInt("FACE_QUEUE_SIZE"),
	}

	if cfg.JWTSecretKey == "" || cfg.JWTRefreshSecretKey == "" {
		return cfg, fmt.Errorf("both JWT_SECRET_KEY and JWT_REFRESH_SECRET_KEY must be set")
	}

	if cfg.TokenSweepInterval <= 0 {
		return cfg, fmt.Errorf("TOKEN_SWEEP_INTERVAL must be positive")
	}

	return cfg, nil
}
