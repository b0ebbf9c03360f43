package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ConnectorFunc func() (*gorm.DB, zerolog.Logger, error)

// NewConnector picks a connector from the scheme of a database url. An empty
// url gives an in memory sqlite database.
func NewConnector(ctx context.Context, databaseURL string) ConnectorFunc {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgreSQLConnector(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return NewSQLiteConnector(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	default:
		return NewSQLiteConnector(ctx, "")
	}
}

func NewSQLiteConnector(ctx context.Context, path string) ConnectorFunc {
	log := logging.GetLoggerFromContext(ctx)

	dsn := "file::memory:"
	if path != "" {
		dsn = path
	}

	return func() (*gorm.DB, zerolog.Logger, error) {
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger:          logger.Default.LogMode(logger.Silent),
			CreateBatchSize: 1000,
			NowFunc:         utcNow,
		})

		if err != nil {
			return nil, log, err
		}

		sqldb, err := db.DB()
		if err != nil {
			return nil, log, err
		}

		// the pragma is per connection, so pin the pool before enabling it
		sqldb.SetMaxOpenConns(1)

		err = db.Exec("PRAGMA foreign_keys = ON").Error
		if err != nil {
			return nil, log, fmt.Errorf("failed to enable foreign keys: %w", err)
		}

		return db, log, nil
	}
}

func NewPostgreSQLConnector(ctx context.Context, databaseURL string) ConnectorFunc {
	log := logging.GetLoggerFromContext(ctx)

	return func() (*gorm.DB, zerolog.Logger, error) {
		sublogger := log.With().Str("driver", "postgres").Logger()
		sublogger.Info().Msg("connecting to database host")

		db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
			Logger: logger.New(
				&sublogger,
				logger.Config{
					SlowThreshold:             time.Second,
					LogLevel:                  logger.Info,
					IgnoreRecordNotFoundError: true,
					Colorful:                  false,
				},
			),
			NowFunc: utcNow,
		})
		if err != nil {
			sublogger.Error().Err(err).Msg("failed to connect to database")
			return nil, sublogger, fmt.Errorf("failed to connect to database: %w", err)
		}

		return db, sublogger, nil
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}
