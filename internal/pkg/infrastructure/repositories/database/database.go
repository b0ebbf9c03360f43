package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var ErrNotFound = fmt.Errorf("not found")
var ErrRepositoryError = fmt.Errorf("could not fetch data from repository")

// Datastore owns the database handle shared by all repositories
type Datastore struct {
	db  *gorm.DB
	log zerolog.Logger
}

func New(connect ConnectorFunc) (*Datastore, error) {
	impl, log, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&User{}, &Device{}, &SensorData{}, &Token{}, &Message{})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	return &Datastore{
		db:  impl,
		log: log,
	}, nil
}

func (s *Datastore) Users() UserRepository {
	return &userRepository{db: s.db, log: s.log}
}

func (s *Datastore) Devices() DeviceRepository {
	return &deviceRepository{db: s.db, log: s.log}
}

func (s *Datastore) SensorData() SensorDataRepository {
	return &sensorDataRepository{db: s.db, log: s.log}
}

func (s *Datastore) Tokens() TokenRepository {
	return &tokenRepository{db: s.db, log: s.log}
}

func (s *Datastore) Close() error {
	sqldb, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqldb.Close()
}

// translate maps gorm errors onto the errors exported by this package
func translate(log zerolog.Logger, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	log.Error().Err(err).Msg("gorm error")

	return fmt.Errorf("%w: %s", ErrRepositoryError, err.Error())
}

func all(db *gorm.DB) *gorm.DB {
	return db
}

func paginate[T any](ctx context.Context, db *gorm.DB, scope func(*gorm.DB) *gorm.DB, order string, offset, limit uint64) (repositories.Collection[T], error) {
	var total int64
	var data []T

	offset, limit = repositories.Page(offset, limit)

	err := db.WithContext(ctx).Model(new(T)).Scopes(scope).Count(&total).Error
	if err != nil {
		return repositories.Collection[T]{}, err
	}

	err = db.WithContext(ctx).Scopes(scope).Order(order).Offset(int(offset)).Limit(int(limit)).Find(&data).Error
	if err != nil {
		return repositories.Collection[T]{}, err
	}

	return repositories.Collection[T]{
		Data:       data,
		Count:      uint64(len(data)),
		Offset:     offset,
		Limit:      limit,
		TotalCount: uint64(total),
	}, nil
}
