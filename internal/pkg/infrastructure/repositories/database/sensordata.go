package database

import (
	"context"
	"time"

	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type SensorDataRepository interface {
	GetByID(ctx context.Context, id string) (SensorData, error)
	ListByDevice(ctx context.Context, deviceID string, offset, limit uint64) (repositories.Collection[SensorData], error)

	Create(ctx context.Context, data *SensorData) error
	Update(ctx context.Context, data *SensorData) error
	Delete(ctx context.Context, id string) error
}

type sensorDataRepository struct {
	db  *gorm.DB
	log zerolog.Logger
}

// GetByID returns the reading with its device loaded
func (r *sensorDataRepository) GetByID(ctx context.Context, id string) (SensorData, error) {
	var data SensorData
	err := r.db.WithContext(ctx).Preload("Device").Where("id = ?", id).First(&data).Error
	return data, translate(r.log, err)
}

func (r *sensorDataRepository) ListByDevice(ctx context.Context, deviceID string, offset, limit uint64) (repositories.Collection[SensorData], error) {
	byDevice := func(db *gorm.DB) *gorm.DB {
		return db.Where("device_id = ?", deviceID)
	}

	data, err := paginate[SensorData](ctx, r.db, byDevice, "recorded_at, id", offset, limit)
	return data, translate(r.log, err)
}

func (r *sensorDataRepository) Create(ctx context.Context, data *SensorData) error {
	return translate(r.log, r.db.WithContext(ctx).Omit("Device").Create(data).Error)
}

func (r *sensorDataRepository) Update(ctx context.Context, data *SensorData) error {
	data.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&SensorData{ID: data.ID}).
		Select("mq5_level", "motion_status", "temperature", "humidity", "updated_at").
		Updates(data)
	if result.Error != nil {
		return translate(r.log, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *sensorDataRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&SensorData{})
	if result.Error != nil {
		return translate(r.log, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
