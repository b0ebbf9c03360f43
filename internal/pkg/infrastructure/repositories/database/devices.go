package database

import (
	"context"
	"time"

	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type DeviceRepository interface {
	GetByID(ctx context.Context, id string) (Device, error)
	GetByOwnerAndID(ctx context.Context, ownerID, id string) (Device, error)
	GetByOwnerAndName(ctx context.Context, ownerID, name string) (Device, error)
	ListByOwner(ctx context.Context, ownerID string, offset, limit uint64) (repositories.Collection[Device], error)

	Create(ctx context.Context, device *Device) error
	Update(ctx context.Context, device *Device) error
	Delete(ctx context.Context, id string) error
}

type deviceRepository struct {
	db  *gorm.DB
	log zerolog.Logger
}

func (r *deviceRepository) GetByID(ctx context.Context, id string) (Device, error) {
	var device Device
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&device).Error
	return device, translate(r.log, err)
}

func (r *deviceRepository) GetByOwnerAndID(ctx context.Context, ownerID, id string) (Device, error) {
	var device Device
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&device).Error
	return device, translate(r.log, err)
}

func (r *deviceRepository) GetByOwnerAndName(ctx context.Context, ownerID, name string) (Device, error) {
	var device Device
	err := r.db.WithContext(ctx).Where("owner_id = ? AND device_name = ?", ownerID, name).First(&device).Error
	return device, translate(r.log, err)
}

func (r *deviceRepository) ListByOwner(ctx context.Context, ownerID string, offset, limit uint64) (repositories.Collection[Device], error) {
	byOwner := func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ?", ownerID)
	}

	devices, err := paginate[Device](ctx, r.db, byOwner, "registered_at, id", offset, limit)
	return devices, translate(r.log, err)
}

func (r *deviceRepository) Create(ctx context.Context, device *Device) error {
	return translate(r.log, r.db.WithContext(ctx).Omit("Owner").Create(device).Error)
}

func (r *deviceRepository) Update(ctx context.Context, device *Device) error {
	device.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&Device{ID: device.ID}).
		Select("device_name", "device_model", "location", "updated_at").
		Updates(device)
	if result.Error != nil {
		return translate(r.log, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a device and all of its sensor data in one transaction
func (r *deviceRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("device_id = ?", id).Delete(&SensorData{}).Error
		if err != nil {
			return translate(r.log, err)
		}

		err = tx.Where("sender_id = ?", id).Delete(&Message{}).Error
		if err != nil {
			return translate(r.log, err)
		}

		result := tx.Where("id = ?", id).Delete(&Device{})
		if result.Error != nil {
			return translate(r.log, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})
}
