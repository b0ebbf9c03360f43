package devices

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/esmart-iot/esmart-api/internal/pkg/application"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/events"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories/database"
	"github.com/esmart-iot/esmart-api/pkg/types"
)

type DeviceService interface {
	Create(ctx context.Context, ownerID string, device types.DeviceCreate) (types.Device, error)

	Get(ctx context.Context, ownerID, deviceID string) (types.DeviceWithSensorData, error)
	List(ctx context.Context, ownerID string, offset, limit uint64) ([]types.Device, error)

	Update(ctx context.Context, ownerID, deviceID string, patch types.DeviceUpdate) (types.Device, error)
	Delete(ctx context.Context, ownerID, deviceID string) error
}

type service struct {
	devices    database.DeviceRepository
	sensorData database.SensorDataRepository
	sender     events.EventSender
}

func New(devices database.DeviceRepository, sensorData database.SensorDataRepository, sender events.EventSender) DeviceService {
	return &service{
		devices:    devices,
		sensorData: sensorData,
		sender:     sender,
	}
}

func (s *service) Create(ctx context.Context, ownerID string, d types.DeviceCreate) (types.Device, error) {
	name := strings.TrimSpace(d.DeviceName)
	if name == "" {
		return types.Device{}, application.NewError(application.ErrBadRequest, "Device name is required")
	}

	if err := s.checkNameIsFree(ctx, ownerID, "", name); err != nil {
		return types.Device{}, err
	}

	device := database.Device{
		DeviceName:  name,
		DeviceModel: d.DeviceModel,
		Location:    d.Location,
		OwnerID:     ownerID,
	}

	err := s.devices.Create(ctx, &device)
	if err != nil {
		return types.Device{}, err
	}

	log := logging.GetLoggerFromContext(ctx)
	log.Info().Str("device_id", device.ID).Str("owner_id", ownerID).Msg("device registered")

	if s.sender != nil {
		err = s.sender.Send(ctx, device.ID, &types.DeviceCreated{
			DeviceID:   device.ID,
			DeviceName: device.DeviceName,
			OwnerID:    ownerID,
			Timestamp:  time.Now().UTC(),
		})
		if err != nil {
			log.Error().Err(err).Str("device_id", device.ID).Msg("failed to send device created event")
		}
	}

	return application.MapDevice(device), nil
}

func (s *service) Get(ctx context.Context, ownerID, deviceID string) (types.DeviceWithSensorData, error) {
	device, err := s.devices.GetByOwnerAndID(ctx, ownerID, deviceID)
	if err != nil {
		return types.DeviceWithSensorData{}, notFound(err)
	}

	data, err := s.sensorData.ListByDevice(ctx, device.ID, 0, repositories.MaxLimit)
	if err != nil {
		return types.DeviceWithSensorData{}, err
	}

	return types.DeviceWithSensorData{
		Device:     application.MapDevice(device),
		SensorData: application.MapSensorDataList(data.Data),
	}, nil
}

func (s *service) List(ctx context.Context, ownerID string, offset, limit uint64) ([]types.Device, error) {
	devices, err := s.devices.ListByOwner(ctx, ownerID, offset, limit)
	if err != nil {
		return nil, err
	}
	return application.MapDevices(devices.Data), nil
}

func (s *service) Update(ctx context.Context, ownerID, deviceID string, patch types.DeviceUpdate) (types.Device, error) {
	device, err := s.devices.GetByOwnerAndID(ctx, ownerID, deviceID)
	if err != nil {
		return types.Device{}, notFound(err)
	}

	if patch.DeviceName != nil {
		name := strings.TrimSpace(*patch.DeviceName)
		if name == "" {
			return types.Device{}, application.NewError(application.ErrBadRequest, "Device name is required")
		}
		if err := s.checkNameIsFree(ctx, ownerID, device.ID, name); err != nil {
			return types.Device{}, err
		}
		patch.DeviceName = &name
	}

	merge(&device, patch)

	err = s.devices.Update(ctx, &device)
	if err != nil {
		return types.Device{}, notFound(err)
	}

	return application.MapDevice(device), nil
}

func (s *service) Delete(ctx context.Context, ownerID, deviceID string) error {
	device, err := s.devices.GetByOwnerAndID(ctx, ownerID, deviceID)
	if err != nil {
		return notFound(err)
	}

	return notFound(s.devices.Delete(ctx, device.ID))
}

func (s *service) checkNameIsFree(ctx context.Context, ownerID, deviceID, name string) error {
	existing, err := s.devices.GetByOwnerAndName(ctx, ownerID, name)
	if err == nil && existing.ID != deviceID {
		return application.NewError(application.ErrConflict, "Device with name %s already registered", name)
	} else if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}
	return nil
}

func merge(device *database.Device, patch types.DeviceUpdate) {
	if patch.DeviceName != nil {
		device.DeviceName = *patch.DeviceName
	}
	if patch.DeviceModel != nil {
		device.DeviceModel = patch.DeviceModel
	}
	if patch.Location != nil {
		device.Location = patch.Location
	}
}

func notFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return application.NewError(application.ErrNotFound, "Device not found")
	}
	return err
}
