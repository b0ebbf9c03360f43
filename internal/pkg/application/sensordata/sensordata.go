package sensordata

import (
	"context"
	"errors"
	"time"

	"github.com/esmart-iot/esmart-api/internal/pkg/application"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/events"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories/database"
	"github.com/esmart-iot/esmart-api/pkg/types"
)

type SensorDataService interface {
	Create(ctx context.Context, data types.SensorDataCreate) (types.SensorData, error)

	Get(ctx context.Context, id string) (types.SensorDataWithDevice, error)
	ListByDevice(ctx context.Context, deviceID string, offset, limit uint64) ([]types.SensorData, error)

	Update(ctx context.Context, callerID, id string, patch types.SensorDataUpdate) (types.SensorData, error)
	Delete(ctx context.Context, callerID, id string) error
}

type service struct {
	devices    database.DeviceRepository
	sensorData database.SensorDataRepository
	sender     events.EventSender
}

func New(devices database.DeviceRepository, sensorData database.SensorDataRepository, sender events.EventSender) SensorDataService {
	return &service{
		devices:    devices,
		sensorData: sensorData,
		sender:     sender,
	}
}

func (s *service) Create(ctx context.Context, d types.SensorDataCreate) (types.SensorData, error) {
	if d.DeviceID == "" {
		return types.SensorData{}, application.NewError(application.ErrBadRequest, "Device id is required")
	}

	if _, err := s.devices.GetByID(ctx, d.DeviceID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return types.SensorData{}, application.NewError(application.ErrNotFound, "Device not found")
		}
		return types.SensorData{}, err
	}

	data := database.SensorData{
		DeviceID:     d.DeviceID,
		MQ5Level:     d.MQ5Level,
		MotionStatus: d.MotionStatus,
		Temperature:  d.Temperature,
		Humidity:     d.Humidity,
	}

	err := s.sensorData.Create(ctx, &data)
	if err != nil {
		return types.SensorData{}, err
	}

	created := application.MapSensorData(data)

	if s.sender != nil {
		err = s.sender.Send(ctx, data.ID, &types.SensorDataCreated{
			DataID:     data.ID,
			DeviceID:   data.DeviceID,
			SensorData: created,
			Timestamp:  time.Now().UTC(),
		})
		if err != nil {
			log := logging.GetLoggerFromContext(ctx)
			log.Error().Err(err).Str("device_id", data.DeviceID).Msg("failed to send sensor data created event")
		}
	}

	return created, nil
}

func (s *service) Get(ctx context.Context, id string) (types.SensorDataWithDevice, error) {
	data, err := s.sensorData.GetByID(ctx, id)
	if err != nil {
		return types.SensorDataWithDevice{}, notFound(err)
	}

	result := types.SensorDataWithDevice{
		SensorData: application.MapSensorData(data),
	}

	if data.Device != nil {
		result.Device = application.MapDevice(*data.Device)
	}

	return result, nil
}

// ListByDevice returns an empty list for devices without readings, including unknown devices
func (s *service) ListByDevice(ctx context.Context, deviceID string, offset, limit uint64) ([]types.SensorData, error) {
	data, err := s.sensorData.ListByDevice(ctx, deviceID, offset, limit)
	if err != nil {
		return nil, err
	}
	return application.MapSensorDataList(data.Data), nil
}

func (s *service) Update(ctx context.Context, callerID, id string, patch types.SensorDataUpdate) (types.SensorData, error) {
	data, err := s.owned(ctx, callerID, id)
	if err != nil {
		return types.SensorData{}, err
	}

	merge(&data, patch)

	err = s.sensorData.Update(ctx, &data)
	if err != nil {
		return types.SensorData{}, notFound(err)
	}

	return application.MapSensorData(data), nil
}

func (s *service) Delete(ctx context.Context, callerID, id string) error {
	data, err := s.owned(ctx, callerID, id)
	if err != nil {
		return err
	}

	return notFound(s.sensorData.Delete(ctx, data.ID))
}

// owned fetches a reading and makes sure that the caller owns the device it belongs to
func (s *service) owned(ctx context.Context, callerID, id string) (database.SensorData, error) {
	data, err := s.sensorData.GetByID(ctx, id)
	if err != nil {
		return database.SensorData{}, notFound(err)
	}

	if data.Device == nil || data.Device.OwnerID != callerID {
		return database.SensorData{}, application.NewError(application.ErrForbidden, "Not allowed to modify sensor data of this device")
	}

	data.Device = nil

	return data, nil
}

func merge(data *database.SensorData, patch types.SensorDataUpdate) {
	if patch.MQ5Level != nil {
		data.MQ5Level = patch.MQ5Level
	}
	if patch.MotionStatus != nil {
		data.MotionStatus = patch.MotionStatus
	}
	if patch.Temperature != nil {
		data.Temperature = patch.Temperature
	}
	if patch.Humidity != nil {
		data.Humidity = patch.Humidity
	}
}

func notFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return application.NewError(application.ErrNotFound, "Sensor data not found")
	}
	return err
}
