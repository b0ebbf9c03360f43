package application

import (
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories/database"
	"github.com/esmart-iot/esmart-api/pkg/types"
	"github.com/samber/lo"
)

func MapUser(u database.User) types.User {
	return types.User{
		UserID:     u.ID,
		Fullname:   u.Fullname,
		Role:       u.Role,
		Email:      u.Email,
		PhoneNo:    u.PhoneNo,
		IsActive:   u.IsActive,
		Provider:   u.Provider,
		ProviderID: u.ProviderID,
		AvatarURL:  u.AvatarURL,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func MapDevice(d database.Device) types.Device {
	return types.Device{
		DeviceID:     d.ID,
		DeviceName:   d.DeviceName,
		DeviceModel:  d.DeviceModel,
		Location:     d.Location,
		RegisteredAt: d.RegisteredAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func MapSensorData(s database.SensorData) types.SensorData {
	return types.SensorData{
		DataID:       s.ID,
		DeviceID:     s.DeviceID,
		MQ5Level:     s.MQ5Level,
		MotionStatus: s.MotionStatus,
		Temperature:  s.Temperature,
		Humidity:     s.Humidity,
		RecordedAt:   s.RecordedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func MapUsers(users []database.User) []types.User {
	return lo.Map(users, func(u database.User, _ int) types.User { return MapUser(u) })
}

func MapDevices(devices []database.Device) []types.Device {
	return lo.Map(devices, func(d database.Device, _ int) types.Device { return MapDevice(d) })
}

func MapSensorDataList(data []database.SensorData) []types.SensorData {
	return lo.Map(data, func(s database.SensorData, _ int) types.SensorData { return MapSensorData(s) })
}
