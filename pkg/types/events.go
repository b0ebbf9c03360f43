package types

import "time"

type DeviceCreated struct {
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	OwnerID    string    `json:"owner_id"`
	Timestamp  time.Time `json:"timestamp"`
}

func (d *DeviceCreated) ContentType() string {
	return "application/json"
}
func (d *DeviceCreated) EventType() string {
	return "esmart.device.created"
}

type SensorDataCreated struct {
	DataID     string     `json:"data_id"`
	DeviceID   string     `json:"device_id"`
	SensorData SensorData `json:"sensor_data"`
	Timestamp  time.Time  `json:"timestamp"`
}

func (s *SensorDataCreated) ContentType() string {
	return "application/json"
}
func (s *SensorDataCreated) EventType() string {
	return "esmart.sensordata.created"
}
