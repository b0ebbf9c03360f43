package types

import (
	"time"
)

type User struct {
	UserID     string    `json:"user_id"`
	Fullname   string    `json:"fullname"`
	Role       string    `json:"role"`
	Email      string    `json:"email"`
	PhoneNo    *string   `json:"phone_no"`
	IsActive   bool      `json:"is_active"`
	Provider   *string   `json:"provider"`
	ProviderID *string   `json:"provider_id"`
	AvatarURL  *string   `json:"avatar_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserCreate is a self registration. Role and active state are not accepted from the caller.
type UserCreate struct {
	Fullname string  `json:"fullname"`
	Email    string  `json:"email"`
	PhoneNo  *string `json:"phone_no"`
	Password string  `json:"password"`
}

// UserUpdate is a partial update. Nil fields are left untouched.
type UserUpdate struct {
	Fullname   *string `json:"fullname"`
	Role       *string `json:"role"`
	Email      *string `json:"email"`
	PhoneNo    *string `json:"phone_no"`
	IsActive   *bool   `json:"is_active"`
	Provider   *string `json:"provider"`
	ProviderID *string `json:"provider_id"`
	AvatarURL  *string `json:"avatar_url"`
}

type ChangePassword struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

type Token struct {
	TokenID      string    `json:"token_id"`
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Status       bool      `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	Exp          int64     `json:"exp"`
}

type TokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type OAuthResult struct {
	Message     string `json:"message"`
	RedirectURL string `json:"redirect_url"`
}

type Device struct {
	DeviceID     string    `json:"device_id"`
	DeviceName   string    `json:"device_name"`
	DeviceModel  *string   `json:"device_model"`
	Location     *string   `json:"location"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type DeviceWithSensorData struct {
	Device
	SensorData []SensorData `json:"sensor_data"`
}

type DeviceCreate struct {
	DeviceName  string  `json:"device_name"`
	DeviceModel *string `json:"device_model"`
	Location    *string `json:"location"`
}

type DeviceUpdate struct {
	DeviceName  *string `json:"device_name"`
	DeviceModel *string `json:"device_model"`
	Location    *string `json:"location"`
}

type SensorData struct {
	DataID       string    `json:"data_id"`
	DeviceID     string    `json:"device_id"`
	MQ5Level     *float64  `json:"mq5_level"`
	MotionStatus *int      `json:"motion_status"`
	Temperature  *float64  `json:"temperature"`
	Humidity     *float64  `json:"humidity"`
	RecordedAt   time.Time `json:"recorded_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SensorDataWithDevice struct {
	SensorData
	Device Device `json:"device"`
}

type SensorDataCreate struct {
	DeviceID     string   `json:"device_id"`
	MQ5Level     *float64 `json:"mq5_level"`
	MotionStatus *int     `json:"motion_status"`
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
}

type SensorDataUpdate struct {
	MQ5Level     *float64 `json:"mq5_level"`
	MotionStatus *int     `json:"motion_status"`
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
}

type Faces struct {
	Faces [][4]int `json:"faces"`
}

type FrameError struct {
	Error string `json:"error"`
}
