package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID         string  `gorm:"primaryKey;size:36"`
	Fullname   string  `gorm:"size:255"`
	Role       string  `gorm:"size:50"`
	Email      string  `gorm:"size:255;uniqueIndex"`
	PhoneNo    *string `gorm:"size:50;uniqueIndex"`
	Password   *string `gorm:"size:255"`
	IsActive   bool
	Provider   *string `gorm:"size:50"`
	ProviderID *string `gorm:"size:255"`
	AvatarURL  *string `gorm:"size:1024"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Device struct {
	ID           string `gorm:"primaryKey;size:36"`
	DeviceName   string `gorm:"size:255;uniqueIndex:idx_owner_device_name"`
	DeviceModel  *string
	Location     *string
	OwnerID      string    `gorm:"size:36;uniqueIndex:idx_owner_device_name"`
	Owner        *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT"`
	RegisteredAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time
}

func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

type SensorData struct {
	ID           string   `gorm:"primaryKey;size:36"`
	DeviceID     string   `gorm:"size:36;index"`
	Device       *Device  `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE"`
	MQ5Level     *float64 `gorm:"column:mq5_level"`
	MotionStatus *int
	Temperature  *float64
	Humidity     *float64
	RecordedAt   time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time
}

func (SensorData) TableName() string {
	return "sensor_data"
}

func (s *SensorData) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type Token struct {
	ID           string `gorm:"primaryKey;size:36"`
	UserID       string `gorm:"size:36;index"`
	User         *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	AccessToken  string `gorm:"size:1024;uniqueIndex"`
	RefreshToken string `gorm:"size:1024;uniqueIndex"`
	Status       bool
	CreatedAt    time.Time `gorm:"index"`
	RevokedAt    *time.Time
}

func (t *Token) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type Message struct {
	ID         string  `gorm:"primaryKey;size:36"`
	SenderID   string  `gorm:"size:36;index"`
	Sender     *Device `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
	ReceiverID string  `gorm:"size:36;index"`
	Receiver   *User   `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE"`
	EventType  string  `gorm:"size:100"`
	Subject    string  `gorm:"size:255"`
	Content    string
	Status     string `gorm:"size:50;default:pending"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
