package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/humidhub/internal/domains/user"
	"gorm.io/gorm"
)

// DeviceEntity is one element of the devices JSON column
type DeviceEntity struct {
	DeviceID  string    `json:"device_id"`
	Humidity  string    `json:"humidity"`
	CreatedAt time.Time `json:"created_at"`
}

// UserEntity represents the database entity for User with GORM tags.
// Devices are embedded in the row as a JSON document.
type UserEntity struct {
	ID        string         `gorm:"primaryKey;type:char(36);not null"`
	Username  string         `gorm:"uniqueIndex;type:varchar(191);not null"`
	Password  string         `gorm:"column:password_hash;type:char(60);not null"`
	Devices   []DeviceEntity `gorm:"column:devices;type:json;serializer:json"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM
func (UserEntity) TableName() string {
	return "users"
}

// BeforeCreate is a GORM hook to ensure UUID is set
func (u *UserEntity) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// ToDomain converts UserEntity to domain User
func (u *UserEntity) ToDomain() *user.User {
	devices := make(user.Devices, len(u.Devices))
	for i, d := range u.Devices {
		devices[i] = user.Device{
			DeviceID:  d.DeviceID,
			Humidity:  d.Humidity,
			CreatedAt: d.CreatedAt,
		}
	}

	return &user.User{
		ID:        u.ID,
		Username:  u.Username,
		Password:  u.Password,
		Devices:   devices,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// FromDomain converts domain User to UserEntity
func (u *UserEntity) FromDomain(domainUser *user.User) {
	devices := make([]DeviceEntity, len(domainUser.Devices))
	for i, d := range domainUser.Devices {
		devices[i] = DeviceEntity{
			DeviceID:  d.DeviceID,
			Humidity:  d.Humidity,
			CreatedAt: d.CreatedAt,
		}
	}

	u.ID = domainUser.ID
	u.Username = domainUser.Username
	u.Password = domainUser.Password
	u.Devices = devices
	u.CreatedAt = domainUser.CreatedAt
	u.UpdatedAt = domainUser.UpdatedAt
}

// NewUserEntityFromDomain creates a new UserEntity from domain User
func NewUserEntityFromDomain(domainUser *user.User) *UserEntity {
	entity := &UserEntity{}
	entity.FromDomain(domainUser)
	return entity
}
