package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Device is a humidity sensor embedded in its owner's document.
// @Description Humidity sensor registered by a user
type Device struct {
	DeviceID  string    `json:"deviceId" example:"sensor-1"`
	Humidity  string    `json:"humidity" example:"40"`
	CreatedAt time.Time `json:"createdAt" example:"2023-01-01T12:00:00Z"`
}

// Devices is a user's registry in insertion order. Device IDs are unique
// within one registry.
type Devices []Device

// Index returns the position of deviceID, or -1.
func (ds Devices) Index(deviceID string) int {
	for i := range ds {
		if ds[i].DeviceID == deviceID {
			return i
		}
	}
	return -1
}

// Find returns a copy of the device with the given ID.
func (ds Devices) Find(deviceID string) (Device, bool) {
	if i := ds.Index(deviceID); i >= 0 {
		return ds[i], true
	}
	return Device{}, false
}

// Add appends d, rejecting an empty or already registered ID.
func (ds Devices) Add(d Device) (Devices, error) {
	if d.DeviceID == "" {
		return ds, ErrInvalidDevice
	}
	if ds.Index(d.DeviceID) >= 0 {
		return ds, ErrDeviceExists
	}
	return append(ds, d), nil
}

// SetHumidity overwrites the humidity of an existing device in place.
func (ds Devices) SetHumidity(deviceID, humidity string) error {
	i := ds.Index(deviceID)
	if i < 0 {
		return ErrDeviceNotFound
	}
	ds[i].Humidity = humidity
	return nil
}

// Clone returns a copy that shares no backing array with ds.
func (ds Devices) Clone() Devices {
	if ds == nil {
		return Devices{}
	}
	out := make(Devices, len(ds))
	copy(out, ds)
	return out
}

// User is an account together with its device registry (pure domain model)
// @Description User account with its devices
type User struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Username  string    `json:"username" example:"alice"`
	Password  string    `json:"-"` // Never expose in JSON
	Devices   Devices   `json:"devices"`
	CreatedAt time.Time `json:"createdAt" example:"2023-01-01T12:00:00Z"`
	UpdatedAt time.Time `json:"updatedAt" example:"2023-01-01T12:00:00Z"`
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	c.Devices = u.Devices.Clone()
	return &c
}

// UserResponse represents a user without sensitive information
// @Description User information returned in API responses (no sensitive data)
type UserResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Username  string    `json:"username" example:"alice"`
	Devices   []Device  `json:"devices"`
	CreatedAt time.Time `json:"createdAt" example:"2023-01-01T12:00:00Z"`
	UpdatedAt time.Time `json:"updatedAt" example:"2023-01-01T12:00:00Z"`
}

// ToResponse converts a User to UserResponse (removes sensitive data)
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Devices:   u.Devices.Clone(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUser creates a new user with generated ID and an empty registry
func NewUser(username, hashedPassword string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New().String(),
		Username:  username,
		Password:  hashedPassword,
		Devices:   Devices{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SignupRequest represents the data needed to create a new user
// @Description Request body for user signup
type SignupRequest struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Password string `json:"password" binding:"required" example:"pw1"`
}

// LoginRequest represents login credentials
// @Description Request body for user login
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Password string `json:"password" binding:"required" example:"pw1"`
}

// MutateFunc edits a loaded user. Returning an error aborts the write.
type MutateFunc func(u *User) error

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create a new user, ErrUsernameTaken if the username is in use
	Create(ctx context.Context, u *User) error

	// Get user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// Get user by username
	GetByUsername(ctx context.Context, username string) (*User, error)

	// List users in creation order; limit <= 0 means all
	List(ctx context.Context, offset, limit int) ([]User, error)

	// Check if username exists
	UsernameExists(ctx context.Context, username string) (bool, error)

	// Mutate loads the user, applies fn and saves the whole document as one
	// unit. Nothing is written when fn fails. Returns the saved user.
	Mutate(ctx context.Context, id string, fn MutateFunc) (*User, error)
}
