package device

import (
	"context"
	"fmt"
	"time"

	"github.com/xpanvictor/humidhub/internal/domains/user"
	"github.com/xpanvictor/humidhub/pkg/Logger"
	"github.com/xpanvictor/humidhub/pkg/notify"
)

// AddDeviceRequest represents the data needed to register a device
// @Description Request body for adding a device
type AddDeviceRequest struct {
	DeviceID string `json:"deviceId" binding:"required" example:"sensor-1"`
	Humidity string `json:"humidity" example:"50"`
}

// UpdateHumidityRequest represents a new manual humidity reading
// @Description Request body for updating a device's humidity
type UpdateHumidityRequest struct {
	Humidity string `json:"humidity" binding:"required" example:"65"`
}

// PublishHumidityRequest represents a humidity value to broadcast
// @Description Request body for publishing a humidity reading
type PublishHumidityRequest struct {
	DeviceID string `json:"deviceId" binding:"required" example:"sensor-1"`
	Humidity string `json:"humidity" binding:"required" example:"65"`
}

// DeviceService mutates a user's device registry and announces committed
// changes on the notification channel.
type DeviceService interface {
	List(ctx context.Context, userID string) ([]user.Device, error)
	Get(ctx context.Context, userID, deviceID string) (*Status, error)
	Add(ctx context.Context, userID string, req AddDeviceRequest) (*user.Device, error)
	UpdateHumidity(ctx context.Context, userID, deviceID string, req UpdateHumidityRequest) (*user.Device, error)
	// PublishHumidity broadcasts a reading without touching the registry.
	// Unlike the mutations, the publish outcome is returned to the caller.
	PublishHumidity(ctx context.Context, req PublishHumidityRequest) error
}

type deviceService struct {
	users     user.UserRepository
	publisher notify.Publisher
	logger    *Logger.Logger
	now       func() time.Time
}

// List implements DeviceService
func (s *deviceService) List(ctx context.Context, userID string) ([]user.Device, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Devices.Clone(), nil
}

// Get implements DeviceService
func (s *deviceService) Get(ctx context.Context, userID, deviceID string) (*Status, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	d, ok := u.Devices.Find(deviceID)
	if !ok {
		return nil, user.ErrDeviceNotFound
	}
	status := StatusOf(d, s.now())
	return &status, nil
}

// Add implements DeviceService
func (s *deviceService) Add(ctx context.Context, userID string, req AddDeviceRequest) (*user.Device, error) {
	added := user.Device{
		DeviceID:  req.DeviceID,
		Humidity:  req.Humidity,
		CreatedAt: s.now().UTC(),
	}

	_, err := s.users.Mutate(ctx, userID, func(u *user.User) error {
		devices, err := u.Devices.Add(added)
		if err != nil {
			return err
		}
		u.Devices = devices
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("device %s registered for user %s", added.DeviceID, userID)
	s.notify(ctx, notify.TopicNewDevice, notify.NewDevicePayload(added.DeviceID))
	return &added, nil
}

// UpdateHumidity implements DeviceService
func (s *deviceService) UpdateHumidity(ctx context.Context, userID, deviceID string, req UpdateHumidityRequest) (*user.Device, error) {
	var updated user.Device

	_, err := s.users.Mutate(ctx, userID, func(u *user.User) error {
		if err := u.Devices.SetHumidity(deviceID, req.Humidity); err != nil {
			return err
		}
		updated, _ = u.Devices.Find(deviceID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("humidity for device %s of user %s set to %s", deviceID, userID, req.Humidity)
	s.notify(ctx, notify.TopicNewHumidity, notify.HumidityPayload(deviceID, req.Humidity))
	return &updated, nil
}

// PublishHumidity implements DeviceService
func (s *deviceService) PublishHumidity(ctx context.Context, req PublishHumidityRequest) error {
	if err := s.publisher.Publish(ctx, notify.TopicNewHumidity, notify.HumidityPayload(req.DeviceID, req.Humidity)); err != nil {
		s.logger.Errorf("failed to publish humidity for device %s: %v", req.DeviceID, err)
		return fmt.Errorf("failed to publish humidity: %w", err)
	}
	s.logger.Infof("humidity for device %s published", req.DeviceID)
	return nil
}

// notify runs after the store write has committed. Failures are logged only.
func (s *deviceService) notify(ctx context.Context, topic, payload string) {
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		s.logger.Warnf("notification on %s dropped: %v", topic, err)
	}
}

// NewDeviceService creates a new device service
func NewDeviceService(users user.UserRepository, publisher notify.Publisher, logger *Logger.Logger) DeviceService {
	return newDeviceService(users, publisher, logger, time.Now)
}

func newDeviceService(users user.UserRepository, publisher notify.Publisher, logger *Logger.Logger, now func() time.Time) *deviceService {
	return &deviceService{
		users:     users,
		publisher: publisher,
		logger:    logger,
		now:       now,
	}
}
