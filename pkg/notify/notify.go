// Package notify publishes registry change notifications to external
// listeners. Publishing is best-effort: callers have already committed the
// change, so a failed publish only means a missed signal.
package notify

import (
	"context"
	"errors"

	"github.com/xpanvictor/humidhub/pkg/Logger"
)

// Topics listeners subscribe to.
const (
	TopicNewDevice   = "project/newDevice"
	TopicNewHumidity = "project/newHumidity"
)

var (
	ErrPublishTimeout = errors.New("publish not acknowledged in time")
	ErrNotConnected   = errors.New("notification channel not connected")
)

// Publisher sends a plain-text payload to a topic. Implementations bound how
// long they wait and never retry.
type Publisher interface {
	Publish(ctx context.Context, topic, payload string) error
}

// NewDevicePayload encodes the newDevice message.
func NewDevicePayload(deviceID string) string {
	return "id:" + deviceID
}

// HumidityPayload encodes the newHumidity message.
func HumidityPayload(deviceID, humidity string) string {
	return deviceID + ":" + humidity
}

// LogPublisher only records the message. Used when no broker is configured.
type LogPublisher struct {
	logger *Logger.Logger
}

func NewLogPublisher(logger *Logger.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, topic, payload string) error {
	p.logger.Infof("notification (no broker) topic=%s payload=%s", topic, payload)
	return nil
}
