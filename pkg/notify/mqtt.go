package notify

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/xpanvictor/humidhub/pkg/Logger"
)

// MQTTOptions configures the broker connection.
type MQTTOptions struct {
	Broker         string
	ClientID       string
	PublishTimeout time.Duration
	ConnectTimeout time.Duration
}

// the subset of mqtt.Client the publisher needs
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnectionOpen() bool
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes over one long-lived broker connection.
type MQTTPublisher struct {
	client  mqttClient
	qos     byte
	timeout time.Duration
	logger  *Logger.Logger
}

// ConnectMQTT opens the process-wide broker connection. If the broker does
// not answer within ConnectTimeout the client keeps retrying in the
// background and publishes fail fast until it is up.
func ConnectMQTT(o MQTTOptions, logger *Logger.Logger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(o.ConnectTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Infof("mqtt connected to %s as %s", o.Broker, o.ClientID)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warnf("mqtt connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(o.ConnectTimeout) {
		logger.Warnf("mqtt broker %s not reachable yet, retrying in background", o.Broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return newMQTTPublisher(client, o.PublishTimeout, logger), nil
}

func newMQTTPublisher(client mqttClient, timeout time.Duration, logger *Logger.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		client:  client,
		qos:     0,
		timeout: timeout,
		logger:  logger,
	}
}

// Publish sends payload and waits for the broker at most the publish
// timeout, or until ctx is done.
func (p *MQTTPublisher) Publish(ctx context.Context, topic, payload string) error {
	if !p.client.IsConnectionOpen() {
		return fmt.Errorf("publish to %s: %w", topic, ErrNotConnected)
	}

	token := p.client.Publish(topic, p.qos, false, payload)
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
		}
		p.logger.Debugf("published %q to %s", payload, topic)
		return nil
	case <-timer.C:
		return fmt.Errorf("publish to %s: %w", topic, ErrPublishTimeout)
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", topic, ctx.Err())
	}
}

// Close disconnects, giving in-flight publishes 250ms.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
