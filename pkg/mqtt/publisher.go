// Package mqtt publishes created readings to an MQTT broker so that
// downstream alerting can react without polling.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	paho "github.com/eclipse/paho.mqtt.golang"
	"p9e.in/gaugewatch/models"
	"p9e.in/gaugewatch/pkg/readings"
)

const publishTimeout = 10 * time.Second

// Config holds broker settings.
type Config struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
}

// client is the part of paho.Client the publisher uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher implements readings.Notifier on top of a paho client.
type Publisher struct {
	client client
	topic  string
	logger log.Interface
}

// Connect dials the broker and returns a ready publisher.
func Connect(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt: broker url is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "gaugewatch"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetOnConnectHandler(func(paho.Client) {
		log.WithField("broker", cfg.Broker).Info("connected to mqtt broker")
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.WithError(err).Warn("mqtt connection lost")
	})

	c := paho.NewClient(opts)
	token := c.Connect()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(30 * time.Second):
		return nil, fmt.Errorf("mqtt: connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connection error: %w", err)
	}

	return newPublisher(c, cfg.Topic), nil
}

func newPublisher(c client, topic string) *Publisher {
	topic = strings.TrimSuffix(topic, "/")
	if topic == "" {
		topic = "gaugewatch/readings"
	}
	return &Publisher{client: c, topic: topic, logger: log.Log}
}

// Topic returns the topic a reading is published on.
func (p *Publisher) Topic(r models.Reading) string {
	return p.topic + "/" + r.SiteID
}

// ReadingCreated publishes the reading with QoS 0. It never blocks the
// caller; publish failures are only logged.
func (p *Publisher) ReadingCreated(_ context.Context, r models.Reading) {
	ctxLog := p.logger.WithFields(log.Fields{"reading": r.ID, "site": r.SiteID})

	if !p.client.IsConnected() {
		ctxLog.Warn("mqtt not connected, reading not published")
		return
	}

	payload, err := json.Marshal(readings.NewEvent(r))
	if err != nil {
		ctxLog.WithError(err).Error("failed to encode reading event")
		return
	}

	token := p.client.Publish(p.Topic(r), 0, false, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			ctxLog.Warn("mqtt publish timeout")
			return
		}
		if err := token.Error(); err != nil {
			ctxLog.WithError(err).Warn("mqtt publish failed")
		}
	}()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
