package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/gaugewatch/models"
)

type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Error() error                   { return t.err }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mu        sync.Mutex
	connected bool
	sent      []published
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return &doneToken{}
}

func (c *fakeClient) IsConnected() bool { return c.connected }
func (c *fakeClient) Disconnect(uint)   { c.connected = false }

func TestPublisher_ReadingCreated(t *testing.T) {
	fc := &fakeClient{connected: true}
	p := newPublisher(fc, "river/readings/")

	r := models.Reading{ID: "r-1", SiteID: "CWC-KL-003", WaterLevelMeters: 5.1, IsVerified: true}
	p.ReadingCreated(context.Background(), r)

	require.Len(t, fc.sent, 1)
	assert.Equal(t, "river/readings/CWC-KL-003", fc.sent[0].topic)
	assert.Equal(t, byte(0), fc.sent[0].qos)

	var msg struct {
		Type    string         `json:"type"`
		Reading models.Reading `json:"reading"`
	}
	require.NoError(t, json.Unmarshal(fc.sent[0].payload, &msg))
	assert.Equal(t, "reading.created", msg.Type)
	assert.Equal(t, "r-1", msg.Reading.ID)
	assert.Equal(t, 5.1, msg.Reading.WaterLevelMeters)
}

func TestPublisher_SkipsWhenDisconnected(t *testing.T) {
	fc := &fakeClient{connected: false}
	p := newPublisher(fc, "")

	p.ReadingCreated(context.Background(), models.Reading{ID: "r-1", SiteID: "A"})
	assert.Empty(t, fc.sent)
	assert.Equal(t, "gaugewatch/readings/A", p.Topic(models.Reading{SiteID: "A"}))
}

func TestConnect_RequiresBroker(t *testing.T) {
	_, err := Connect(context.Background(), Config{})
	assert.Error(t, err)
}
