package mqttbridge

import (
	"context"
	"sync"
	"time"

	"pump_relay/internal/models"
	"pump_relay/internal/relay"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// fakeToken completes immediately unless hang is set; a hanging token
// blocks WaitTimeout for the full duration, like an unanswered paho token.
type fakeToken struct {
	err  error
	hang bool
}

func (t *fakeToken) Wait() bool { return !t.hang }
func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	if t.hang {
		time.Sleep(d)
		return false
	}
	return true
}
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.hang {
		close(ch)
	}
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records publishes and subscriptions. Methods not overridden panic via the nil embed.
type fakeClient struct {
	paho.Client

	mu          sync.Mutex
	published   []published
	handlers    map[string]paho.MessageHandler
	publishTok  *fakeToken
	disconnects int
	offline     bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: map[string]paho.MessageHandler{}, publishTok: &fakeToken{}}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return c.publishTok
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.offline
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = callback
	return &fakeToken{}
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
}

// deliver simulates an inbound broker message.
func (c *fakeClient) deliver(topic string, payload []byte) {
	c.mu.Lock()
	h := c.handlers[topic]
	c.mu.Unlock()
	if h != nil {
		h(c, &fakeMessage{topic: topic, payload: payload})
	}
}

type fakeMessage struct {
	paho.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

// fakeReporter records accepted status records.
type fakeReporter struct {
	got []models.PumpStatus
	err error
}

func (r *fakeReporter) ReportStatus(ctx context.Context, st models.PumpStatus) (relay.BroadcastReport, error) {
	r.got = append(r.got, st)
	return relay.BroadcastReport{Group: relay.GroupClient}, r.err
}
