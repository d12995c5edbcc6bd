// Package mqttbridge mirrors pump commands to an MQTT broker and feeds device
// status published on the broker into the command gateway.
package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pump_relay/internal/logger"
	"pump_relay/internal/models"
	"pump_relay/internal/relay"
	"pump_relay/internal/service"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin/binding"
)

const (
	connectTimeout      = 10 * time.Second
	publishTimeout      = 5 * time.Second
	disconnectQuiesceMs = 250

	// Commands are fire-and-forget, same as the websocket path.
	commandQoS = 0
	statusQoS  = 1
)

// ErrPublishTimeout is returned when the broker does not acknowledge a command in time.
var ErrPublishTimeout = errors.New("mqtt publish timeout")

// StatusReporter accepts a validated status record.
type StatusReporter interface {
	ReportStatus(ctx context.Context, st models.PumpStatus) (relay.BroadcastReport, error)
}

// Options configures the broker connection.
type Options struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// CommandTopic is where device commands are published.
func (o Options) CommandTopic() string { return topic(o.TopicPrefix, "command") }

// StatusTopic is where device status is read from.
func (o Options) StatusTopic() string { return topic(o.TopicPrefix, "status") }

func topic(prefix, leaf string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "pump"
	}
	return prefix + "/" + leaf
}

// Bridge is a service.CommandPublisher backed by a paho client.
type Bridge struct {
	client       paho.Client
	commandTopic string
	statusTopic  string
	reporter     StatusReporter
	log          *logger.Logger

	publishTimeout time.Duration
}

var _ service.CommandPublisher = (*Bridge)(nil)

// Connect dials the broker and subscribes to the status topic on every (re)connect.
// If the broker is not reachable within the connect timeout the bridge is still
// returned; paho keeps retrying in the background and publishes fail until then.
func Connect(opts Options, reporter StatusReporter, log *logger.Logger) (*Bridge, error) {
	if opts.Broker == "" {
		return nil, errors.New("mqtt broker is not configured")
	}
	if log == nil {
		log = logger.NewNop()
	}
	b := &Bridge{
		commandTopic:   opts.CommandTopic(),
		statusTopic:    opts.StatusTopic(),
		reporter:       reporter,
		log:            log,
		publishTimeout: publishTimeout,
	}

	po := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(_ paho.Client) {
			if err := b.subscribe(); err != nil {
				b.log.Errorw("mqtt_subscribe_failed", "topic", b.statusTopic, "err", err)
				return
			}
			b.log.Infow("mqtt_connected", "broker", opts.Broker, "status_topic", b.statusTopic)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			b.log.Warnw("mqtt_connection_lost", "err", err)
		})
	if opts.Username != "" {
		po.SetUsername(opts.Username)
		po.SetPassword(opts.Password)
	}

	b.client = paho.NewClient(po)
	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		b.log.Warnw("mqtt_connect_pending", "broker", opts.Broker, "timeout", connectTimeout)
		return b, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", opts.Broker, err)
	}
	return b, nil
}

// newBridge wraps an existing client. Used by tests.
func newBridge(client paho.Client, opts Options, reporter StatusReporter, log *logger.Logger) *Bridge {
	if log == nil {
		log = logger.NewNop()
	}
	return &Bridge{
		client:         client,
		commandTopic:   opts.CommandTopic(),
		statusTopic:    opts.StatusTopic(),
		reporter:       reporter,
		log:            log,
		publishTimeout: publishTimeout,
	}
}

// PublishCommand sends msg to the command topic. It fails at once with
// paho.ErrNotConnected while no broker connection is open: with connect retry
// enabled paho accepts QoS 0 publishes in that state and never completes them.
func (b *Bridge) PublishCommand(msg models.RelayMessage) error {
	if !b.client.IsConnectionOpen() {
		return paho.ErrNotConnected
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	token := b.client.Publish(b.commandTopic, commandQoS, false, payload)
	if !token.WaitTimeout(b.publishTimeout) {
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", b.commandTopic, err)
	}
	return nil
}

func (b *Bridge) subscribe() error {
	token := b.client.Subscribe(b.statusTopic, statusQoS, b.handleStatus)
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("subscribe timeout")
	}
	return token.Error()
}

// handleStatus validates a broker payload and hands it to the gateway. Bad payloads are dropped.
func (b *Bridge) handleStatus(_ paho.Client, m paho.Message) {
	var req service.StatusReport
	if err := binding.JSON.BindBody(m.Payload(), &req); err != nil {
		b.log.Infow("mqtt_status_rejected", "topic", m.Topic(), "err", service.NewValidationError(err))
		return
	}
	if _, err := b.reporter.ReportStatus(context.Background(), req.ToModel()); err != nil {
		b.log.Infow("mqtt_status_rejected", "topic", m.Topic(), "err", err)
	}
}

// Close disconnects from the broker.
func (b *Bridge) Close() error {
	b.client.Disconnect(disconnectQuiesceMs)
	return nil
}
