package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pump_relay/internal/logger"
	"pump_relay/internal/models"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/multierr"
)

// DefaultSendTimeout bounds a single channel write during a broadcast.
const DefaultSendTimeout = 5 * time.Second

// ErrUnknownGroup is reported when broadcasting to a group the relay does not serve.
var ErrUnknownGroup = errors.New("unknown group")

// Options tunes the relay.
type Options struct {
	SendTimeout time.Duration
}

// Relay owns the device and client registries and fans messages out to them.
// One Relay is created at startup and injected wherever it is needed.
type Relay struct {
	devices     *Registry
	clients     *Registry
	sendTimeout time.Duration
	log         *logger.Logger
}

// New builds a relay with empty device and client registries.
func New(log *logger.Logger, opts Options) *Relay {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	return &Relay{
		devices:     NewRegistry(GroupDevice, log),
		clients:     NewRegistry(GroupClient, log),
		sendTimeout: opts.SendTimeout,
		log:         log,
	}
}

// Registry returns the registry for g, or nil if the group is unknown.
func (r *Relay) Registry(g Group) *Registry {
	switch g {
	case GroupDevice:
		return r.devices
	case GroupClient:
		return r.clients
	default:
		return nil
	}
}

// SendResult is the outcome of one delivery attempt.
type SendResult struct {
	ChannelID  string
	RemoteAddr string
	Err        error

	channel Channel
}

// OK reports whether the payload was written.
func (s SendResult) OK() bool { return s.Err == nil }

// BroadcastReport summarizes one broadcast.
type BroadcastReport struct {
	Group   Group
	Results []SendResult
	// Err is set when nothing could be attempted (unknown group, unserializable message).
	Err error
}

// Delivered counts successful sends.
func (b BroadcastReport) Delivered() int {
	n := 0
	for _, res := range b.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failed counts failed sends.
func (b BroadcastReport) Failed() int {
	return len(b.Results) - b.Delivered()
}

// Broadcast serializes msg once and delivers it to every channel registered in g.
// Sends run concurrently with a per-send timeout. A failed channel is deregistered
// and closed; the failure never propagates to the caller.
func (r *Relay) Broadcast(ctx context.Context, g Group, msg models.RelayMessage) BroadcastReport {
	report := BroadcastReport{Group: g}

	reg := r.Registry(g)
	if reg == nil {
		report.Err = fmt.Errorf("%w: %q", ErrUnknownGroup, g)
		r.log.Errorw("relay_broadcast_failed", "group", g, "err", report.Err)
		return report
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		report.Err = fmt.Errorf("marshal relay message: %w", err)
		r.log.Errorw("relay_broadcast_failed", "group", g, "err", report.Err)
		return report
	}

	// caller cancellation must not look like a peer failure; sends are bounded by sendTimeout
	ctx = context.WithoutCancel(ctx)

	members := reg.Snapshot()
	if len(members) == 0 {
		r.log.Debugw("relay_broadcast_no_members", "group", g)
		return report
	}

	mapper := iter.Mapper[Channel, SendResult]{MaxGoroutines: len(members)}
	report.Results = mapper.Map(members, func(ch *Channel) SendResult {
		return r.send(ctx, *ch, payload)
	})

	for _, res := range report.Results {
		if res.OK() {
			continue
		}
		r.log.Warnw("relay_send_failed", "group", g, "channel_id", res.ChannelID, "peer", res.RemoteAddr, "err", res.Err)
		if reg.Disconnect(res.channel) {
			if cerr := res.channel.Close(); cerr != nil {
				r.log.Debugw("relay_close_failed", "group", g, "channel_id", res.ChannelID, "err", cerr)
			}
		}
	}

	r.log.Debugw("relay_broadcast", "group", g, "delivered", report.Delivered(), "failed", report.Failed())
	return report
}

// send writes payload to one channel within the send timeout.
// A panicking channel is reported as a failed send.
func (r *Relay) send(ctx context.Context, ch Channel, payload []byte) (res SendResult) {
	res = SendResult{ChannelID: ch.ID(), RemoteAddr: ch.RemoteAddr(), channel: ch}
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("send panicked: %v", p)
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
	defer cancel()
	res.Err = ch.Send(sendCtx, payload)
	return res
}

// Close closes every channel in both groups.
func (r *Relay) Close() error {
	return multierr.Combine(r.devices.CloseAll(), r.clients.CloseAll())
}
