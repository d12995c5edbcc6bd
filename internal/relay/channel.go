package relay

import (
	"context"
	"errors"
)

// Group names one side of the relay.
type Group string

// Groups served by the relay.
const (
	GroupDevice Group = "device"
	GroupClient Group = "client"
)

// ErrChannelClosed is returned by Send after the channel has been closed.
var ErrChannelClosed = errors.New("channel closed")

// Channel is an open, message-oriented connection to exactly one remote party.
// Send must be safe to call from several goroutines; Close must be idempotent.
type Channel interface {
	ID() string
	RemoteAddr() string
	Send(ctx context.Context, payload []byte) error
	Close() error
}
