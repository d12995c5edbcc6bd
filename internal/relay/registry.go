package relay

import (
	"sync"

	"pump_relay/internal/logger"

	"go.uber.org/multierr"
)

// Registry holds the channels currently open for one group.
// Membership is guarded by mu; Snapshot copies it so callers never hold the lock during I/O.
type Registry struct {
	group Group
	log   *logger.Logger

	mu      sync.RWMutex
	members map[string]Channel
}

// NewRegistry creates an empty registry for the group.
func NewRegistry(group Group, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{
		group:   group,
		log:     log,
		members: make(map[string]Channel),
	}
}

// Group returns the group this registry serves.
func (r *Registry) Group() Group { return r.group }

// Connect adds a handshaken channel. Adding the same channel twice is a no-op.
func (r *Registry) Connect(ch Channel) {
	r.mu.Lock()
	_, existed := r.members[ch.ID()]
	r.members[ch.ID()] = ch
	size := len(r.members)
	r.mu.Unlock()

	if existed {
		return
	}
	r.log.Infow("ws_connected", "group", r.group, "channel_id", ch.ID(), "peer", ch.RemoteAddr(), "members", size)
}

// Disconnect removes the channel and reports whether it was a member.
// Removing an absent channel is a no-op: send-failure cleanup and remote close can race.
func (r *Registry) Disconnect(ch Channel) bool {
	r.mu.Lock()
	cur, existed := r.members[ch.ID()]
	if existed && cur == ch {
		delete(r.members, ch.ID())
	} else {
		existed = false
	}
	size := len(r.members)
	r.mu.Unlock()

	if existed {
		r.log.Infow("ws_disconnected", "group", r.group, "channel_id", ch.ID(), "peer", ch.RemoteAddr(), "members", size)
	}
	return existed
}

// Snapshot returns a point-in-time copy of the members.
func (r *Registry) Snapshot() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Channel, 0, len(r.members))
	for _, ch := range r.members {
		out = append(out, ch)
	}
	return out
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// CloseAll deregisters and closes every member.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	members := r.members
	r.members = make(map[string]Channel)
	r.mu.Unlock()

	var err error
	for _, ch := range members {
		err = multierr.Append(err, ch.Close())
	}
	if len(members) > 0 {
		r.log.Infow("ws_group_closed", "group", r.group, "closed", len(members))
	}
	return err
}
