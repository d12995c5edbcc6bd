package models

import "encoding/json"

// Action tags understood by the device.
const (
	ActionToggle = "TOGGLE"
	ActionOff    = "OFF"
	ActionTimer  = "TIMER"
)

// RelayMessage is a set of named fields fanned out to a group.
// It is built once per trigger and never mutated afterwards; use Fields to read it.
type RelayMessage struct {
	fields map[string]any
}

func newRelayMessage(fields map[string]any) RelayMessage {
	return RelayMessage{fields: fields}
}

// ToggleMessage asks the device to flip the pump.
func ToggleMessage() RelayMessage {
	return newRelayMessage(map[string]any{"action": ActionToggle})
}

// OffMessage asks the device to stop the pump.
func OffMessage() RelayMessage {
	return newRelayMessage(map[string]any{"action": ActionOff})
}

// TimerMessage asks the device to run the pump for hours:minutes.
func TimerMessage(t TimerRequest) RelayMessage {
	return newRelayMessage(map[string]any{
		"action":  ActionTimer,
		"hours":   t.Hours,
		"minutes": t.Minutes,
	})
}

// StatusMessage mirrors a status record to UI clients.
func StatusMessage(s PumpStatus) RelayMessage {
	return newRelayMessage(map[string]any{
		"physical_switch": s.PhysicalSwitch,
		"motor_state":     s.MotorState,
		"remaining_time":  s.RemainingTime,
	})
}

// Action returns the action tag, or "" for status records.
func (m RelayMessage) Action() string {
	a, _ := m.fields["action"].(string)
	return a
}

// Fields returns a copy of the message fields.
func (m RelayMessage) Fields() map[string]any {
	out := make(map[string]any, len(m.fields))
	for k, v := range m.fields {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the message as a flat JSON object.
func (m RelayMessage) MarshalJSON() ([]byte, error) {
	if m.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.fields)
}
