package models

// MaxRemainingTime is the exclusive upper bound for PumpStatus.RemainingTime (one day in seconds).
const MaxRemainingTime = 24 * 3600

// PumpStatus is the last known state of the physical pump.
type PumpStatus struct {
	PhysicalSwitch bool `json:"physical_switch"`
	MotorState     bool `json:"motor_state"`
	RemainingTime  int  `json:"remaining_time"` // seconds, [0, 86400)
}

// DefaultPumpStatus is reported until the device sends its first status.
func DefaultPumpStatus() PumpStatus {
	return PumpStatus{}
}

// Valid reports whether the record is within range.
func (s PumpStatus) Valid() bool {
	return s.RemainingTime >= 0 && s.RemainingTime < MaxRemainingTime
}
