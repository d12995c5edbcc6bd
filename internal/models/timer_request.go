package models

// TimerRequest is a countdown requested by a UI client.
type TimerRequest struct {
	Hours   int `json:"hours"`   // 0..23
	Minutes int `json:"minutes"` // 0..59
}

// Valid reports whether hours and minutes are within range.
func (t TimerRequest) Valid() bool {
	return t.Hours >= 0 && t.Hours <= 23 && t.Minutes >= 0 && t.Minutes <= 59
}
