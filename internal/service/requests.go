package service

import (
	"strconv"

	"pump_relay/internal/models"
)

// StatusReport is the inbound status payload. Pointers let "required" tell false/0 from missing.
type StatusReport struct {
	PhysicalSwitch *bool `json:"physical_switch" binding:"required"`
	MotorState     *bool `json:"motor_state" binding:"required"`
	RemainingTime  *int  `json:"remaining_time" binding:"required,gte=0,lt=86400"`
}

// ToModel converts a bound report. Call only after validation succeeded.
func (r StatusReport) ToModel() models.PumpStatus {
	return models.PumpStatus{
		PhysicalSwitch: *r.PhysicalSwitch,
		MotorState:     *r.MotorState,
		RemainingTime:  *r.RemainingTime,
	}
}

// TimerInput is the inbound timer payload.
type TimerInput struct {
	Hours   *int `json:"hours" binding:"required,gte=0,lte=23"`
	Minutes *int `json:"minutes" binding:"required,gte=0,lte=59"`
}

// ToModel converts a bound timer input. Call only after validation succeeded.
func (t TimerInput) ToModel() models.TimerRequest {
	return models.TimerRequest{Hours: *t.Hours, Minutes: *t.Minutes}
}

func validateStatus(s models.PumpStatus) error {
	if s.Valid() {
		return nil
	}
	tag, param := "lt", strconv.Itoa(models.MaxRemainingTime)
	if s.RemainingTime < 0 {
		tag, param = "gte", "0"
	}
	return &ValidationError{Fields: []FieldError{fieldError("remaining_time", tag, param)}}
}

func validateTimer(t models.TimerRequest) error {
	if t.Valid() {
		return nil
	}
	var fields []FieldError
	switch {
	case t.Hours < 0:
		fields = append(fields, fieldError("hours", "gte", "0"))
	case t.Hours > 23:
		fields = append(fields, fieldError("hours", "lte", "23"))
	}
	switch {
	case t.Minutes < 0:
		fields = append(fields, fieldError("minutes", "gte", "0"))
	case t.Minutes > 59:
		fields = append(fields, fieldError("minutes", "lte", "59"))
	}
	return &ValidationError{Fields: fields}
}
