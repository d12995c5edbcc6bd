package service

import (
	"context"

	"pump_relay/internal/logger"
	"pump_relay/internal/models"
	"pump_relay/internal/relay"
	"pump_relay/internal/repository"
)

// Pump exposes the command gateway and the status cache.
type Pump interface {
	Toggle(ctx context.Context) relay.BroadcastReport
	Off(ctx context.Context) relay.BroadcastReport
	SetTimer(ctx context.Context, t models.TimerRequest) (relay.BroadcastReport, error)
	ReportStatus(ctx context.Context, s models.PumpStatus) (relay.BroadcastReport, error)
	Status(ctx context.Context) models.PumpStatus
}

// EventLog exposes the pump audit trail with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.PumpEvent, error)
}

// Service aggregates all sub-services.
type Service struct {
	Pump
	EventLog
}

// NewService wires the relay and repositories into concrete services.
// It also returns the concrete PumpService so callers can attach a command publisher.
func NewService(rl Broadcaster, repos *repository.Repository, log *logger.Logger) (*Service, *PumpService) {
	pump := NewPumpService(rl, NewStatusCache(), repos.EventRepo, log)
	return &Service{
		Pump:     pump,
		EventLog: NewEventLogService(repos.EventRepo),
	}, pump
}
