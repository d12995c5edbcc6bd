package service

import (
	"context"
	"fmt"
	"time"

	"pump_relay/internal/logger"
	"pump_relay/internal/models"
	"pump_relay/internal/relay"
	"pump_relay/internal/repository"

	"github.com/google/uuid"
)

// Broadcaster fans a message out to one relay group.
type Broadcaster interface {
	Broadcast(ctx context.Context, g relay.Group, msg models.RelayMessage) relay.BroadcastReport
}

// CommandPublisher mirrors device commands to another transport (MQTT).
type CommandPublisher interface {
	PublishCommand(msg models.RelayMessage) error
}

// PumpService turns pump triggers into relay broadcasts.
type PumpService struct {
	relay     Broadcaster
	cache     *StatusCache
	eventRepo repository.EventRepo
	publisher CommandPublisher
	log       *logger.Logger
}

// NewPumpService wires the gateway. eventRepo may be nil to skip the audit trail.
func NewPumpService(b Broadcaster, cache *StatusCache, eventRepo repository.EventRepo, log *logger.Logger) *PumpService {
	if cache == nil {
		cache = NewStatusCache()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &PumpService{relay: b, cache: cache, eventRepo: eventRepo, log: log}
}

// SetPublisher attaches a command mirror. Call before serving requests.
func (s *PumpService) SetPublisher(p CommandPublisher) {
	s.publisher = p
}

// Toggle asks the device to flip the pump.
func (s *PumpService) Toggle(ctx context.Context) relay.BroadcastReport {
	return s.dispatch(ctx, models.ToggleMessage(), models.EventToggle, "Pump toggle requested", nil)
}

// Off asks the device to stop the pump.
func (s *PumpService) Off(ctx context.Context) relay.BroadcastReport {
	return s.dispatch(ctx, models.OffMessage(), models.EventOff, "Pump off requested", nil)
}

// SetTimer asks the device to run the pump for the requested time.
func (s *PumpService) SetTimer(ctx context.Context, t models.TimerRequest) (relay.BroadcastReport, error) {
	if err := validateTimer(t); err != nil {
		return relay.BroadcastReport{}, err
	}
	desc := fmt.Sprintf("Pump timer set to %02d:%02d", t.Hours, t.Minutes)
	meta := map[string]any{"hours": t.Hours, "minutes": t.Minutes}
	return s.dispatch(ctx, models.TimerMessage(t), models.EventTimer, desc, meta), nil
}

// ReportStatus accepts a device status: the cache is replaced and clients are notified.
func (s *PumpService) ReportStatus(ctx context.Context, st models.PumpStatus) (relay.BroadcastReport, error) {
	if err := validateStatus(st); err != nil {
		return relay.BroadcastReport{}, err
	}
	s.cache.Set(st)

	rep := s.relay.Broadcast(ctx, relay.GroupClient, models.StatusMessage(st))
	s.log.Debugw("pump_status_relayed",
		"physical_switch", st.PhysicalSwitch,
		"motor_state", st.MotorState,
		"remaining_time", st.RemainingTime,
		"delivered", rep.Delivered(),
		"failed", rep.Failed(),
	)
	s.record(ctx, models.EventStatus, "Pump status reported", map[string]any{
		"physical_switch": st.PhysicalSwitch,
		"motor_state":     st.MotorState,
		"remaining_time":  st.RemainingTime,
	})
	return rep, nil
}

// Status returns the cached record.
func (s *PumpService) Status(ctx context.Context) models.PumpStatus {
	return s.cache.Get()
}

// dispatch broadcasts a command to devices, mirrors it and records it.
func (s *PumpService) dispatch(ctx context.Context, msg models.RelayMessage, eventType, desc string, meta any) relay.BroadcastReport {
	rep := s.relay.Broadcast(ctx, relay.GroupDevice, msg)
	s.log.Infow("pump_command", "action", msg.Action(), "delivered", rep.Delivered(), "failed", rep.Failed())

	if s.publisher != nil {
		if err := s.publisher.PublishCommand(msg); err != nil {
			s.log.Warnw("pump_command_mirror_failed", "action", msg.Action(), "err", err)
		}
	}
	s.record(ctx, eventType, desc, meta)
	return rep
}

// record appends to the event log. Failures are logged only.
func (s *PumpService) record(ctx context.Context, eventType, desc string, meta any) {
	if s.eventRepo == nil {
		return
	}
	err := s.eventRepo.Append(ctx, models.PumpEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        eventType,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil {
		s.log.Warnw("pump_event_append_failed", "type", eventType, "err", err)
	}
}
