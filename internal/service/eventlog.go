package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pump_relay/internal/models"
	"pump_relay/internal/repository"
)

// EventLogService reads the pump audit trail.
type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// Filter errors wrap ErrValidation so the HTTP layer reports them as caller mistakes.
var (
	errInvalidTimeRange = fmt.Errorf("%w: invalid time range: From must be <= To", ErrValidation)
	errUnknownEventType = fmt.Errorf("%w: unknown event type", ErrValidation)
)

var knownEventTypes = map[string]struct{}{
	models.EventToggle: {},
	models.EventOff:    {},
	models.EventTimer:  {},
	models.EventStatus: {},
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	if _, ok := knownEventTypes[eventType]; eventType != "" && !ok {
		return time.Time{}, time.Time{}, "", fmt.Errorf("%w %q", errUnknownEventType, eventType)
	}
	return from, to, eventType, nil
}

// List returns events matching f, oldest first.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.PumpEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	if s.eventRepo == nil {
		return []models.PumpEvent{}, nil
	}
	return s.eventRepo.List(ctx, from, to, typ)
}
