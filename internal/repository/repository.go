package repository

import (
	"context"
	"database/sql"
	"time"

	"pump_relay/internal/models"
)

type EventRepo interface {
	Append(ctx context.Context, e models.PumpEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.PumpEvent, error)
}

type Repository struct {
	EventRepo EventRepo
}

// NewRepository wires SQLite-backed repositories. A nil db yields a Repository without an event log.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return &Repository{}
	}
	return &Repository{
		EventRepo: NewEventSQLite(db),
	}
}
