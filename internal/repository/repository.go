package repository

import (
	"context"
	"database/sql"
	"time"

	"govee_monitor/internal/models"
)

// SessionRepo persists the locked monitoring session. A run locks at
// most one device, stored as a single row.
type SessionRepo interface {
	Save(ctx context.Context, s models.MonitoringSession) error
	Load(ctx context.Context) (models.MonitoringSession, error)
}

// EventRepo is the append-only operational log kept beside the CSV
// time series.
type EventRepo interface {
	Append(ctx context.Context, e models.MonitorEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.MonitorEvent, error)
}

type Repository struct {
	SessionRepo SessionRepo
	EventRepo   EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SessionRepo: NewSessionSQLite(db),
		EventRepo:   NewEventSQLite(db),
	}
}
