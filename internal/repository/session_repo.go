package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"govee_monitor/internal/models"
)

type SessionSQLite struct {
	db *sql.DB
}

func NewSessionSQLite(db *sql.DB) *SessionSQLite {
	return &SessionSQLite{db: db}
}

const (
	sessionRowID = 1

	upsertSessionSQL = `
		INSERT INTO monitor_session (id, session_id, device, started_at, interval_s)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id=excluded.session_id,
			device=excluded.device,
			started_at=excluded.started_at,
			interval_s=excluded.interval_s
	`

	selectSessionSQL = `
		SELECT session_id, device, started_at, interval_s
		FROM monitor_session WHERE id=?
	`
)

// Save upserts the single monitor_session row (id always 1).
func (r *SessionSQLite) Save(ctx context.Context, s models.MonitoringSession) error {
	startedUTC := s.StartedAt
	if startedUTC.IsZero() {
		startedUTC = time.Now().UTC()
	} else {
		startedUTC = startedUTC.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertSessionSQL,
		sessionRowID,
		s.SessionID,
		string(s.Device),
		startedUTC,
		int(s.Interval/time.Second),
	)
	return err
}

// Load fetches the single monitor_session row. Returns the zero value
// when no device has been locked yet.
func (r *SessionSQLite) Load(ctx context.Context) (models.MonitoringSession, error) {
	row := r.db.QueryRowContext(ctx, selectSessionSQL, sessionRowID)

	var (
		s         models.MonitoringSession
		device    string
		intervalS int
	)
	if err := row.Scan(&s.SessionID, &device, &s.StartedAt, &intervalS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MonitoringSession{}, nil // no session yet
		}
		return models.MonitoringSession{}, err
	}

	s.Device = models.DeviceAddress(device)
	s.StartedAt = s.StartedAt.UTC()
	s.Interval = time.Duration(intervalS) * time.Second
	return s, nil
}
