package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"govee_monitor/internal/logger"
	"govee_monitor/internal/models"
	"govee_monitor/internal/repository"
)

// runState is the top-level state machine. There is no transition back
// to searching: the locked address is assumed stable for the run.
type runState int

const (
	stateSearching runState = iota
	stateLocked
	stateMonitoring
)

func (s runState) String() string {
	switch s {
	case stateSearching:
		return "SEARCHING"
	case stateLocked:
		return "LOCKED"
	case stateMonitoring:
		return "MONITORING"
	default:
		return fmt.Sprintf("runState(%d)", int(s))
	}
}

// OrchestratorService drives SEARCHING -> LOCKED -> MONITORING.
type OrchestratorService struct {
	discovery Discovery
	monitor   Monitor
	sessions  repository.SessionRepo
	events    repository.EventRepo
	log       *logger.Logger
	interval  time.Duration
}

func NewOrchestratorService(
	discovery Discovery,
	monitor Monitor,
	sessions repository.SessionRepo,
	events repository.EventRepo,
	log *logger.Logger,
	interval time.Duration,
) *OrchestratorService {
	return &OrchestratorService{
		discovery: discovery,
		monitor:   monitor,
		sessions:  sessions,
		events:    events,
		log:       log,
		interval:  interval,
	}
}

// Run blocks until cancellation or a fatal error. Cancellation is the
// clean shutdown path and returns nil; any other error is fatal and
// the process exits non-zero.
func (o *OrchestratorService) Run(ctx context.Context) error {
	state := stateSearching
	var session models.MonitoringSession

	for {
		switch state {
		case stateSearching:
			o.log.Infow("scanning for target device")
			addr, err := o.discovery.Locate(ctx)
			if err != nil {
				return stopReason(err)
			}
			// The lock is permanent: discovery is never invoked again
			// for the rest of the run.
			session = models.NewMonitoringSession(addr, o.interval)
			state = stateLocked

		case stateLocked:
			if err := o.sessions.Save(ctx, session); err != nil {
				return fmt.Errorf("persist locked session: %w", err)
			}
			if err := o.events.Append(ctx, models.MonitorEvent{
				Type:        models.EventDeviceLocked,
				Description: fmt.Sprintf("locked device %s", session.Device),
				Metadata:    map[string]any{"session_id": session.SessionID, "device": session.Device},
			}); err != nil {
				o.log.Warnw("appending lock event", "err", err)
			}
			o.log.Infow("device locked, monitoring",
				"device", session.Device,
				"interval", session.Interval,
				"started_at", session.StartedAt.Format(timestampLayout),
			)
			state = stateMonitoring

		case stateMonitoring:
			return stopReason(o.monitor.Run(ctx, session))
		}
	}
}

// stopReason maps cancellation to a clean nil exit and keeps every
// other error fatal.
func stopReason(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
