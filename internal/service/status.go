package service

import (
	"context"
	"time"

	"govee_monitor/internal/models"
	"govee_monitor/internal/repository"
	"govee_monitor/internal/store"
)

// ProbeValue is one probe's latest reading in a status view.
type ProbeValue struct {
	Probe models.ProbeID `json:"probe"`
	TempC float64        `json:"temp_c"`
}

// DeviceReadings groups a device's probe values, probes ascending.
type DeviceReadings struct {
	Device models.DeviceAddress `json:"device"`
	Probes []ProbeValue         `json:"probes"`
}

// ReadingsView is the live snapshot served to operators.
type ReadingsView struct {
	TPlus   string           `json:"t_plus,omitempty"`
	Devices []DeviceReadings `json:"devices"`
}

// StatusService assembles read-only views of the running monitor.
type StatusService struct {
	readings *store.ReadingStore
	sessions repository.SessionRepo
	now      func() time.Time
}

func NewStatusService(readings *store.ReadingStore, sessions repository.SessionRepo) *StatusService {
	return &StatusService{readings: readings, sessions: sessions, now: time.Now}
}

// Session returns the locked session, or the zero session while still
// searching.
func (s *StatusService) Session(ctx context.Context) (models.MonitoringSession, error) {
	return s.sessions.Load(ctx)
}

// Readings returns the current store contents in deterministic order,
// stamped with the session's elapsed time when a device is locked.
func (s *StatusService) Readings(ctx context.Context) (ReadingsView, error) {
	sess, err := s.sessions.Load(ctx)
	if err != nil {
		return ReadingsView{}, err
	}

	view := ReadingsView{Devices: []DeviceReadings{}}
	if sess.SessionID != "" {
		view.TPlus = sess.TPlus(s.now())
	}

	snap := s.readings.Snapshot()
	for _, device := range s.readings.Devices() {
		probes := snap[device]
		dr := DeviceReadings{Device: device, Probes: make([]ProbeValue, 0, len(probes))}
		for _, id := range sortedProbeIDs(probes) {
			dr.Probes = append(dr.Probes, ProbeValue{Probe: id, TempC: probes[id]})
		}
		view.Devices = append(view.Devices, dr)
	}
	return view, nil
}
