package service

import (
	"context"
	"sync"
	"time"

	"govee_monitor/internal/logger"
	"govee_monitor/internal/models"
)

func testLogger() *logger.Logger {
	return logger.Get(logger.ErrorLevel)
}

// scriptScanner replays a scripted set of advertisements per Start
// call and counts lifecycle calls.
type scriptScanner struct {
	mu        sync.Mutex
	starts    int
	stops     int
	startErrs []error                  // error for the nth Start, nil = ok
	advs      [][]models.Advertisement // advertisements for the nth Start
}

func (s *scriptScanner) Start(callback func(models.Advertisement)) error {
	s.mu.Lock()
	i := s.starts
	s.starts++
	var err error
	if i < len(s.startErrs) {
		err = s.startErrs[i]
	}
	var advs []models.Advertisement
	if i < len(s.advs) {
		advs = s.advs[i]
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	go func() {
		for _, adv := range advs {
			callback(adv)
		}
	}()
	return nil
}

func (s *scriptScanner) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	return nil
}

func (s *scriptScanner) startCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// nameDecoder classifies by the advertisement name and decodes from a
// scripted updates table keyed by name.
type nameDecoder struct {
	updates   map[string][]models.ProbeUpdate
	decodeErr error
}

func (d *nameDecoder) Classify(adv models.Advertisement) string {
	return adv.Name
}

func (d *nameDecoder) Decode(adv models.Advertisement) ([]models.ProbeUpdate, error) {
	if d.decodeErr != nil {
		return nil, d.decodeErr
	}
	return d.updates[adv.Name], nil
}

// sinkRecorder captures Append calls.
type sinkRecorder struct {
	mu   sync.Mutex
	rows []sinkRow
	err  error
}

type sinkRow struct {
	tPlus     string
	device    models.DeviceAddress
	probes    map[models.ProbeID]float64
	allProbes []models.ProbeID
}

func (r *sinkRecorder) Append(tPlus string, device models.DeviceAddress, probes map[models.ProbeID]float64, allProbes []models.ProbeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := make(map[models.ProbeID]float64, len(probes))
	for id, temp := range probes {
		cp[id] = temp
	}
	r.rows = append(r.rows, sinkRow{tPlus: tPlus, device: device, probes: cp, allProbes: allProbes})
	return nil
}

func (r *sinkRecorder) all() []sinkRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sinkRow(nil), r.rows...)
}

// eventRepoStub satisfies repository.EventRepo.
type eventRepoStub struct {
	mu        sync.Mutex
	appended  []models.MonitorEvent
	appendErr error
	listResp  []models.MonitorEvent
	listErr   error
	gotFrom   time.Time
	gotTo     time.Time
	gotType   string
}

func (s *eventRepoStub) Append(ctx context.Context, e models.MonitorEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, e)
	return nil
}

func (s *eventRepoStub) List(ctx context.Context, from, to time.Time, typ string) ([]models.MonitorEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotFrom, s.gotTo, s.gotType = from, to, typ
	return s.listResp, s.listErr
}

func (s *eventRepoStub) byType(typ string) []models.MonitorEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MonitorEvent
	for _, e := range s.appended {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// sessionRepoStub satisfies repository.SessionRepo.
type sessionRepoStub struct {
	mu       sync.Mutex
	saved    []models.MonitoringSession
	saveErr  error
	loadResp models.MonitoringSession
	loadErr  error
}

func (s *sessionRepoStub) Save(ctx context.Context, sess models.MonitoringSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, sess)
	return nil
}

func (s *sessionRepoStub) Load(ctx context.Context) (models.MonitoringSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadResp, s.loadErr
}
