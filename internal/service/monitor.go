package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"govee_monitor/internal/logger"
	"govee_monitor/internal/models"
	"govee_monitor/internal/repository"
	"govee_monitor/internal/scanner"
	"govee_monitor/internal/store"
)

const (
	// residualSleep completes the interval after the scan window, so
	// the loop period stays close to the configured interval.
	residualSleep = 1 * time.Second

	// minScanWindow keeps very small intervals usable.
	minScanWindow = 1 * time.Second

	timestampLayout = "2006-01-02 15:04:05"
)

// MonitorService polls the locked device and turns collected readings
// into snapshots.
type MonitorService struct {
	scanner  scanner.Scanner
	decoder  Decoder
	readings *store.ReadingStore
	sink     Sink
	events   repository.EventRepo
	log      *logger.Logger

	out io.Writer        // human-readable snapshot blocks
	now func() time.Time // injectable clock
}

func NewMonitorService(
	scan scanner.Scanner,
	dec Decoder,
	readings *store.ReadingStore,
	sink Sink,
	events repository.EventRepo,
	log *logger.Logger,
) *MonitorService {
	return &MonitorService{
		scanner:  scan,
		decoder:  dec,
		readings: readings,
		sink:     sink,
		events:   events,
		log:      log,
		out:      os.Stdout,
		now:      time.Now,
	}
}

// Cycle performs one scan-then-snapshot pass. A scan failure is
// contained (logged, cycle collects nothing); a snapshot persistence
// failure is returned and fatal.
func (s *MonitorService) Cycle(ctx context.Context, session models.MonitoringSession) error {
	window := session.Interval - residualSleep
	if window < minScanWindow {
		window = minScanWindow
	}

	if err := s.collect(ctx, session.Device, window); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warnw("monitoring scan failed", "device", session.Device, "err", err)
		s.appendEvent(ctx, models.EventScanError, err.Error(), map[string]any{"device": session.Device})
	}
	if ctx.Err() != nil {
		// Cancelled mid-cycle: exit cleanly without a partial snapshot.
		return ctx.Err()
	}

	return s.Snapshot(ctx, session)
}

// Run loops Cycle at the session interval until ctx is done.
func (s *MonitorService) Run(ctx context.Context, session models.MonitoringSession) error {
	for {
		if err := s.Cycle(ctx, session); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(residualSleep):
		}
	}
}

// collect scans for window, applying every decodable advertisement
// from the locked address to the reading store. Advertisements from
// other addresses are ignored; per-advertisement decode failures are
// logged and skipped.
func (s *MonitorService) collect(ctx context.Context, device models.DeviceAddress, window time.Duration) error {
	advs, stop, err := scanner.Stream(s.scanner, streamBuffer)
	if err != nil {
		return err
	}
	defer func() {
		if err := stop(); err != nil {
			s.log.Warnw("stopping monitoring scan", "err", err)
		}
	}()

	timer := time.NewTimer(window)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case adv := <-advs:
			if adv.Address != device {
				continue
			}
			updates, err := s.decoder.Decode(adv)
			if err != nil {
				s.log.Debugw("dropping undecodable advertisement", "device", adv.Address, "err", err)
				continue
			}
			for _, u := range updates {
				if s.readings.Apply(device, u) {
					s.log.Debugw("reading updated", "device", device, "probe", u.Probe, "temp_c", u.TempC)
				}
			}
		}
	}
}

// Snapshot writes the current readings: a human-readable block per
// device to stdout and one CSV row per device with at least one probe.
// An empty store produces only a notice. Sink failures are fatal.
func (s *MonitorService) Snapshot(ctx context.Context, session models.MonitoringSession) error {
	if s.readings.Empty() {
		fmt.Fprintln(s.out, "No temperature readings available.")
		return nil
	}

	now := s.now()
	tPlus := session.TPlus(now)
	allProbes := s.readings.ProbeIDs()
	snap := s.readings.Snapshot()

	rows := 0
	for _, device := range s.readings.Devices() {
		probes := snap[device]
		if len(probes) == 0 {
			continue
		}

		fmt.Fprintf(s.out, "\n[%s] T+%s Device: %s\n", now.Format(timestampLayout), tPlus, device)
		for _, id := range sortedProbeIDs(probes) {
			fmt.Fprintf(s.out, "  Probe %d: %.1f°C\n", id, probes[id])
		}

		if err := s.sink.Append(tPlus, device, probes, allProbes); err != nil {
			return fmt.Errorf("persist snapshot row for %s: %w", device, err)
		}
		rows++
	}

	s.appendEvent(ctx, models.EventSnapshot,
		fmt.Sprintf("wrote %d row(s)", rows),
		map[string]any{"t_plus": tPlus, "rows": rows})
	return nil
}

// appendEvent records an operational event, best-effort. The CSV is
// the canonical series; a failing event log must not kill the run.
func (s *MonitorService) appendEvent(ctx context.Context, typ, desc string, meta map[string]any) {
	if s.events == nil {
		return
	}
	err := s.events.Append(ctx, models.MonitorEvent{Type: typ, Description: desc, Metadata: meta})
	if err != nil {
		s.log.Warnw("appending monitor event", "type", typ, "err", err)
	}
}

func sortedProbeIDs(probes map[models.ProbeID]float64) []models.ProbeID {
	ids := make([]models.ProbeID, 0, len(probes))
	for id := range probes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
