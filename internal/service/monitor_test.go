package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"govee_monitor/internal/models"
	"govee_monitor/internal/store"
)

func fixedSession(interval time.Duration) models.MonitoringSession {
	return models.MonitoringSession{
		SessionID: "sess-1",
		Device:    "AA:BB",
		StartedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		Interval:  interval,
	}
}

func newMonitorForTest(scan *scriptScanner, dec Decoder, sink *sinkRecorder, events *eventRepoStub) (*MonitorService, *store.ReadingStore, *bytes.Buffer) {
	readings := store.New()
	svc := NewMonitorService(scan, dec, readings, sink, events, testLogger())
	out := &bytes.Buffer{}
	svc.out = out
	return svc, readings, out
}

func TestCycle_RejectedAlarmKeepsLastAcceptedReading(t *testing.T) {
	t.Parallel()

	// Probe 1 reports 63.2, then an alarm frame briefly reports -1.
	scan := &scriptScanner{advs: [][]models.Advertisement{{
		{Address: "AA:BB", Name: "good"},
		{Address: "AA:BB", Name: "glitch"},
	}}}
	dec := &nameDecoder{updates: map[string][]models.ProbeUpdate{
		"good":   {{Probe: 1, TempC: 63.2, Valid: true}},
		"glitch": {{Probe: 1, TempC: -1, Valid: true, HasAlarm: true}},
	}}
	sink := &sinkRecorder{}
	events := &eventRepoStub{}
	svc, _, _ := newMonitorForTest(scan, dec, sink, events)
	svc.now = func() time.Time { return fixedSession(0).StartedAt.Add(time.Minute) }

	if err := svc.Cycle(context.Background(), fixedSession(2*time.Second)); err != nil {
		t.Fatalf("Cycle: %v", err)
	}

	rows := sink.all()
	if len(rows) != 1 {
		t.Fatalf("want 1 csv row, got %d", len(rows))
	}
	if got := rows[0].probes[1]; got != 63.2 {
		t.Fatalf("negative alarm value must be rejected: want 63.2, got %v", got)
	}
	if rows[0].tPlus != "0:01:00" {
		t.Errorf("tPlus: want 0:01:00, got %q", rows[0].tPlus)
	}
}

func TestCycle_IgnoresOtherAddresses(t *testing.T) {
	t.Parallel()

	scan := &scriptScanner{advs: [][]models.Advertisement{{
		{Address: "CC:DD", Name: "good"}, // not the locked device
	}}}
	dec := &nameDecoder{updates: map[string][]models.ProbeUpdate{
		"good": {{Probe: 1, TempC: 50, Valid: true}},
	}}
	sink := &sinkRecorder{}
	svc, readings, out := newMonitorForTest(scan, dec, sink, &eventRepoStub{})

	if err := svc.Cycle(context.Background(), fixedSession(2*time.Second)); err != nil {
		t.Fatalf("Cycle: %v", err)
	}

	if !readings.Empty() {
		t.Fatalf("readings from foreign addresses must be ignored")
	}
	if len(sink.all()) != 0 {
		t.Fatalf("empty store must not write rows")
	}
	if !strings.Contains(out.String(), "No temperature readings available") {
		t.Fatalf("want empty-store notice, got %q", out.String())
	}
}

func TestCycle_ScanErrorIsContained(t *testing.T) {
	t.Parallel()

	scan := &scriptScanner{startErrs: []error{errors.New("radio busy")}}
	sink := &sinkRecorder{}
	events := &eventRepoStub{}
	svc, _, _ := newMonitorForTest(scan, &nameDecoder{}, sink, events)

	if err := svc.Cycle(context.Background(), fixedSession(2*time.Second)); err != nil {
		t.Fatalf("scan error must not be fatal, got %v", err)
	}
	if got := events.byType(models.EventScanError); len(got) != 1 {
		t.Fatalf("want 1 SCAN_ERROR event, got %d", len(got))
	}
}

func TestCycle_DecodeErrorSkipsAdvertisement(t *testing.T) {
	t.Parallel()

	scan := &scriptScanner{advs: [][]models.Advertisement{{
		{Address: "AA:BB", Name: "junk"},
	}}}
	dec := &nameDecoder{decodeErr: errors.New("bad frame")}
	sink := &sinkRecorder{}
	svc, readings, _ := newMonitorForTest(scan, dec, sink, &eventRepoStub{})

	if err := svc.Cycle(context.Background(), fixedSession(2*time.Second)); err != nil {
		t.Fatalf("decode error must not abort the cycle: %v", err)
	}
	if !readings.Empty() {
		t.Fatalf("undecodable advertisement must not update readings")
	}
}

func TestSnapshot_PersistErrorIsFatal(t *testing.T) {
	t.Parallel()

	sink := &sinkRecorder{err: errors.New("disk full")}
	svc, readings, _ := newMonitorForTest(&scriptScanner{}, &nameDecoder{}, sink, &eventRepoStub{})
	readings.Apply("AA:BB", models.ProbeUpdate{Probe: 1, TempC: 10, Valid: true})

	err := svc.Snapshot(context.Background(), fixedSession(time.Minute))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("persistence failure must escalate, got %v", err)
	}
}

func TestSnapshot_IdempotentWithoutNewUpdates(t *testing.T) {
	t.Parallel()

	sink := &sinkRecorder{}
	events := &eventRepoStub{}
	svc, readings, _ := newMonitorForTest(&scriptScanner{}, &nameDecoder{}, sink, events)

	readings.Apply("AA:BB", models.ProbeUpdate{Probe: 1, TempC: 63.2, Valid: true})
	readings.Apply("AA:BB", models.ProbeUpdate{Probe: 2, TempC: 41.0, Valid: true})

	session := fixedSession(time.Minute)
	svc.now = func() time.Time { return session.StartedAt.Add(30 * time.Second) }
	if err := svc.Snapshot(context.Background(), session); err != nil {
		t.Fatalf("first snapshot: %v", err)
	}
	svc.now = func() time.Time { return session.StartedAt.Add(90 * time.Second) }
	if err := svc.Snapshot(context.Background(), session); err != nil {
		t.Fatalf("second snapshot: %v", err)
	}

	rows := sink.all()
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[0].tPlus != "0:00:30" || rows[1].tPlus != "0:01:30" {
		t.Errorf("elapsed stamps: got %q, %q", rows[0].tPlus, rows[1].tPlus)
	}
	// Only the elapsed time may differ.
	for id, temp := range rows[0].probes {
		if rows[1].probes[id] != temp {
			t.Errorf("probe %d drifted between snapshots: %v vs %v", id, temp, rows[1].probes[id])
		}
	}
}

func TestSnapshot_HumanBlockSortedAscending(t *testing.T) {
	t.Parallel()

	sink := &sinkRecorder{}
	svc, readings, out := newMonitorForTest(&scriptScanner{}, &nameDecoder{}, sink, &eventRepoStub{})

	readings.Apply("AA:BB", models.ProbeUpdate{Probe: 3, TempC: 70.15, Valid: true})
	readings.Apply("AA:BB", models.ProbeUpdate{Probe: 1, TempC: 63.2, Valid: true})

	session := fixedSession(time.Minute)
	svc.now = func() time.Time { return session.StartedAt.Add(59 * time.Second) }
	if err := svc.Snapshot(context.Background(), session); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "T+0:00:59 Device: AA:BB") {
		t.Errorf("missing device header, got %q", text)
	}
	p1 := strings.Index(text, "Probe 1: 63.2°C")
	p3 := strings.Index(text, "Probe 3: 70.2°C")
	if p1 == -1 || p3 == -1 || p1 > p3 {
		t.Errorf("probes must print ascending: %q", text)
	}
}

func TestSnapshot_TwoDevicesShareColumnSet(t *testing.T) {
	t.Parallel()

	sink := &sinkRecorder{}
	svc, readings, _ := newMonitorForTest(&scriptScanner{}, &nameDecoder{}, sink, &eventRepoStub{})

	readings.Apply("AA:BB", models.ProbeUpdate{Probe: 1, TempC: 10, Valid: true})
	readings.Apply("AA:BB", models.ProbeUpdate{Probe: 2, TempC: 20, Valid: true})
	readings.Apply("CC:DD", models.ProbeUpdate{Probe: 1, TempC: 30, Valid: true})

	if err := svc.Snapshot(context.Background(), fixedSession(time.Minute)); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	rows := sink.all()
	if len(rows) != 2 {
		t.Fatalf("want one row per device, got %d", len(rows))
	}
	for _, row := range rows {
		if len(row.allProbes) != 2 || row.allProbes[0] != 1 || row.allProbes[1] != 2 {
			t.Fatalf("column set must span all devices: %v", row.allProbes)
		}
	}
	// Second device lacks probe 2; its row map simply omits it.
	if _, ok := rows[1].probes[2]; ok {
		t.Fatalf("device CC:DD must not carry probe 2")
	}
}

func TestRun_StopsOnCancellation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newMonitorForTest(&scriptScanner{}, &nameDecoder{}, &sinkRecorder{}, &eventRepoStub{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, fixedSession(2*time.Second)) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not honor cancellation")
	}
}
