package csvlog

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"govee_monitor/internal/models"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %q: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read %q: %v", path, err)
	}
	return records
}

func TestAppend_FreshFileWritesHeaderOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "temps.csv")
	a := NewAppender(path)

	allProbes := []models.ProbeID{1, 2}
	if err := a.Append("0:01:00", "AA:BB", map[models.ProbeID]float64{1: 63.25, 2: 40}, allProbes); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := a.Append("0:02:00", "CC:DD", map[models.ProbeID]float64{1: 22.0}, allProbes); err != nil {
		t.Fatalf("second append: %v", err)
	}

	got := readAll(t, path)
	want := [][]string{
		{"t_plus", "device", "probe_1", "probe_2"},
		{"0:01:00", "AA:BB", "63.2", "40.0"},
		{"0:02:00", "CC:DD", "22.0", ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("file content mismatch:\nwant %v\ngot  %v", want, got)
	}
}

func TestAppend_AdoptsPreexistingHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "temps.csv")
	if err := os.WriteFile(path, []byte("t_plus,device,probe_3\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	a := NewAppender(path)
	// allProbes would suggest a wider header, but the committed one wins.
	err := a.Append("0:00:10", "AA:BB", map[models.ProbeID]float64{3: 55.5}, []models.ProbeID{1, 3})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	got := readAll(t, path)
	want := [][]string{
		{"t_plus", "device", "probe_3"},
		{"0:00:10", "AA:BB", "55.5"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("file content mismatch:\nwant %v\ngot  %v", want, got)
	}
}

func TestAppend_SchemaDriftFailsLoudly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "temps.csv")
	a := NewAppender(path)

	if err := a.Append("0:00:01", "AA:BB", map[models.ProbeID]float64{1: 10}, []models.ProbeID{1}); err != nil {
		t.Fatalf("first append: %v", err)
	}

	// Probe 2 shows up after the header was committed with probe 1 only.
	err := a.Append("0:00:02", "AA:BB", map[models.ProbeID]float64{1: 10, 2: 20}, []models.ProbeID{1, 2})
	if !errors.Is(err, ErrSchemaDrift) {
		t.Fatalf("want ErrSchemaDrift, got %v", err)
	}

	// The drifting row must not have been partially written.
	if got := readAll(t, path); len(got) != 2 {
		t.Fatalf("want header + 1 row, got %d records", len(got))
	}
}

func TestAppend_EmptyFileTreatedAsFresh(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "temps.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("seed empty file: %v", err)
	}

	a := NewAppender(path)
	if err := a.Append("0:00:01", "AA:BB", map[models.ProbeID]float64{4: 80.04}, []models.ProbeID{4}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got := readAll(t, path)
	want := [][]string{
		{"t_plus", "device", "probe_4"},
		{"0:00:01", "AA:BB", "80.0"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("file content mismatch:\nwant %v\ngot  %v", want, got)
	}
}

func TestAppend_OpenError(t *testing.T) {
	t.Parallel()

	a := NewAppender(filepath.Join(t.TempDir(), "missing-dir", "temps.csv"))
	err := a.Append("0:00:01", "AA:BB", map[models.ProbeID]float64{1: 10}, []models.ProbeID{1})
	if err == nil {
		t.Fatalf("expected error for unwritable destination")
	}
}
