package csvlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"govee_monitor/internal/models"
)

// ErrSchemaDrift is returned when a row carries a probe id that is not
// part of the file's committed header. The column set is fixed for the
// lifetime of a file; a drifting schema must fail loudly rather than
// silently misalign columns.
var ErrSchemaDrift = errors.New("probe id not covered by committed csv header")

const probeColumnPrefix = "probe_"

// Appender writes snapshot rows to an append-only CSV file. The header
// is committed exactly once: written when the file is first created, or
// adopted from the first line of a pre-existing file. Each Append is a
// single atomic row write.
type Appender struct {
	path   string
	header []string // nil until committed
}

func NewAppender(path string) *Appender {
	return &Appender{path: path}
}

// Path returns the destination file path.
func (a *Appender) Path() string { return a.path }

func probeColumn(id models.ProbeID) string {
	return fmt.Sprintf("%s%d", probeColumnPrefix, id)
}

// probeFromColumn parses "probe_<id>" back to its id.
func probeFromColumn(col string) (models.ProbeID, bool) {
	if !strings.HasPrefix(col, probeColumnPrefix) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(col, probeColumnPrefix))
	if err != nil {
		return 0, false
	}
	return models.ProbeID(id), true
}

// buildHeader computes the column set for a fresh file from the probe
// ids observed so far across all devices, ascending.
func buildHeader(allProbes []models.ProbeID) []string {
	header := []string{"t_plus", "device"}
	for _, id := range allProbes {
		header = append(header, probeColumn(id))
	}
	return header
}

// readExistingHeader adopts the header of a pre-existing file. Returns
// nil with no error when the file does not exist.
func readExistingHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open csv %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	header, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		// Zero-byte file: treat as fresh.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header from %q: %w", path, err)
	}
	return header, nil
}

// commitHeader fixes the column set once. When the destination does not
// yet exist the header row is written first; otherwise the existing
// header is adopted as-is.
func (a *Appender) commitHeader(allProbes []models.ProbeID) error {
	existing, err := readExistingHeader(a.path)
	if err != nil {
		return err
	}
	if existing != nil {
		a.header = existing
		return nil
	}

	header := buildHeader(allProbes)
	if err := a.writeRecord(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	a.header = header
	return nil
}

// rowFor lays the device's probe values out against the committed
// header. Probes the device lacks leave their field empty.
func (a *Appender) rowFor(tPlus string, device models.DeviceAddress, probes map[models.ProbeID]float64) ([]string, error) {
	covered := make(map[models.ProbeID]bool, len(a.header))
	row := make([]string, 0, len(a.header))

	for _, col := range a.header {
		switch col {
		case "t_plus":
			row = append(row, tPlus)
		case "device":
			row = append(row, string(device))
		default:
			id, ok := probeFromColumn(col)
			if !ok {
				row = append(row, "")
				continue
			}
			covered[id] = true
			if temp, present := probes[id]; present {
				row = append(row, fmt.Sprintf("%.1f", temp))
			} else {
				row = append(row, "")
			}
		}
	}

	for id := range probes {
		if !covered[id] {
			return nil, fmt.Errorf("%w: probe %d, file %q", ErrSchemaDrift, id, a.path)
		}
	}
	return row, nil
}

// Append writes one row for the given device. allProbes is the sorted
// union of probe ids across every device in the current snapshot; it
// only matters for the first write against a fresh file, where it
// decides the committed column breadth.
func (a *Appender) Append(tPlus string, device models.DeviceAddress, probes map[models.ProbeID]float64, allProbes []models.ProbeID) error {
	if a.header == nil {
		if err := a.commitHeader(allProbes); err != nil {
			return err
		}
	}

	row, err := a.rowFor(tPlus, device, probes)
	if err != nil {
		return err
	}
	return a.writeRecord(row)
}

// writeRecord appends a single record and flushes before the file is
// closed, so a row is either fully on disk or reported as an error.
func (a *Appender) writeRecord(record []string) error {
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv %q for append: %w", a.path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write csv record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv record: %w", err)
	}
	return nil
}
