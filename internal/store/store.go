package store

import (
	"sort"
	"sync"

	"govee_monitor/internal/models"
)

// ReadingStore keeps the latest temperature per (device, probe). No
// history is retained; keys grow monotonically for the lifetime of a
// run. The scanning adapter delivers advertisements on its own
// goroutine, so access is mutex-guarded.
type ReadingStore struct {
	mu       sync.RWMutex
	readings map[models.DeviceAddress]map[models.ProbeID]float64
}

func New() *ReadingStore {
	return &ReadingStore{
		readings: make(map[models.DeviceAddress]map[models.ProbeID]float64),
	}
}

// Apply merges one decoded probe update. A plain update always
// replaces the stored value. An alarm-bearing update replaces only
// when the reported temperature is valid and strictly positive; the
// sensor briefly reports zero or negative values while a probe is
// unplugged or transitioning, and those must not clobber a good
// reading. Returns true if the stored value changed.
func (s *ReadingStore) Apply(addr models.DeviceAddress, u models.ProbeUpdate) bool {
	if u.HasAlarm && (!u.Valid || u.TempC <= 0) {
		return false
	}
	if !u.HasAlarm && !u.Valid {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	probes, ok := s.readings[addr]
	if !ok {
		probes = make(map[models.ProbeID]float64)
		s.readings[addr] = probes
	}
	probes[u.Probe] = u.TempC
	return true
}

// Snapshot returns a deep copy of the current readings. The copy is
// safe to iterate while the scanner keeps delivering updates.
func (s *ReadingStore) Snapshot() map[models.DeviceAddress]map[models.ProbeID]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.DeviceAddress]map[models.ProbeID]float64, len(s.readings))
	for addr, probes := range s.readings {
		cp := make(map[models.ProbeID]float64, len(probes))
		for id, temp := range probes {
			cp[id] = temp
		}
		out[addr] = cp
	}
	return out
}

// ProbeIDs returns the sorted union of probe ids observed across all
// devices. This drives the persisted column set.
func (s *ReadingStore) ProbeIDs() []models.ProbeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[models.ProbeID]bool)
	for _, probes := range s.readings {
		for id := range probes {
			seen[id] = true
		}
	}
	ids := make([]models.ProbeID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Empty reports whether no readings have been collected yet.
func (s *ReadingStore) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings) == 0
}

// Devices returns the device addresses present, sorted for
// deterministic output.
func (s *ReadingStore) Devices() []models.DeviceAddress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addrs := make([]models.DeviceAddress, 0, len(s.readings))
	for addr := range s.readings {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}
