package models

import (
	"testing"
	"time"
)

func TestFormatElapsed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "0:00:00"},
		{"under a minute", 59 * time.Second, "0:00:59"},
		{"exactly one minute", time.Minute, "0:01:00"},
		{"over an hour", 3661 * time.Second, "1:01:01"},
		{"hours unpadded", 25*time.Hour + 5*time.Second, "25:00:05"},
		{"sub-second truncates", 900 * time.Millisecond, "0:00:00"},
		{"negative clamps to zero", -5 * time.Second, "0:00:00"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatElapsed(tc.d); got != tc.want {
				t.Fatalf("FormatElapsed(%v): want %q, got %q", tc.d, got, tc.want)
			}
		})
	}
}

func TestMonitoringSession_TPlus(t *testing.T) {
	t.Parallel()

	s := NewMonitoringSession("AA:BB:CC:DD:EE:FF", time.Minute)
	if s.SessionID == "" {
		t.Fatalf("SessionID must be set")
	}
	if s.StartedAt.Location() != time.UTC {
		t.Errorf("StartedAt must be UTC, got %v", s.StartedAt.Location())
	}

	now := s.StartedAt.Add(2*time.Hour + 3*time.Minute + 4*time.Second)
	if got := s.TPlus(now); got != "2:03:04" {
		t.Fatalf("TPlus: want %q, got %q", "2:03:04", got)
	}
}
