package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MonitoringSession is created once, at the moment discovery locks a
// device, and is immutable for the rest of the run.
type MonitoringSession struct {
	SessionID string        `json:"session_id"`
	Device    DeviceAddress `json:"device"`
	StartedAt time.Time     `json:"started_at"`
	Interval  time.Duration `json:"interval"`
}

// NewMonitoringSession locks the given device starting now.
func NewMonitoringSession(device DeviceAddress, interval time.Duration) MonitoringSession {
	return MonitoringSession{
		SessionID: uuid.NewString(),
		Device:    device,
		StartedAt: time.Now().UTC(),
		Interval:  interval,
	}
}

// Elapsed returns the monitoring time elapsed at now.
func (s MonitoringSession) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

// TPlus formats the elapsed monitoring time at now as H:MM:SS.
func (s MonitoringSession) TPlus(now time.Time) string {
	return FormatElapsed(s.Elapsed(now))
}

// FormatElapsed renders a duration as H:MM:SS, with unpadded hours
// and zero-padded minutes and seconds.
func FormatElapsed(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
