package models

import "time"

// Event types appended to the durable monitor log.
const (
	EventDeviceLocked = "DEVICE_LOCKED"
	EventSnapshot     = "SNAPSHOT"
	EventScanError    = "SCAN_ERROR"
	EventDecodeError  = "DECODE_ERROR"
)

// MonitorEvent is a single entry of the append-only monitor log.
type MonitorEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // DEVICE_LOCKED | SNAPSHOT | SCAN_ERROR | DECODE_ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
