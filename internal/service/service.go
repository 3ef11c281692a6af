package service

import (
	"context"
	"time"

	"govee_monitor/internal/logger"
	"govee_monitor/internal/models"
	"govee_monitor/internal/repository"
	"govee_monitor/internal/scanner"
	"govee_monitor/internal/store"
)

// Decoder classifies advertisements and extracts their probe updates.
// Decode failures are per-advertisement and never abort a scan.
type Decoder interface {
	Classify(adv models.Advertisement) string
	Decode(adv models.Advertisement) ([]models.ProbeUpdate, error)
}

// Sink is the durable time-series destination for snapshot rows.
type Sink interface {
	Append(tPlus string, device models.DeviceAddress, probes map[models.ProbeID]float64, allProbes []models.ProbeID) error
}

// Discovery finds the target device. Attempt is one bounded scan;
// Locate retries attempts until the device is found or ctx is done.
type Discovery interface {
	Attempt(ctx context.Context, timeout time.Duration) (models.DeviceAddress, bool, error)
	Locate(ctx context.Context) (models.DeviceAddress, error)
}

// Monitor polls the locked device. Cycle is one scan-then-snapshot
// pass; Run loops cycles until ctx is done.
type Monitor interface {
	Cycle(ctx context.Context, session models.MonitoringSession) error
	Run(ctx context.Context, session models.MonitoringSession) error
}

// Orchestrator owns the SEARCHING -> LOCKED -> MONITORING state
// machine. Run blocks until cancellation (nil) or a fatal error.
type Orchestrator interface {
	Run(ctx context.Context) error
}

// Status exposes the live session and readings, read-only.
type Status interface {
	Session(ctx context.Context) (models.MonitoringSession, error)
	Readings(ctx context.Context) (ReadingsView, error)
}

// EventLog exposes the append-only monitor log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.MonitorEvent, error)
}

// LogFilter supports log filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "DEVICE_LOCKED", "SNAPSHOT", "SCAN_ERROR", "DECODE_ERROR"
}

// Config carries the tunables of one monitoring run.
type Config struct {
	TargetDeviceType string        // device type that ends discovery
	ScanCeiling      time.Duration // per-attempt discovery scan bound
	RetryBackoff     time.Duration // wait between discovery attempts
	Interval         time.Duration // snapshot interval
}

// Defaults applied by withDefaults for zero Config fields.
const (
	DefaultTargetDeviceType = "H5055"
	DefaultScanCeiling      = 10 * time.Second
	DefaultRetryBackoff     = 1 * time.Second
	DefaultInterval         = 60 * time.Second
)

func (c Config) withDefaults() Config {
	if c.TargetDeviceType == "" {
		c.TargetDeviceType = DefaultTargetDeviceType
	}
	if c.ScanCeiling <= 0 {
		c.ScanCeiling = DefaultScanCeiling
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	return c
}

// Service aggregates all sub-services.
type Service struct {
	Discovery
	Monitor
	Orchestrator
	Status
	EventLog
}

// NewService wires the repository layer, reading store, scanning
// facility, decoder and CSV sink into concrete services.
func NewService(
	repos *repository.Repository,
	readings *store.ReadingStore,
	scan scanner.Scanner,
	dec Decoder,
	sink Sink,
	log *logger.Logger,
	cfg Config,
) *Service {
	cfg = cfg.withDefaults()

	discovery := NewDiscoveryService(scan, dec, log, cfg)
	monitor := NewMonitorService(scan, dec, readings, sink, repos.EventRepo, log)

	return &Service{
		Discovery:    discovery,
		Monitor:      monitor,
		Orchestrator: NewOrchestratorService(discovery, monitor, repos.SessionRepo, repos.EventRepo, log, cfg.Interval),
		Status:       NewStatusService(readings, repos.SessionRepo),
		EventLog:     NewEventLogService(repos.EventRepo),
	}
}
