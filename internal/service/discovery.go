package service

import (
	"context"
	"time"

	"govee_monitor/internal/logger"
	"govee_monitor/internal/models"
	"govee_monitor/internal/scanner"
)

// streamBuffer bounds pending advertisements between the radio
// callback and the consuming controller.
const streamBuffer = 64

// DiscoveryService performs bounded scans until the target device type
// is observed.
type DiscoveryService struct {
	scanner scanner.Scanner
	decoder Decoder
	log     *logger.Logger

	target  string
	ceiling time.Duration
	backoff time.Duration
}

func NewDiscoveryService(scan scanner.Scanner, dec Decoder, log *logger.Logger, cfg Config) *DiscoveryService {
	return &DiscoveryService{
		scanner: scan,
		decoder: dec,
		log:     log,
		target:  cfg.TargetDeviceType,
		ceiling: cfg.ScanCeiling,
		backoff: cfg.RetryBackoff,
	}
}

// Attempt runs one scan for up to timeout, ending early the instant an
// advertisement classifies as the target type. found=false with a nil
// error means the attempt simply ran out of time.
func (s *DiscoveryService) Attempt(ctx context.Context, timeout time.Duration) (models.DeviceAddress, bool, error) {
	advs, stop, err := scanner.Stream(s.scanner, streamBuffer)
	if err != nil {
		return "", false, err
	}
	defer func() {
		if err := stop(); err != nil {
			s.log.Warnw("stopping discovery scan", "err", err)
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-timer.C:
			return "", false, nil
		case adv := <-advs:
			if s.decoder.Classify(adv) == s.target {
				s.log.Infow("target device found", "type", s.target, "address", adv.Address)
				return adv.Address, true, nil
			}
		}
	}
}

// Locate retries Attempt with a short backoff until the target is
// found or ctx is cancelled. There is no retry bound: discovery blocks
// until the device shows up. A failed attempt is logged and treated as
// not-found.
func (s *DiscoveryService) Locate(ctx context.Context) (models.DeviceAddress, error) {
	for attempt := 1; ; attempt++ {
		s.log.Debugw("starting discovery scan", "attempt", attempt)

		addr, found, err := s.Attempt(ctx, s.ceiling)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			s.log.Warnw("discovery scan failed", "attempt", attempt, "err", err)
		} else if found {
			return addr, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.backoff):
		}
	}
}
