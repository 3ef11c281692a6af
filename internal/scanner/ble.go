package scanner

import (
	"errors"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"

	"govee_monitor/internal/models"
)

// BLE adapts the host Bluetooth radio to the Scanner port.
type BLE struct {
	adapter *bluetooth.Adapter

	mu      sync.Mutex
	active  bool
	scanErr chan error
}

// NewBLE enables the default host adapter.
func NewBLE() (*BLE, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable bluetooth adapter: %w", err)
	}
	return &BLE{adapter: adapter}, nil
}

// Start begins scanning. bluetooth.Adapter.Scan blocks until StopScan,
// so it runs on its own goroutine; its terminal error is collected by
// Stop.
func (b *BLE) Start(callback func(models.Advertisement)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.active {
		return errors.New("scan already in flight")
	}
	b.active = true
	b.scanErr = make(chan error, 1)

	errc := b.scanErr
	go func() {
		errc <- b.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			callback(normalize(result))
		})
	}()
	return nil
}

// Stop ends the active scan and returns the error the scan loop exited
// with, if any. Stopping an inactive scanner is a no-op.
func (b *BLE) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active {
		return nil
	}
	b.active = false

	if err := b.adapter.StopScan(); err != nil {
		return fmt.Errorf("stop scan: %w", err)
	}
	if err := <-b.scanErr; err != nil {
		return fmt.Errorf("scan terminated: %w", err)
	}
	return nil
}

func normalize(r bluetooth.ScanResult) models.Advertisement {
	var mfr map[uint16][]byte
	if elements := r.ManufacturerData(); len(elements) > 0 {
		mfr = make(map[uint16][]byte, len(elements))
		for _, el := range elements {
			mfr[el.CompanyID] = el.Data
		}
	}
	return models.Advertisement{
		Address:          models.DeviceAddress(r.Address.String()),
		Name:             r.LocalName(),
		RSSI:             r.RSSI,
		ManufacturerData: mfr,
	}
}
