package scanner

import (
	"govee_monitor/internal/models"
)

// Scanner is the scanning facility consumed by the phase controllers.
// Start begins an asynchronous scan, invoking callback once per
// observed advertisement on the adapter's own goroutine; Stop ends the
// scan and surfaces any error the scan terminated with.
type Scanner interface {
	Start(callback func(models.Advertisement)) error
	Stop() error
}

// Stream bridges the callback delivery into a bounded channel so the
// controllers can consume advertisements with plain select/timeout
// logic. When the buffer is full an advertisement is dropped rather
// than blocking the radio callback; broadcasts repeat every second or
// two, so a dropped frame is recovered on the next broadcast.
//
// The returned stop function ends the scan. The channel is never
// closed; consumers bound their reads with timers.
func Stream(s Scanner, buf int) (<-chan models.Advertisement, func() error, error) {
	ch := make(chan models.Advertisement, buf)
	err := s.Start(func(adv models.Advertisement) {
		select {
		case ch <- adv:
		default:
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return ch, s.Stop, nil
}
