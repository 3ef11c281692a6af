package decoder

import (
	"encoding/binary"
	"fmt"
	"strings"

	"govee_monitor/internal/models"
)

// Device type classifications.
const (
	DeviceTypeH5055   = "H5055"
	DeviceTypeUnknown = ""
)

// Govee broadcasts probe data as manufacturer-specific frames under
// this company identifier.
const goveeCompanyID = 0xEC88

// Each probe record in an H5055 frame:
//   byte 0:    probe id (1-6)
//   byte 1:    flags; bit 0 set when alarm thresholds follow
//   bytes 2-3: temperature, little-endian int16, tenths of a degree C
//   bytes 4-5: high alarm, same encoding (alarm frames only)
//   bytes 6-7: low alarm, same encoding (alarm frames only; nullTemp
//              when the low alarm is unset)
const (
	probeRecordLen = 8
	flagAlarm      = 0x01

	// nullTemp is the sentinel the sensor reports for an unplugged or
	// transitioning probe.
	nullTemp = 0x7FFF
)

const h5055NamePrefix = "Govee_H5055"

// Govee decodes Govee thermometer advertisement frames. Stateless and
// safe for concurrent use.
type Govee struct{}

func New() *Govee { return &Govee{} }

// Classify returns the device type announced by an advertisement, or
// DeviceTypeUnknown. The H5055 is recognized by its local name prefix
// or by a well-formed Govee probe frame.
func (g *Govee) Classify(adv models.Advertisement) string {
	if strings.HasPrefix(adv.Name, h5055NamePrefix) {
		return DeviceTypeH5055
	}
	frame, ok := adv.ManufacturerData[goveeCompanyID]
	if ok && len(frame) > 0 && len(frame)%probeRecordLen == 0 {
		return DeviceTypeH5055
	}
	return DeviceTypeUnknown
}

// Decode extracts the probe updates carried by one advertisement. A
// malformed frame is an error for that advertisement only; callers
// discard the advertisement and keep scanning.
func (g *Govee) Decode(adv models.Advertisement) ([]models.ProbeUpdate, error) {
	frame, ok := adv.ManufacturerData[goveeCompanyID]
	if !ok {
		return nil, fmt.Errorf("device %s: no govee manufacturer frame", adv.Address)
	}
	if len(frame) == 0 || len(frame)%probeRecordLen != 0 {
		return nil, fmt.Errorf("device %s: bad frame length %d", adv.Address, len(frame))
	}

	updates := make([]models.ProbeUpdate, 0, len(frame)/probeRecordLen)
	for off := 0; off < len(frame); off += probeRecordLen {
		rec := frame[off : off+probeRecordLen]
		u, err := decodeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("device %s: record at %d: %w", adv.Address, off, err)
		}
		updates = append(updates, u)
	}
	return updates, nil
}

func decodeRecord(rec []byte) (models.ProbeUpdate, error) {
	probe := models.ProbeID(rec[0])
	if probe < 1 || probe > 6 {
		return models.ProbeUpdate{}, fmt.Errorf("probe id %d out of range", rec[0])
	}

	u := models.ProbeUpdate{Probe: probe}
	u.TempC, u.Valid = tempField(rec[2:4])

	if rec[1]&flagAlarm != 0 {
		u.HasAlarm = true
		if high, ok := tempField(rec[4:6]); ok {
			u.AlarmHighC = &high
		}
		if low, ok := tempField(rec[6:8]); ok {
			u.AlarmLowC = &low
		}
	}
	return u, nil
}

// tempField decodes one temperature field, mapping the null sentinel
// to (0, false).
func tempField(b []byte) (float64, bool) {
	raw := int16(binary.LittleEndian.Uint16(b))
	if raw == nullTemp {
		return 0, false
	}
	return float64(raw) / 10.0, true
}
