package models

// DeviceAddress is the stable hardware address of a thermometer,
// e.g. "A4:C1:38:0D:11:22". Immutable once locked for a run.
type DeviceAddress string

// ProbeID identifies one temperature channel on a device. The H5055
// exposes up to six probes; ids are unique per device only.
type ProbeID int

// ProbeUpdate is one decoded temperature report for a single probe.
// Valid is false when the sensor reported no value for the probe
// (probe unplugged or mid-transition). Alarm thresholds are only
// present on alarm-bearing frames.
type ProbeUpdate struct {
	Probe      ProbeID  `json:"probe"`
	TempC      float64  `json:"temp_c"`
	Valid      bool     `json:"valid"`
	HasAlarm   bool     `json:"has_alarm,omitempty"`
	AlarmHighC *float64 `json:"alarm_high_c,omitempty"`
	AlarmLowC  *float64 `json:"alarm_low_c,omitempty"`
}

// Advertisement is one normalized BLE broadcast as delivered by the
// scanning facility.
type Advertisement struct {
	Address          DeviceAddress     `json:"address"`
	Name             string            `json:"name,omitempty"`
	RSSI             int16             `json:"rssi"`
	ManufacturerData map[uint16][]byte `json:"-"`
	ServiceUUIDs     []string          `json:"service_uuids,omitempty"`
}
