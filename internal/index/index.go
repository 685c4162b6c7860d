// Package index maps a provider's positionally enumerated devices and sensors
// into a stable per-domain lookup table.
//
// Build scans the device list once. The first device of the target hardware
// type owns the index; later devices of the same type are ignored. Sensor
// slots are grouped by kind in enumeration order, which the report engine
// relies on for positional meaning (for example, the last CPU temperature is
// the package sensor).
package index

import (
	"github.com/rs/zerolog"

	"codeberg.org/mutker/hwmonitor/internal/hardware"
)

// Kinds lists the sensor kinds an index tracks.
var Kinds = []hardware.SensorType{hardware.Temperature, hardware.Load, hardware.Power}

// State is the lifecycle state of a CategoryIndex.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

// CategoryIndex records the device slot of the matched device and, per
// tracked sensor kind, the slots of that device's matching sensors. The zero
// value is an uninitialized index. A CategoryIndex is never mutated after
// Build returns it.
type CategoryIndex struct {
	target hardware.HardwareType
	device int
	set    bool
	slots  map[hardware.SensorType][]int
}

// Build scans devices for the first device of type target and indexes its
// sensors. A missing device yields an uninitialized index, not an error.
func Build(devices []hardware.Device, target hardware.HardwareType) CategoryIndex {
	idx := CategoryIndex{
		target: target,
		slots:  make(map[hardware.SensorType][]int, len(Kinds)),
	}
	for _, k := range Kinds {
		idx.slots[k] = []int{}
	}

	for slot, dev := range devices {
		if dev == nil || dev.Type() != target {
			continue
		}

		idx.device = slot
		idx.set = true

		for sensorSlot, s := range dev.Sensors() {
			if _, tracked := idx.slots[s.Type()]; tracked {
				idx.slots[s.Type()] = append(idx.slots[s.Type()], sensorSlot)
			}
		}
		break
	}

	return idx
}

// Target returns the hardware type the index was built for.
func (c CategoryIndex) Target() hardware.HardwareType {
	return c.target
}

// DeviceSlot returns the matched device's position, or false when unset.
func (c CategoryIndex) DeviceSlot() (int, bool) {
	return c.device, c.set
}

func (c CategoryIndex) State() State {
	if c.set {
		return Ready
	}
	return Uninitialized
}

// Slots returns a copy of the sensor slots of the given kind. The result is
// empty, never nil, for untracked kinds and unmatched devices.
func (c CategoryIndex) Slots(kind hardware.SensorType) []int {
	src := c.slots[kind]
	out := make([]int, len(src))
	copy(out, src)
	return out
}

// Len returns the number of indexed sensors of the given kind.
func (c CategoryIndex) Len(kind hardware.SensorType) int {
	return len(c.slots[kind])
}

// MarshalZerologObject logs the index layout.
func (c CategoryIndex) MarshalZerologObject(e *zerolog.Event) {
	e.Str("target", c.target.String()).Str("state", c.State().String())
	if c.set {
		e.Int("device_slot", c.device)
	}
	for _, k := range Kinds {
		e.Ints(k.String(), c.slots[k])
	}
}
