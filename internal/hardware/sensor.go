package hardware

// BasicSensor is a Sensor whose value is stored by its owning device.
type BasicSensor struct {
	name  string
	kind  SensorType
	value float64
}

func NewSensor(name string, kind SensorType) *BasicSensor {
	return &BasicSensor{name: name, kind: kind}
}

func (s *BasicSensor) Name() string     { return s.name }
func (s *BasicSensor) Type() SensorType { return s.kind }
func (s *BasicSensor) Value() float64   { return s.value }

// Set stores a new reading. Only the owning device calls it, from Refresh.
func (s *BasicSensor) Set(v float64) {
	s.value = v
}

// Sensors converts a slice of BasicSensor to the Sensor interface.
func Sensors(in []*BasicSensor) []Sensor {
	out := make([]Sensor, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
