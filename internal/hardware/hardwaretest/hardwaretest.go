// Package hardwaretest provides in-memory hardware devices and providers for
// tests.
package hardwaretest

import (
	"context"
	"fmt"
	"sync"

	"codeberg.org/mutker/hwmonitor/internal/hardware"
)

// Device is a fake hardware.Device. Each Refresh increments Refreshes and,
// when OnRefresh is set, lets the test rewrite sensor values.
type Device struct {
	Kind       hardware.HardwareType
	Label      string
	Readings   []*hardware.BasicSensor
	RefreshErr error
	OnRefresh  func(ctx context.Context, d *Device) error

	mu        sync.Mutex
	refreshes int
}

// NewDevice builds a device with one sensor per kind, in order. Sensors are
// named "<kind> #<n>" counting per kind from 1, and the sensor in slot i
// starts with the value i+1.
func NewDevice(t hardware.HardwareType, name string, kinds ...hardware.SensorType) *Device {
	counts := make(map[hardware.SensorType]int)
	readings := make([]*hardware.BasicSensor, len(kinds))
	for i, k := range kinds {
		counts[k]++
		s := hardware.NewSensor(fmt.Sprintf("%s #%d", k, counts[k]), k)
		s.Set(float64(i + 1))
		readings[i] = s
	}
	return &Device{Kind: t, Label: name, Readings: readings}
}

func (d *Device) Type() hardware.HardwareType { return d.Kind }
func (d *Device) Name() string                { return d.Label }

func (d *Device) Sensors() []hardware.Sensor {
	return hardware.Sensors(d.Readings)
}

func (d *Device) Refresh(ctx context.Context) error {
	d.mu.Lock()
	d.refreshes++
	d.mu.Unlock()

	if d.OnRefresh != nil {
		if err := d.OnRefresh(ctx, d); err != nil {
			return err
		}
	}
	return d.RefreshErr
}

// Refreshes returns how many times Refresh was called.
func (d *Device) Refreshes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.refreshes
}

// SetValues overwrites sensor values in slot order.
func (d *Device) SetValues(values ...float64) {
	for i, v := range values {
		if i < len(d.Readings) {
			d.Readings[i].Set(v)
		}
	}
}

// Provider is a fake hardware.Provider over a fixed device list.
type Provider struct {
	List    []hardware.Device
	OpenErr error
	Opened  hardware.Options
	Closed  bool
}

func NewProvider(devices ...*Device) *Provider {
	list := make([]hardware.Device, len(devices))
	for i, d := range devices {
		list[i] = d
	}
	return &Provider{List: list}
}

func (p *Provider) Open(_ context.Context, opts hardware.Options) error {
	p.Opened = opts
	return p.OpenErr
}

func (p *Provider) Devices() []hardware.Device {
	out := make([]hardware.Device, len(p.List))
	copy(out, p.List)
	return out
}

func (p *Provider) Close() error {
	p.Closed = true
	return nil
}

// Source is a fake hardware.Source.
type Source struct {
	Kind        hardware.HardwareType
	Found       []hardware.Device
	DiscoverErr error
	Discovered  int
	Closed      int
}

func (s *Source) Type() hardware.HardwareType { return s.Kind }

func (s *Source) Discover(context.Context) ([]hardware.Device, error) {
	s.Discovered++
	if s.DiscoverErr != nil {
		return nil, s.DiscoverErr
	}
	return s.Found, nil
}

func (s *Source) Close() error {
	s.Closed++
	return nil
}
