// Package host discovers the CPU as a hardware device. Temperatures and load
// come from gopsutil; power comes from the kernel's RAPL powercap zones.
package host

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/sensors"

	"codeberg.org/mutker/hwmonitor/internal/errors"
	"codeberg.org/mutker/hwmonitor/internal/hardware"
	"codeberg.org/mutker/hwmonitor/internal/logger"
)

const defaultPowercapRoot = "/sys/class/powercap"

// cpuChips are the sensor chip prefixes that report CPU temperatures.
var cpuChips = []string{"coretemp", "k10temp", "zenpower", "cpu_thermal"}

// stats is the subset of gopsutil the source depends on.
type stats struct {
	temperatures func(ctx context.Context) ([]sensors.TemperatureStat, error)
	percent      func(ctx context.Context, perCPU bool) ([]float64, error)
	counts       func(ctx context.Context) (int, error)
	model        func(ctx context.Context) string
}

func gopsutilStats() stats {
	return stats{
		temperatures: sensors.TemperaturesWithContext,
		percent: func(ctx context.Context, perCPU bool) ([]float64, error) {
			return cpu.PercentWithContext(ctx, 0, perCPU)
		},
		counts: func(ctx context.Context) (int, error) {
			return cpu.CountsWithContext(ctx, true)
		},
		model: func(ctx context.Context) string {
			info, err := cpu.InfoWithContext(ctx)
			if err != nil || len(info) == 0 {
				return ""
			}
			return info[0].ModelName
		},
	}
}

// Source discovers a single CPU device.
type Source struct {
	powercapRoot string
	now          func() time.Time
	stats        stats
}

type Option func(*Source)

// WithPowercapRoot overrides the powercap sysfs directory.
func WithPowercapRoot(root string) Option {
	return func(s *Source) {
		s.powercapRoot = root
	}
}

func NewSource(opts ...Option) *Source {
	s := &Source{
		powercapRoot: defaultPowercapRoot,
		now:          time.Now,
		stats:        gopsutilStats(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (*Source) Type() hardware.HardwareType {
	return hardware.CPU
}

func (*Source) Close() error {
	return nil
}

// Discover enumerates the CPU's sensors: temperatures (cores, then package),
// load (total, then one per logical core) and RAPL power zones (package,
// cores, graphics, dram).
func (s *Source) Discover(ctx context.Context) ([]hardware.Device, error) {
	errFactory := errors.New()

	d := &device{name: s.stats.model(ctx), stats: s.stats}
	if d.name == "" {
		d.name = "CPU"
	}

	temps, err := s.stats.temperatures(ctx)
	if err != nil && len(temps) == 0 {
		logger.Debug().Err(err).Msg("No CPU temperature sensors available")
	}
	for _, id := range temperatureKeys(temps) {
		name := temperatureName(id.key)
		if id.socket > 0 {
			name = fmt.Sprintf("%s (Socket #%d)", name, id.socket+1)
		}
		d.temps = append(d.temps, tempSensor{
			id:     id,
			sensor: hardware.NewSensor(name, hardware.Temperature),
		})
	}

	cores, err := s.stats.counts(ctx)
	if err != nil {
		return nil, errFactory.Wrap(ErrDiscoverFailed, err)
	}
	d.total = hardware.NewSensor("CPU Total", hardware.Load)
	for i := 1; i <= cores; i++ {
		d.cores = append(d.cores, hardware.NewSensor(fmt.Sprintf("CPU Core #%d", i), hardware.Load))
	}

	d.zones = discoverZones(s.powercapRoot, s.now)

	d.sensors = d.layout()

	logger.Debug().
		Str("name", d.name).
		Int("temperatures", len(d.temps)).
		Int("cores", len(d.cores)).
		Int("power_zones", len(d.zones)).
		Msg("Discovered CPU sensors")

	return []hardware.Device{d}, nil
}

// tempID identifies a temperature reading. Each socket of a multi-socket
// machine reports the same sensor keys, so socket is the key's occurrence
// number in gopsutil's listing.
type tempID struct {
	key    string
	socket int
}

type tempSensor struct {
	id     tempID
	sensor *hardware.BasicSensor
}

type device struct {
	name    string
	stats   stats
	temps   []tempSensor
	total   *hardware.BasicSensor
	cores   []*hardware.BasicSensor
	zones   []*zone
	sensors []hardware.Sensor
}

func (*device) Type() hardware.HardwareType {
	return hardware.CPU
}

func (d *device) Name() string {
	return d.name
}

func (d *device) Sensors() []hardware.Sensor {
	return d.sensors
}

func (d *device) layout() []hardware.Sensor {
	var out []hardware.Sensor
	for _, t := range d.temps {
		out = append(out, t.sensor)
	}
	out = append(out, d.total)
	for _, c := range d.cores {
		out = append(out, c)
	}
	for _, z := range d.zones {
		out = append(out, z.sensor)
	}
	return out
}

func (d *device) Refresh(ctx context.Context) error {
	if err := d.refreshTemperatures(ctx); err != nil {
		return err
	}
	if err := d.refreshLoad(ctx); err != nil {
		return err
	}
	return d.refreshPower()
}

func (d *device) refreshTemperatures(ctx context.Context) error {
	if len(d.temps) == 0 {
		return nil
	}

	temps, err := d.stats.temperatures(ctx)
	if err != nil && len(temps) == 0 {
		return errors.New().Wrap(ErrTemperatureFailed, err)
	}

	byID := make(map[tempID]float64, len(temps))
	seen := make(map[string]int, len(temps))
	for _, t := range temps {
		byID[tempID{key: t.SensorKey, socket: seen[t.SensorKey]}] = t.Temperature
		seen[t.SensorKey]++
	}
	for _, t := range d.temps {
		if v, ok := byID[t.id]; ok {
			t.sensor.Set(v)
		}
	}

	return nil
}

func (d *device) refreshLoad(ctx context.Context) error {
	errFactory := errors.New()

	total, err := d.stats.percent(ctx, false)
	if err != nil {
		return errFactory.Wrap(ErrLoadFailed, err)
	}
	if len(total) > 0 {
		d.total.Set(total[0])
	}

	perCore, err := d.stats.percent(ctx, true)
	if err != nil {
		return errFactory.Wrap(ErrLoadFailed, err)
	}
	for i, c := range d.cores {
		if i < len(perCore) {
			c.Set(perCore[i])
		}
	}

	return nil
}

func (d *device) refreshPower() error {
	for _, z := range d.zones {
		if err := z.sample(); err != nil {
			return errors.New().Wrap(ErrPowerFailed, err)
		}
	}
	return nil
}

// temperatureKeys selects CPU chip sensors: cores first, by socket and then
// in numeric order, and package-level sensors last, by socket.
func temperatureKeys(temps []sensors.TemperatureStat) []tempID {
	var cores, packages []tempID
	seen := make(map[string]int, len(temps))
	for _, t := range temps {
		id := tempID{key: t.SensorKey, socket: seen[t.SensorKey]}
		seen[t.SensorKey]++
		if !isCPUChip(id.key) {
			continue
		}

		if isPackage(id.key) {
			packages = append(packages, id)
		} else {
			cores = append(cores, id)
		}
	}

	sort.SliceStable(cores, func(i, j int) bool {
		if cores[i].socket != cores[j].socket {
			return cores[i].socket < cores[j].socket
		}
		pi, ni := splitNumber(cores[i].key)
		pj, nj := splitNumber(cores[j].key)
		if pi != pj {
			return pi < pj
		}
		return ni < nj
	})
	sort.SliceStable(packages, func(i, j int) bool {
		return packages[i].socket < packages[j].socket
	})

	return append(cores, packages...)
}

func isCPUChip(key string) bool {
	lower := strings.ToLower(key)
	for _, chip := range cpuChips {
		if strings.HasPrefix(lower, chip) {
			return true
		}
	}
	return false
}

func isPackage(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "package") ||
		strings.Contains(lower, "tctl") ||
		strings.Contains(lower, "tdie")
}

// splitNumber splits a trailing integer off key, e.g. "coretemp_core_10"
// becomes ("coretemp_core_", 10).
func splitNumber(key string) (string, int) {
	i := len(key)
	for i > 0 && key[i-1] >= '0' && key[i-1] <= '9' {
		i--
	}
	n, err := strconv.Atoi(key[i:])
	if err != nil {
		return key, -1
	}
	return key[:i], n
}

func temperatureName(key string) string {
	if isPackage(key) {
		return "CPU Package"
	}
	lower := strings.ToLower(key)
	_, n := splitNumber(key)
	switch {
	case n >= 0 && strings.Contains(lower, "core"):
		return fmt.Sprintf("CPU Core #%d", n+1)
	case n >= 0 && strings.Contains(lower, "ccd"):
		return fmt.Sprintf("CPU CCD #%d", n)
	}
	return "CPU " + key
}
