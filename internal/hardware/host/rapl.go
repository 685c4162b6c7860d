package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/hwmonitor/internal/hardware"
	"codeberg.org/mutker/hwmonitor/internal/logger"
)

// raplZones maps powercap zone names to sensor names, in report order.
var raplZones = []struct {
	zone string
	name string
}{
	{"package-0", "CPU Package"},
	{"core", "CPU Cores"},
	{"uncore", "CPU Graphics"},
	{"dram", "CPU DRAM"},
}

// zone converts a RAPL energy counter into average watts between samples.
type zone struct {
	path     string
	maxRange uint64
	now      func() time.Time
	sensor   *hardware.BasicSensor

	last   uint64
	lastAt time.Time
	primed bool
}

// discoverZones finds the first RAPL package domain and its subzones under
// root. Zones whose counters cannot be read are left out.
func discoverZones(root string, now func() time.Time) []*zone {
	pkg := filepath.Join(root, "intel-rapl:0")
	if name, err := readString(filepath.Join(pkg, "name")); err != nil || name != "package-0" {
		logger.Debug().Str("path", pkg).Msg("No RAPL package zone")
		return nil
	}

	byName := map[string]string{"package-0": pkg}
	subzones, _ := filepath.Glob(filepath.Join(root, "intel-rapl:0:*"))
	for _, dir := range subzones {
		name, err := readString(filepath.Join(dir, "name"))
		if err != nil {
			continue
		}
		if _, dup := byName[name]; !dup {
			byName[name] = dir
		}
	}

	var zones []*zone
	for _, rz := range raplZones {
		dir, ok := byName[rz.zone]
		if !ok {
			continue
		}
		if _, err := readUint(filepath.Join(dir, "energy_uj")); err != nil {
			logger.Debug().Err(err).Str("zone", rz.zone).Msg("RAPL zone not readable")
			continue
		}
		maxRange, _ := readUint(filepath.Join(dir, "max_energy_range_uj"))
		zones = append(zones, &zone{
			path:     dir,
			maxRange: maxRange,
			now:      now,
			sensor:   hardware.NewSensor(rz.name, hardware.Power),
		})
	}

	return zones
}

// sample reads the energy counter and stores the average power since the
// previous sample. The first sample only primes the counter, and so does a
// counter that went backwards without a known wrap range.
func (z *zone) sample() error {
	energy, err := readUint(filepath.Join(z.path, "energy_uj"))
	if err != nil {
		return err
	}
	at := z.now()

	if z.primed {
		if delta, ok := z.delta(energy); ok {
			if elapsed := at.Sub(z.lastAt).Seconds(); elapsed > 0 {
				z.sensor.Set(float64(delta) / 1e6 / elapsed)
			}
		}
	}

	z.last = energy
	z.lastAt = at
	z.primed = true

	return nil
}

// delta is the energy used since the last sample, allowing for one counter
// wrap at maxRange.
func (z *zone) delta(energy uint64) (uint64, bool) {
	if energy >= z.last {
		return energy - z.last, true
	}
	if z.maxRange == 0 || z.last > z.maxRange {
		logger.Debug().Str("path", z.path).Msg("RAPL counter went backwards, resampling")
		return 0, false
	}
	return z.maxRange - z.last + energy, true
}

func readString(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func readUint(path string) (uint64, error) {
	s, err := readString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
