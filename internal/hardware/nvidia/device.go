package nvidia

import (
	"context"
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"codeberg.org/mutker/hwmonitor/internal/errors"
	"codeberg.org/mutker/hwmonitor/internal/hardware"
)

const milliWattsToWatts = 1000

// pcieLaneMBps is the usable per-lane bandwidth of each PCIe generation.
var pcieLaneMBps = map[int]float64{
	1: 250,
	2: 500,
	3: 985,
	4: 1969,
	5: 3938,
	6: 7563,
}

type device struct {
	handle nvml.Device
	name   string

	temperature  *hardware.BasicSensor
	core         *hardware.BasicSensor
	frameBuffer  *hardware.BasicSensor
	videoEngine  *hardware.BasicSensor
	busInterface *hardware.BasicSensor
	memory       *hardware.BasicSensor
	power        *hardware.BasicSensor
	fans         []*hardware.BasicSensor

	sensors []hardware.Sensor
}

// newDevice lays out the sensors: core temperature, the five loads (core,
// frame buffer, video engine, bus interface, memory), power draw when the
// board reports it, then one speed sensor per fan.
func newDevice(handle nvml.Device, index int) *device {
	d := &device{
		handle:       handle,
		temperature:  hardware.NewSensor("GPU Core", hardware.Temperature),
		core:         hardware.NewSensor("GPU Core", hardware.Load),
		frameBuffer:  hardware.NewSensor("GPU Frame Buffer", hardware.Load),
		videoEngine:  hardware.NewSensor("GPU Video Engine", hardware.Load),
		busInterface: hardware.NewSensor("GPU Bus Interface", hardware.Load),
		memory:       hardware.NewSensor("GPU Memory", hardware.Load),
	}

	if name, ret := handle.GetName(); IsNVMLSuccess(ret) {
		d.name = name
	} else {
		d.name = fmt.Sprintf("NVIDIA GPU #%d", index)
	}

	readings := []*hardware.BasicSensor{
		d.temperature,
		d.core, d.frameBuffer, d.videoEngine, d.busInterface, d.memory,
	}
	if _, ret := handle.GetPowerUsage(); ret != nvml.ERROR_NOT_SUPPORTED {
		d.power = hardware.NewSensor("GPU Power", hardware.Power)
		readings = append(readings, d.power)
	}
	if count, ret := handle.GetNumFans(); IsNVMLSuccess(ret) {
		for i := 0; i < count; i++ {
			fan := hardware.NewSensor(fmt.Sprintf("GPU Fan #%d", i+1), hardware.Fan)
			d.fans = append(d.fans, fan)
			readings = append(readings, fan)
		}
	}
	d.sensors = hardware.Sensors(readings)

	return d
}

func (*device) Type() hardware.HardwareType {
	return hardware.GPUNvidia
}

func (d *device) Name() string {
	return d.name
}

func (d *device) Sensors() []hardware.Sensor {
	return d.sensors
}

// Refresh reads every sensor. Queries the board does not support leave their
// sensor at its previous value.
func (d *device) Refresh(_ context.Context) error {
	errFactory := errors.New()

	temp, ret := d.handle.GetTemperature(nvml.TEMPERATURE_GPU)
	if err := check(ret); err != nil {
		return errFactory.Wrap(ErrTemperatureReadFailed, err)
	} else if IsNVMLSuccess(ret) {
		d.temperature.Set(float64(temp))
	}

	if err := d.refreshLoad(); err != nil {
		return errFactory.Wrap(ErrLoadReadFailed, err)
	}

	if d.power != nil {
		mw, ret := d.handle.GetPowerUsage()
		if err := check(ret); err != nil {
			return errFactory.Wrap(ErrPowerReadFailed, err)
		} else if IsNVMLSuccess(ret) {
			d.power.Set(float64(mw) / milliWattsToWatts)
		}
	}

	for i, fan := range d.fans {
		speed, ret := d.handle.GetFanSpeed_v2(i)
		if err := check(ret); err != nil {
			return errFactory.Wrap(ErrFanReadFailed, err)
		} else if IsNVMLSuccess(ret) {
			fan.Set(float64(speed))
		}
	}

	return nil
}

func (d *device) refreshLoad() error {
	util, ret := d.handle.GetUtilizationRates()
	if err := check(ret); err != nil {
		return err
	} else if IsNVMLSuccess(ret) {
		d.core.Set(float64(util.Gpu))
		d.frameBuffer.Set(float64(util.Memory))
	}

	enc, _, encRet := d.handle.GetEncoderUtilization()
	if err := check(encRet); err != nil {
		return err
	}
	dec, _, decRet := d.handle.GetDecoderUtilization()
	if err := check(decRet); err != nil {
		return err
	}
	if IsNVMLSuccess(encRet) || IsNVMLSuccess(decRet) {
		d.videoEngine.Set(float64(max(enc, dec)))
	}

	if v, ok, err := d.busLoad(); err != nil {
		return err
	} else if ok {
		d.busInterface.Set(v)
	}

	mem, ret := d.handle.GetMemoryInfo()
	if err := check(ret); err != nil {
		return err
	} else if IsNVMLSuccess(ret) && mem.Total > 0 {
		d.memory.Set(float64(mem.Used) / float64(mem.Total) * 100)
	}

	return nil
}

// busLoad is the busier PCIe direction as a percentage of the current link
// bandwidth.
func (d *device) busLoad() (float64, bool, error) {
	gen, ret := d.handle.GetCurrPcieLinkGeneration()
	if err := check(ret); err != nil || !IsNVMLSuccess(ret) {
		return 0, false, err
	}
	width, ret := d.handle.GetCurrPcieLinkWidth()
	if err := check(ret); err != nil || !IsNVMLSuccess(ret) {
		return 0, false, err
	}
	lane, ok := pcieLaneMBps[gen]
	if !ok || width <= 0 {
		return 0, false, nil
	}

	tx, ret := d.handle.GetPcieThroughput(nvml.PCIE_UTIL_TX_BYTES)
	if err := check(ret); err != nil || !IsNVMLSuccess(ret) {
		return 0, false, err
	}
	rx, ret := d.handle.GetPcieThroughput(nvml.PCIE_UTIL_RX_BYTES)
	if err := check(ret); err != nil || !IsNVMLSuccess(ret) {
		return 0, false, err
	}

	// Throughput is reported in KB/s.
	bandwidthKBps := lane * 1000 * float64(width)
	load := float64(max(tx, rx)) / bandwidthKBps * 100

	return min(load, 100), true, nil
}

// check turns an NVML return into an error, treating unsupported queries as
// success without a value.
func check(ret nvml.Return) error {
	if ret == nvml.ERROR_NOT_SUPPORTED {
		return nil
	}
	return newNVMLError(ret)
}
