package hardware

import (
	"context"
	"sync"

	"codeberg.org/mutker/hwmonitor/internal/errors"
	"codeberg.org/mutker/hwmonitor/internal/logger"
)

// Computer is the Provider backed by a set of hardware sources. Devices are
// discovered once in Open and listed in source order.
type Computer struct {
	sources []Source
	opened  []Source
	devices []Device
	open    bool
	mu      sync.RWMutex
}

func NewComputer(sources ...Source) *Computer {
	return &Computer{sources: sources}
}

func (c *Computer) Open(ctx context.Context, opts Options) error {
	errFactory := errors.New()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open {
		return errFactory.New(ErrAlreadyOpen)
	}

	var devices []Device
	for _, src := range c.sources {
		if !enabled(src.Type(), opts) {
			logger.Debug().Str("source", src.Type().String()).Msg("Hardware source disabled")
			continue
		}

		found, err := src.Discover(ctx)
		if err != nil {
			c.closeOpened()
			return errFactory.Wrap(ErrOpenFailed, err).WithData(struct {
				Source string
				Error  string
			}{
				Source: src.Type().String(),
				Error:  err.Error(),
			})
		}
		c.opened = append(c.opened, src)

		for _, dev := range found {
			pending, err := Call(ctx, opts.Timeout, dev.Refresh)
			if err != nil {
				if pending != nil {
					// Sources stay open under a device that is still refreshing.
					logger.Warn().Str("name", dev.Name()).Msg("Device refresh abandoned, leaving hardware sources open")
				} else {
					c.closeOpened()
				}
				return errFactory.Wrap(ErrOpenFailed, err)
			}
			logger.Info().
				Str("type", dev.Type().String()).
				Str("name", dev.Name()).
				Int("slot", len(devices)).
				Int("sensors", len(dev.Sensors())).
				Msg("Detected device")
			devices = append(devices, dev)
		}
	}

	c.devices = devices
	c.open = true

	return nil
}

// Devices returns a snapshot of the discovered device list. It is empty
// before Open.
func (c *Computer) Devices() []Device {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.open {
		logger.ErrorWithCode(errors.New().New(ErrNotOpen)).Msg("Devices listed before Open")
		return nil
	}

	out := make([]Device, len(c.devices))
	copy(out, c.devices)
	return out
}

func (c *Computer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil
	}

	err := c.closeOpened()
	c.devices = nil
	c.open = false

	return err
}

func (c *Computer) closeOpened() error {
	var first error
	for _, src := range c.opened {
		if err := src.Close(); err != nil && first == nil {
			first = errors.New().Wrap(ErrCloseFailed, err)
		}
	}
	c.opened = nil
	return first
}

func enabled(t HardwareType, opts Options) bool {
	switch {
	case t == CPU:
		return opts.CPU
	case t.IsGPU():
		return opts.GPU
	default:
		return false
	}
}
