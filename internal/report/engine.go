// Package report reads indexed sensor values into structured reports and
// drives the periodic read, emit, refresh cycle.
package report

import (
	"context"
	"time"

	"codeberg.org/mutker/hwmonitor/internal/errors"
	"codeberg.org/mutker/hwmonitor/internal/hardware"
	"codeberg.org/mutker/hwmonitor/internal/index"
	"codeberg.org/mutker/hwmonitor/internal/logger"
)

// Engine owns the CPU and GPU indexes and reads sensor values through the
// provider by slot. It is not safe for concurrent use; every call is expected
// to come from the goroutine running Run.
type Engine struct {
	provider hardware.Provider
	cpu      index.CategoryIndex
	gpu      index.CategoryIndex
	sink     Sink
	kinds    []hardware.SensorType
	timeout  time.Duration
	retries  int
	now      func() time.Time
	seq      uint64

	// pending holds, per device slot, a refresh abandoned after a timeout.
	// Its channel closes when the provider call returns.
	pending map[int]<-chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink sets where Run emits each cycle.
func WithSink(s Sink) Option {
	return func(e *Engine) {
		if s != nil {
			e.sink = s
		}
	}
}

// WithKinds sets the report kinds produced each cycle.
func WithKinds(kinds ...hardware.SensorType) Option {
	return func(e *Engine) {
		if len(kinds) > 0 {
			e.kinds = kinds
		}
	}
}

// WithTimeout bounds every provider refresh call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithRetries sets how many times a failed refresh is retried.
func WithRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.retries = n
		}
	}
}

// WithClock overrides the cycle timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(provider hardware.Provider, cpu, gpu index.CategoryIndex, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		cpu:      cpu,
		gpu:      gpu,
		sink:     nopSink{},
		kinds:    []hardware.SensorType{hardware.Temperature},
		now:      time.Now,
		pending:  make(map[int]<-chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index returns the index held for a domain.
func (e *Engine) Index(d Domain) index.CategoryIndex {
	if d == GPU {
		return e.gpu
	}
	return e.cpu
}

func (e *Engine) ReportTemperature(d Domain) (Report, error) {
	return e.Report(d, hardware.Temperature)
}

func (e *Engine) ReportLoad(d Domain) (Report, error) {
	return e.Report(d, hardware.Load)
}

func (e *Engine) ReportPower(d Domain) (Report, error) {
	return e.Report(d, hardware.Power)
}

// Report reads the indexed sensors of one kind for a domain. It returns an
// ErrNotInitialized error, without touching the provider, when the domain
// has no sensors of that kind.
func (e *Engine) Report(d Domain, kind hardware.SensorType) (Report, error) {
	errFactory := errors.New()

	idx := e.Index(d)
	slots := idx.Slots(kind)
	if len(slots) == 0 {
		return Report{}, errFactory.WithData(ErrNotInitialized, struct {
			Domain string
			Kind   string
		}{
			Domain: d.String(),
			Kind:   kind.String(),
		})
	}

	deviceSlot, _ := idx.DeviceSlot()
	devices := e.provider.Devices()
	if deviceSlot >= len(devices) {
		return Report{}, errFactory.WithData(ErrStaleIndex, struct {
			Domain     string
			DeviceSlot int
			Devices    int
		}{
			Domain:     d.String(),
			DeviceSlot: deviceSlot,
			Devices:    len(devices),
		})
	}
	sensors := devices[deviceSlot].Sensors()

	entries := layout(d, kind, len(slots))
	r := Report{
		Domain:   d,
		Kind:     kind,
		Readings: make([]Reading, 0, len(entries)),
	}
	for _, ent := range entries {
		slot := slots[ent.pos]
		if slot >= len(sensors) {
			return Report{}, errFactory.WithData(ErrStaleIndex, struct {
				Domain     string
				SensorSlot int
				Sensors    int
			}{
				Domain:     d.String(),
				SensorSlot: slot,
				Sensors:    len(sensors),
			})
		}
		s := sensors[slot]
		r.Readings = append(r.Readings, Reading{
			Domain: d,
			Kind:   kind,
			Label:  ent.label,
			Sensor: s.Name(),
			Value:  s.Value(),
			Unit:   Unit(kind),
		})
	}

	return r, nil
}

// RefreshAll refreshes every device referenced by a set device slot. A device
// shared by both domains is refreshed once.
func (e *Engine) RefreshAll(ctx context.Context) error {
	errFactory := errors.New()

	var devices []hardware.Device
	refreshed := make(map[int]bool, 2)
	for _, d := range Domains {
		slot, ok := e.Index(d).DeviceSlot()
		if !ok || refreshed[slot] {
			continue
		}
		refreshed[slot] = true

		if devices == nil {
			devices = e.provider.Devices()
		}
		if slot >= len(devices) {
			return errFactory.WithData(ErrStaleIndex, struct {
				Domain     string
				DeviceSlot int
			}{
				Domain:     d.String(),
				DeviceSlot: slot,
			})
		}

		dev := devices[slot]
		if err := e.refresh(ctx, slot, dev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.HasCode(err, hardware.ErrTimeout) {
				return err
			}
			return errFactory.Wrap(hardware.ErrRefreshFailed, err).WithData(struct {
				Device string
				Slot   int
				Error  string
			}{
				Device: dev.Name(),
				Slot:   slot,
				Error:  err.Error(),
			})
		}
	}

	return nil
}

// refresh calls dev.Refresh with retries. A call abandoned on timeout is
// never retried, and the device is not refreshed again until that call
// returns, so provider calls on one device never overlap.
func (e *Engine) refresh(ctx context.Context, slot int, dev hardware.Device) error {
	if pending, ok := e.pending[slot]; ok {
		select {
		case <-pending:
			delete(e.pending, slot)
		default:
			return errors.New().WithData(hardware.ErrTimeout, struct {
				Device string
				Reason string
			}{
				Device: dev.Name(),
				Reason: "previous refresh still running",
			})
		}
	}

	var err error
	for attempt := 0; attempt <= e.retries; attempt++ {
		var pending <-chan struct{}
		pending, err = hardware.Call(ctx, e.timeout, dev.Refresh)
		if err == nil {
			return nil
		}
		if pending != nil {
			e.pending[slot] = pending
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		logger.Debug().
			Err(err).
			Str("device", dev.Name()).
			Int("attempt", attempt+1).
			Msg("Device refresh failed")
	}
	return err
}

// Cycle produces one report per configured kind for each domain. Domains with
// nothing indexed for a kind are recorded as skips.
func (e *Engine) Cycle() (Cycle, error) {
	e.seq++
	c := Cycle{Seq: e.seq, Time: e.now()}

	for _, d := range Domains {
		for _, kind := range e.kinds {
			r, err := e.Report(d, kind)
			if errors.HasCode(err, ErrNotInitialized) {
				logger.Warn().
					Str("domain", d.String()).
					Str("kind", kind.String()).
					Msg("Initialization failed")
				c.Skipped = append(c.Skipped, Skip{Domain: d, Kind: kind})
				continue
			}
			if err != nil {
				return c, err
			}
			c.Reports = append(c.Reports, r)
		}
	}

	return c, nil
}

// Run reports, emits, refreshes and then waits interval, until ctx is
// cancelled. Provider and sink failures end the loop with an error;
// cancellation ends it with nil.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	errFactory := errors.New()

	if interval <= 0 {
		return errFactory.WithData(ErrInvalidInterval, interval.String())
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		if err := e.step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(interval)

		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}

func (e *Engine) step(ctx context.Context) error {
	c, err := e.Cycle()
	if err != nil {
		return err
	}

	if err := e.sink.Emit(ctx, c); err != nil {
		return errors.New().Wrap(ErrEmitFailed, err)
	}

	return e.RefreshAll(ctx)
}
