package sink

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"codeberg.org/mutker/hwmonitor/internal/errors"
	"codeberg.org/mutker/hwmonitor/internal/report"
)

// Prometheus mirrors the latest readings into gauges and, when a textfile
// path is set, writes the registry out for node_exporter's textfile
// collector after every cycle.
type Prometheus struct {
	registry *prometheus.Registry
	textfile string

	values  *prometheus.GaugeVec
	skipped *prometheus.CounterVec
}

func NewPrometheus(reg *prometheus.Registry, textfile string) (*Prometheus, error) {
	values := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hwmonitor_sensor_value",
		Help: "Latest reported sensor value.",
	}, []string{"domain", "kind", "label", "unit"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hwmonitor_report_skipped_total",
		Help: "Reports skipped because the domain has no indexed sensors of that kind.",
	}, []string{"domain", "kind"})

	for _, c := range []prometheus.Collector{values, skipped} {
		if err := reg.Register(c); err != nil {
			return nil, errors.New().Wrap(ErrRegisterFailed, err)
		}
	}

	return &Prometheus{
		registry: reg,
		textfile: textfile,
		values:   values,
		skipped:  skipped,
	}, nil
}

func (p *Prometheus) Emit(_ context.Context, c report.Cycle) error {
	for _, rep := range c.Reports {
		for _, r := range rep.Readings {
			p.values.WithLabelValues(r.Domain.String(), r.Kind.String(), r.Label, r.Unit).Set(r.Value)
		}
	}
	for _, s := range c.Skipped {
		p.skipped.WithLabelValues(s.Domain.String(), s.Kind.String()).Inc()
	}

	if p.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(p.textfile, p.registry); err != nil {
		return errors.New().Wrap(ErrTextfileFailed, err)
	}

	return nil
}
