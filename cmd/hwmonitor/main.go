package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"codeberg.org/mutker/hwmonitor/internal/config"
	"codeberg.org/mutker/hwmonitor/internal/errors"
	"codeberg.org/mutker/hwmonitor/internal/hardware"
	"codeberg.org/mutker/hwmonitor/internal/hardware/host"
	"codeberg.org/mutker/hwmonitor/internal/hardware/nvidia"
	"codeberg.org/mutker/hwmonitor/internal/index"
	"codeberg.org/mutker/hwmonitor/internal/logger"
	"codeberg.org/mutker/hwmonitor/internal/pid"
	"codeberg.org/mutker/hwmonitor/internal/report"
	"codeberg.org/mutker/hwmonitor/internal/sink"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%v\n", errors.New().Wrap(errors.ErrInitApp, err))
		os.Exit(1)
	}

	level, _ := logger.ParseLevel(cfg.LogLevel.String())
	logger.Init(level, logger.IsService())
	logger.Debug().Interface("config", cfg).Msg("Config loaded")

	if err := run(cfg); err != nil {
		logger.ErrorWithCode(errors.New().Wrap(errors.ErrMainLoop, err)).
			Str("cause_code", string(errors.CodeOf(err))).
			Msg("hwmonitor stopped")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	pidFile := pid.New()
	if err := pidFile.Write(); err != nil {
		return err
	}
	defer func() {
		if err := pidFile.Remove(); err != nil {
			logger.Warn().Err(err).Msg("failed to remove PID file")
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	computer := hardware.NewComputer(sources(cfg)...)
	if err := computer.Open(ctx, hardware.Options{
		CPU:     cfg.CPU,
		GPU:     cfg.GPU,
		Timeout: cfg.ProviderTimeout,
	}); err != nil {
		return err
	}
	defer func() {
		if err := computer.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close hardware")
		}
	}()

	devices := computer.Devices()
	cpuIndex := index.Build(devices, hardware.CPU)
	gpuIndex := index.Build(devices, gpuType(cfg.GPUVendor))
	logger.Info().Object("index", cpuIndex).Msg("CPU sensors indexed")
	logger.Info().Object("index", gpuIndex).Msg("GPU sensors indexed")

	out, err := sinks(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close output")
		}
	}()

	kinds, err := reportKinds(cfg.Reports)
	if err != nil {
		return err
	}

	engine := report.New(computer, cpuIndex, gpuIndex,
		report.WithSink(out),
		report.WithKinds(kinds...),
		report.WithTimeout(cfg.ProviderTimeout),
		report.WithRetries(cfg.ProviderRetries),
	)

	logger.Info().Dur("interval", cfg.Interval).Strs("reports", cfg.Reports).Msg("Monitoring started")
	if err := engine.Run(ctx, cfg.Interval); err != nil {
		return err
	}
	logger.Info().Msg("Received termination signal.")

	return nil
}

func sources(cfg *config.Config) []hardware.Source {
	srcs := []hardware.Source{host.NewSource()}
	if cfg.GPUVendor == config.VendorNvidia {
		srcs = append(srcs, nvidia.NewSource())
	}
	return srcs
}

func gpuType(v config.Vendor) hardware.HardwareType {
	if v == config.VendorAMD {
		return hardware.GPUAti
	}
	return hardware.GPUNvidia
}

func reportKinds(names []string) ([]hardware.SensorType, error) {
	kinds := make([]hardware.SensorType, 0, len(names))
	for _, name := range names {
		kind, err := report.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func sinks(cfg *config.Config) (sink.Multi, error) {
	var out sink.Multi

	switch cfg.Output {
	case config.OutputConsole:
		out = append(out, sink.NewConsole(os.Stdout))
	case config.OutputJSON:
		if cfg.JSONPath == "" {
			out = append(out, sink.NewJSONLines(os.Stdout))
			break
		}
		j, err := sink.OpenJSONLines(cfg.JSONPath)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	case config.OutputNone:
	}

	if cfg.TextfilePath != "" {
		p, err := sink.NewPrometheus(prometheus.NewRegistry(), cfg.TextfilePath)
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		out = append(out, p)
	}

	return out, nil
}
