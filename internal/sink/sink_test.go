package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/hwmonitor/internal/errors"
	"codeberg.org/mutker/hwmonitor/internal/hardware"
	"codeberg.org/mutker/hwmonitor/internal/report"
)

func testCycle() report.Cycle {
	return report.Cycle{
		Seq:  3,
		Time: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Reports: []report.Report{{
			Domain: report.CPU,
			Kind:   hardware.Temperature,
			Readings: []report.Reading{
				{Domain: report.CPU, Kind: hardware.Temperature, Label: "core #1", Sensor: "CPU Core #1", Value: 45, Unit: "°C"},
				{Domain: report.CPU, Kind: hardware.Temperature, Label: "package", Sensor: "CPU Package", Value: 51.5, Unit: "°C"},
			},
		}},
		Skipped: []report.Skip{{Domain: report.GPU, Kind: hardware.Temperature}},
	}
}

func TestConsoleEmit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsole(&buf).Emit(context.Background(), testCycle()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "CPU temperature", lines[0])
	assert.Contains(t, lines[1], "core #1")
	assert.Contains(t, lines[1], "45.0 °C")
	assert.Contains(t, lines[1], "CPU Core #1")
	assert.Contains(t, lines[2], "package")
	assert.Contains(t, lines[2], "51.5 °C")
	assert.Equal(t, "GPU temperature: initialization failed", lines[3])
}

func TestConsoleEmptyCycle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsole(&buf).Emit(context.Background(), report.Cycle{}))
	assert.Empty(t, buf.String())
}

func TestJSONLinesEmit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONLines(&buf).Emit(context.Background(), testCycle()))

	var records []map[string]any
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 3)

	assert.Equal(t, "cpu", records[0]["domain"])
	assert.Equal(t, "temperature", records[0]["kind"])
	assert.Equal(t, "core #1", records[0]["label"])
	assert.Equal(t, "CPU Core #1", records[0]["sensor"])
	assert.Equal(t, 45.0, records[0]["value"])
	assert.Equal(t, "°C", records[0]["unit"])
	assert.Equal(t, 3.0, records[0]["seq"])
	assert.Equal(t, "2024-05-01T12:00:00Z", records[0]["time"])

	assert.Equal(t, "package", records[1]["label"])

	assert.Equal(t, "gpu", records[2]["domain"])
	assert.Equal(t, "not_initialized", records[2]["status"])
	assert.NotContains(t, records[2], "value")
}

func TestOpenJSONLinesAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.jsonl")

	for i := 0; i < 2; i++ {
		j, err := OpenJSONLines(path)
		require.NoError(t, err)
		require.NoError(t, j.Emit(context.Background(), testCycle()))
		require.NoError(t, j.Close())
		require.NoError(t, j.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(string(data), "\n"))
}

func TestOpenJSONLinesFailure(t *testing.T) {
	_, err := OpenJSONLines(filepath.Join(t.TempDir(), "missing", "readings.jsonl"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrOpenFailed))
}

func TestPrometheusEmit(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg, "")
	require.NoError(t, err)

	require.NoError(t, p.Emit(context.Background(), testCycle()))
	require.NoError(t, p.Emit(context.Background(), testCycle()))

	assert.Equal(t, 45.0, testutil.ToFloat64(p.values.WithLabelValues("cpu", "temperature", "core #1", "°C")))
	assert.Equal(t, 51.5, testutil.ToFloat64(p.values.WithLabelValues("cpu", "temperature", "package", "°C")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.skipped.WithLabelValues("gpu", "temperature")))
	assert.Equal(t, 2, testutil.CollectAndCount(p.values, "hwmonitor_sensor_value"))
}

func TestPrometheusTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwmonitor.prom")
	p, err := NewPrometheus(prometheus.NewRegistry(), path)
	require.NoError(t, err)

	require.NoError(t, p.Emit(context.Background(), testCycle()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `hwmonitor_sensor_value{domain="cpu",kind="temperature",label="package",unit="°C"} 51.5`)
	assert.Contains(t, string(data), `hwmonitor_report_skipped_total{domain="gpu",kind="temperature"} 1`)
}

func TestPrometheusDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg, "")
	require.NoError(t, err)

	_, err = NewPrometheus(reg, "")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrRegisterFailed))
}

type recordingSink struct {
	err    error
	emits  int
	closed bool
}

func (r *recordingSink) Emit(context.Context, report.Cycle) error {
	r.emits++
	return r.err
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}

func TestMultiEmitsToAll(t *testing.T) {
	failing := &recordingSink{err: errors.New().New(ErrWriteFailed)}
	after := &recordingSink{}
	m := Multi{failing, after}

	err := m.Emit(context.Background(), testCycle())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrWriteFailed))
	assert.Equal(t, 1, after.emits)

	require.NoError(t, m.Close())
	assert.True(t, failing.closed)
	assert.True(t, after.closed)
}
