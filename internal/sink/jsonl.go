package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"codeberg.org/mutker/hwmonitor/internal/errors"
	"codeberg.org/mutker/hwmonitor/internal/report"
)

type readingRecord struct {
	Time   time.Time `json:"time"`
	Seq    uint64    `json:"seq"`
	Domain string    `json:"domain"`
	Kind   string    `json:"kind"`
	Label  string    `json:"label"`
	Sensor string    `json:"sensor"`
	Value  float64   `json:"value"`
	Unit   string    `json:"unit"`
}

type skipRecord struct {
	Time   time.Time `json:"time"`
	Seq    uint64    `json:"seq"`
	Domain string    `json:"domain"`
	Kind   string    `json:"kind"`
	Status string    `json:"status"`
}

const statusNotInitialized = "not_initialized"

// JSONLines writes one JSON object per reading, and one per skipped report.
type JSONLines struct {
	enc    *json.Encoder
	closer io.Closer
}

func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

// OpenJSONLines appends to the file at path, creating it if needed.
func OpenJSONLines(path string) (*JSONLines, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.New().Wrap(ErrOpenFailed, err)
	}

	return &JSONLines{enc: json.NewEncoder(f), closer: f}, nil
}

func (j *JSONLines) Emit(_ context.Context, c report.Cycle) error {
	for _, rep := range c.Reports {
		for _, r := range rep.Readings {
			rec := readingRecord{
				Time:   c.Time,
				Seq:    c.Seq,
				Domain: r.Domain.String(),
				Kind:   r.Kind.String(),
				Label:  r.Label,
				Sensor: r.Sensor,
				Value:  r.Value,
				Unit:   r.Unit,
			}
			if err := j.enc.Encode(rec); err != nil {
				return errors.New().Wrap(ErrWriteFailed, err)
			}
		}
	}

	for _, s := range c.Skipped {
		rec := skipRecord{
			Time:   c.Time,
			Seq:    c.Seq,
			Domain: s.Domain.String(),
			Kind:   s.Kind.String(),
			Status: statusNotInitialized,
		}
		if err := j.enc.Encode(rec); err != nil {
			return errors.New().Wrap(ErrWriteFailed, err)
		}
	}

	return nil
}

func (j *JSONLines) Close() error {
	if j.closer == nil {
		return nil
	}
	if err := j.closer.Close(); err != nil {
		return errors.New().Wrap(ErrCloseFailed, err)
	}
	j.closer = nil

	return nil
}
