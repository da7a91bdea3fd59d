// Package experiment defines the experiment run record that is persisted in
// semantic commits, and the builder user code fills in while it runs.
package experiment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
)

// TimestampFormat is the canonical instant encoding: RFC 3339 with
// nanoseconds, always in UTC (rendered with a trailing "Z").
const TimestampFormat = time.RFC3339Nano

// Run is one execution of an experiment.
//
// Values in the maps must be JSON-compatible. Numbers come back from a
// commit as json.Number, so integers wider than 53 bits stay exact.
type Run struct {
	Name            string
	RunID           uuid.UUID
	Hyperparameters map[string]any
	Metrics         map[string]any
	Artifacts       map[string]any
	Annotations     map[string]any
	Timestamp       time.Time
}

// NewRun creates a run with a fresh id, stamped with the current time.
func NewRun(name string, hyperparameters, metrics map[string]any) Run {
	return Run{
		Name:            name,
		RunID:           uuid.New(),
		Hyperparameters: hyperparameters,
		Metrics:         metrics,
		Timestamp:       time.Now().UTC().Round(0),
	}
}

// Validate checks the invariants required before a run can be committed.
func (r Run) Validate() error {
	if len(r.Hyperparameters) == 0 {
		return logiserrors.New(logiserrors.ErrCodeValidation, "hyperparameters are required").
			WithContext("run", r.Name)
	}
	if len(r.Metrics) == 0 {
		return logiserrors.New(logiserrors.ErrCodeValidation, "metrics are required").
			WithContext("run", r.Name)
	}
	return nil
}

// FormatTimestamp renders t in the canonical instant format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// ParseTimestamp parses the canonical instant format (plain RFC 3339 is accepted too).
func ParseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse(TimestampFormat, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

type runJSON struct {
	Name            string         `json:"name"`
	Experiment      string         `json:"experiment,omitempty"`
	RunID           string         `json:"run_id"`
	Hyperparameters map[string]any `json:"hyperparameters"`
	Metrics         map[string]any `json:"metrics"`
	Artifacts       map[string]any `json:"artifacts,omitempty"`
	Annotations     map[string]any `json:"annotations,omitempty"`
	Timestamp       string         `json:"timestamp"`
}

// MarshalJSON encodes the run with a canonical UTC timestamp.
func (r Run) MarshalJSON() ([]byte, error) {
	return json.Marshal(runJSON{
		Name:            r.Name,
		RunID:           r.RunID.String(),
		Hyperparameters: r.Hyperparameters,
		Metrics:         r.Metrics,
		Artifacts:       r.Artifacts,
		Annotations:     r.Annotations,
		Timestamp:       FormatTimestamp(r.Timestamp),
	})
}

// UnmarshalJSON decodes a run. The legacy "experiment" key is accepted as the name.
func (r *Run) UnmarshalJSON(data []byte) error {
	var raw runJSON
	if err := DecodeJSON(data, &raw); err != nil {
		return err
	}

	out := Run{
		Name:            raw.Name,
		Hyperparameters: raw.Hyperparameters,
		Metrics:         raw.Metrics,
		Artifacts:       raw.Artifacts,
		Annotations:     raw.Annotations,
	}
	if out.Name == "" {
		out.Name = raw.Experiment
	}
	if id := strings.TrimSpace(raw.RunID); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("invalid run_id %q: %w", id, err)
		}
		out.RunID = parsed
	}
	if ts := strings.TrimSpace(raw.Timestamp); ts != "" {
		parsed, err := ParseTimestamp(ts)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
		out.Timestamp = parsed
	}

	*r = out
	return nil
}

// ToMap returns the JSON-shaped form of the run.
func (r Run) ToMap() (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := DecodeJSON(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ObjectMap converts a JSON-object-shaped Go value (struct, map) into a map.
func ObjectMap(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, logiserrors.Wrap(err, logiserrors.ErrCodeValidation, "value is not JSON-encodable")
	}
	var out map[string]any
	if err := DecodeJSON(data, &out); err != nil || out == nil {
		return nil, logiserrors.Newf(logiserrors.ErrCodeValidation, "value of type %T does not encode as a JSON object", v)
	}
	return out, nil
}

// DecodeJSON unmarshals a single JSON value into v. Numbers decode as
// json.Number rather than float64.
func DecodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

// Float64 converts a decoded or native numeric value to float64.
func Float64(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	}
	return 0, false
}
