package experiment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
)

func TestNewRun(t *testing.T) {
	before := time.Now().UTC()
	run := NewRun("train", map[string]any{"lr": 0.01}, map[string]any{"accuracy": 0.9})

	assert.Equal(t, "train", run.Name)
	assert.NotEqual(t, uuid.Nil, run.RunID)
	assert.Equal(t, time.UTC, run.Timestamp.Location())
	assert.False(t, run.Timestamp.Before(before.Truncate(time.Second)))

	other := NewRun("train", nil, nil)
	assert.NotEqual(t, run.RunID, other.RunID, "each run gets its own id")
}

func TestRunValidate(t *testing.T) {
	tests := []struct {
		name    string
		run     Run
		wantErr bool
	}{
		{"complete", Run{Hyperparameters: map[string]any{"a": 1}, Metrics: map[string]any{"b": 2}}, false},
		{"missing hyperparameters", Run{Metrics: map[string]any{"b": 2}}, true},
		{"empty hyperparameters", Run{Hyperparameters: map[string]any{}, Metrics: map[string]any{"b": 2}}, true},
		{"missing metrics", Run{Hyperparameters: map[string]any{"a": 1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, logiserrors.IsCode(err, logiserrors.ErrCodeValidation))
		})
	}
}

func TestRunJSONRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 30, 15, 123456789, time.UTC)
	run := Run{
		Name:            "train",
		RunID:           uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
		Hyperparameters: map[string]any{"lr": 0.001, "optimizer": "adam"},
		Metrics:         map[string]any{"accuracy": 0.85, "loss": 0.3},
		Annotations:     map[string]any{"note": "baseline"},
		Timestamp:       ts,
	}

	data, err := json.Marshal(run)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2024-03-05T14:30:15.123456789Z", raw["timestamp"])
	assert.Equal(t, "7d444840-9dc0-11d1-b245-5ffdce74fad2", raw["run_id"])
	assert.NotContains(t, raw, "artifacts", "empty optional maps are omitted")

	var decoded Run
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, run.Name, decoded.Name)
	assert.Equal(t, run.RunID, decoded.RunID)
	assert.Equal(t, map[string]any{"lr": json.Number("0.001"), "optimizer": "adam"}, decoded.Hyperparameters)
	assert.Equal(t, map[string]any{"accuracy": json.Number("0.85"), "loss": json.Number("0.3")}, decoded.Metrics)
	assert.Equal(t, run.Annotations, decoded.Annotations)
	assert.Nil(t, decoded.Artifacts)
	assert.True(t, run.Timestamp.Equal(decoded.Timestamp))
	assert.Equal(t, time.UTC, decoded.Timestamp.Location())
}

func TestRunMarshalNormalizesToUTC(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	run := Run{Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, zone)}

	data, err := json.Marshal(run)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timestamp":"2024-01-01T10:00:00Z"`)
}

func TestRunUnmarshalLegacyExperimentKey(t *testing.T) {
	var run Run
	err := json.Unmarshal([]byte(`{"experiment": "test1", "hyperparameters": {}, "metrics": {"accuracy": 0.8}}`), &run)
	require.NoError(t, err)

	assert.Equal(t, "test1", run.Name)
	assert.Equal(t, uuid.Nil, run.RunID)
	assert.True(t, run.Timestamp.IsZero())
	assert.Equal(t, json.Number("0.8"), run.Metrics["accuracy"])
}

func TestRunUnmarshalRejectsBadFields(t *testing.T) {
	var run Run
	assert.Error(t, json.Unmarshal([]byte(`{"run_id": "not-a-uuid"}`), &run))
	assert.Error(t, json.Unmarshal([]byte(`{"timestamp": "yesterday"}`), &run))
	assert.Error(t, json.Unmarshal([]byte(`[]`), &run))
}

func TestToMapKeepsIntegersExact(t *testing.T) {
	run := NewRun("n", map[string]any{"batch_size": 32, "seed": int64(9007199254740993)}, map[string]any{"epochs": int64(3)})
	m, err := run.ToMap()
	require.NoError(t, err)

	hypers := m["hyperparameters"].(map[string]any)
	assert.Equal(t, json.Number("32"), hypers["batch_size"])
	assert.Equal(t, json.Number("9007199254740993"), hypers["seed"])
}

func TestDecodeJSON(t *testing.T) {
	var v map[string]any
	require.NoError(t, DecodeJSON([]byte(` {"n": 18446744073709551615} `), &v))
	assert.Equal(t, json.Number("18446744073709551615"), v["n"])

	assert.Error(t, DecodeJSON([]byte(`{"n": 1} {"n": 2}`), &v))
	assert.Error(t, DecodeJSON([]byte(`{"n": 1}}`), &v))
	assert.Error(t, DecodeJSON([]byte(`{"n": `), &v))
}

func TestFloat64(t *testing.T) {
	for _, v := range []any{json.Number("2.5"), 2.5, float32(2.5)} {
		f, ok := Float64(v)
		assert.True(t, ok)
		assert.Equal(t, 2.5, f)
	}
	f, ok := Float64(int64(7))
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)

	_, ok = Float64("2.5")
	assert.False(t, ok)
	_, ok = Float64(json.Number("nope"))
	assert.False(t, ok)
}

func TestObjectMap(t *testing.T) {
	type hypers struct {
		LearningRate float64 `json:"learning_rate"`
		BatchSize    int     `json:"batch_size"`
	}

	m, err := ObjectMap(hypers{LearningRate: 0.1, BatchSize: 8})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"learning_rate": json.Number("0.1"), "batch_size": json.Number("8")}, m)

	direct := map[string]any{"x": 1}
	m, err = ObjectMap(direct)
	require.NoError(t, err)
	assert.Equal(t, direct, m)

	_, err = ObjectMap(42)
	require.Error(t, err)
	assert.True(t, logiserrors.IsCode(err, logiserrors.ErrCodeValidation))

	_, err = ObjectMap(func() {})
	require.Error(t, err)
}
