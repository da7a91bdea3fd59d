package semantic

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
	"github.com/odvcencio/logis/pkg/experiment"
)

func sampleRun() experiment.Run {
	return experiment.Run{
		Name:            "train",
		RunID:           uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
		Hyperparameters: map[string]any{"lr": 0.001},
		Metrics:         map[string]any{"accuracy": 0.85},
		Timestamp:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRenderWireLayout(t *testing.T) {
	msg, err := Encode(sampleRun(), "run {name}")
	require.NoError(t, err)

	got, err := msg.Render()
	require.NoError(t, err)

	want := `exp: run train

---

{
  "hyperparameters": {
    "lr": 0.001
  },
  "metrics": {
    "accuracy": 0.85
  },
  "name": "train",
  "run_id": "7d444840-9dc0-11d1-b245-5ffdce74fad2",
  "timestamp": "2024-01-01T00:00:00Z"
}`
	assert.Equal(t, want, got)
}

func TestRenderWithBody(t *testing.T) {
	msg := Message{Kind: KindFix, Summary: "handle nil metrics", Body: "Longer explanation."}
	got, err := msg.Render()
	require.NoError(t, err)
	assert.Equal(t, "fix: handle nil metrics\n\nLonger explanation.", got)

	parsed, err := Parse(got)
	require.NoError(t, err)
	assert.Equal(t, msg, parsed)
}

func TestRenderDoesNotEscapeHTML(t *testing.T) {
	msg := Message{Kind: KindExperiment, Summary: "s", Metadata: map[string]any{"note": "a<b && c>d"}}
	got, err := msg.Render()
	require.NoError(t, err)
	assert.Contains(t, got, `"note": "a<b && c>d"`)
}

func TestRenderValidation(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"unknown kind", Message{Kind: "wip", Summary: "x"}},
		{"multi-line summary", Message{Kind: KindFix, Summary: "a\nb"}},
		{"exp without metadata", Message{Kind: KindExperiment, Summary: "x"}},
		{"fix with metadata", Message{Kind: KindFix, Summary: "x", Metadata: map[string]any{}}},
		{"separator in body", Message{Kind: KindChore, Summary: "x", Body: "a\n\n---\n\nb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.msg.Render()
			require.Error(t, err)
			assert.True(t, logiserrors.IsCode(err, logiserrors.ErrCodeFormat))
		})
	}
}

func TestTextWithoutMetadata(t *testing.T) {
	msg := Message{Kind: KindExperiment, Summary: "run x", Metadata: map[string]any{"a": 1.0}}
	got, err := msg.Text(false)
	require.NoError(t, err)
	assert.Equal(t, "exp: run x", got)
	assert.Equal(t, "exp: run x", msg.Header())
}

func TestRoundTrip(t *testing.T) {
	run := sampleRun()
	run.Hyperparameters["seed"] = int64(9007199254740993)
	run.Artifacts = map[string]any{"model": "out/model.bin"}
	run.Annotations = map[string]any{"tags": []any{"baseline", "cpu"}}
	run.Timestamp = time.Date(2024, 6, 30, 23, 59, 59, 987654321, time.UTC)

	msg, err := Encode(run, "{name} @ {timestamp}")
	require.NoError(t, err)

	text, err := msg.Render()
	require.NoError(t, err)
	assert.Contains(t, text, `"seed": 9007199254740993`)

	parsed, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, msg.Kind, parsed.Kind)
	assert.Equal(t, "train @ 2024-06-30T23:59:59.987654321Z", parsed.Summary)

	again, err := parsed.Render()
	require.NoError(t, err)
	assert.Equal(t, text, again, "render -> parse -> render is lossless")

	decoded, err := DecodeRun(parsed)
	require.NoError(t, err)
	assert.Equal(t, run.Name, decoded.Name)
	assert.Equal(t, run.RunID, decoded.RunID)
	assert.Equal(t, map[string]any{"lr": json.Number("0.001"), "seed": json.Number("9007199254740993")}, decoded.Hyperparameters)
	assert.Equal(t, map[string]any{"accuracy": json.Number("0.85")}, decoded.Metrics)
	assert.Equal(t, run.Artifacts, decoded.Artifacts)
	assert.Equal(t, run.Annotations, decoded.Annotations)
	assert.True(t, run.Timestamp.Equal(decoded.Timestamp))

	reencoded, err := Encode(decoded, "{name} @ {timestamp}")
	require.NoError(t, err)
	reencodedText, err := reencoded.Render()
	require.NoError(t, err)
	assert.Equal(t, text, reencodedText, "decoded runs encode back to the same message")
}

func TestParseRenderKeepsNumberText(t *testing.T) {
	raw := "exp: big\n\n---\n\n{\n  \"hyperparameters\": {\n    \"seed\": 12345678901234567890\n  },\n  \"metrics\": {\n    \"loss\": 0.50,\n    \"tiny\": 1e-12\n  },\n  \"name\": \"big\"\n}"
	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, json.Number("12345678901234567890"), msg.Metadata["hyperparameters"].(map[string]any)["seed"])

	again, err := msg.Render()
	require.NoError(t, err)
	assert.Equal(t, raw, again)
}

func TestParseToleratesTrailingNewlineAndCRLF(t *testing.T) {
	msg, err := Parse("exp: run a\r\n\r\n---\r\n\r\n{\"metrics\": {\"x\": 1}}\n")
	require.NoError(t, err)
	assert.Equal(t, KindExperiment, msg.Kind)
	assert.Equal(t, "run a", msg.Summary)
	assert.Equal(t, map[string]any{"metrics": map[string]any{"x": json.Number("1")}}, msg.Metadata)
}

func TestParseIgnoresLeadingBlankLines(t *testing.T) {
	raw := "\n\nexp: run a\n\n---\n\n{\"name\": \"a\", \"hyperparameters\": {\"lr\": 1}, \"metrics\": {\"x\": 2}}"
	kind, ok := HeaderKind(raw)
	require.True(t, ok)
	assert.Equal(t, KindExperiment, kind)

	msg, run, err := ParseRun(raw)
	require.NoError(t, err)
	assert.Equal(t, "run a", msg.Summary)
	assert.Equal(t, "a", run.Name)
}

func TestParseNonExperimentKinds(t *testing.T) {
	for _, kind := range Kinds() {
		if kind.CarriesMetadata() {
			continue
		}
		msg, err := Parse(string(kind) + ": something\n")
		require.NoError(t, err, kind)
		assert.Equal(t, kind, msg.Kind)
		assert.Equal(t, "something", msg.Summary)
		assert.Nil(t, msg.Metadata)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unknown kind", "wip: stuff"},
		{"missing colon", "exp run a\n\n---\n\n{}"},
		{"exp without metadata", "exp: run a"},
		{"exp with body only", "exp: run a\n\nsome body"},
		{"fix with metadata", "fix: bug\n\n---\n\n{}"},
		{"two separators", "exp: a\n\n---\n\n{}\n\n---\n\n{}"},
		{"invalid json", "exp: a\n\n---\n\n{not json"},
		{"metadata not an object", "exp: a\n\n---\n\n[1, 2]"},
		{"null metadata", "exp: a\n\n---\n\nnull"},
		{"empty message", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.Error(t, err)
			assert.True(t, logiserrors.IsCode(err, logiserrors.ErrCodeFormat), "got %v", err)
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, token := range []string{"exp", "fix", "feat", "chore", "tooling", "refactor"} {
		k, ok := ParseKind(token)
		assert.True(t, ok, token)
		assert.Equal(t, token, k.String())
	}
	_, ok := ParseKind("EXP")
	assert.False(t, ok)
	assert.False(t, Kind("").Valid())
}

func TestHeaderKind(t *testing.T) {
	k, ok := HeaderKind("exp: broken\n\n---\n\n{oops")
	assert.True(t, ok)
	assert.Equal(t, KindExperiment, k)

	k, ok = HeaderKind("fix: thing")
	assert.True(t, ok)
	assert.Equal(t, KindFix, k)

	_, ok = HeaderKind("Initial commit")
	assert.False(t, ok)

	_, ok = HeaderKind("Merge branch 'main': conflicts")
	assert.False(t, ok)
}
