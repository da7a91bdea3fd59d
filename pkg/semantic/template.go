package semantic

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
	"github.com/odvcencio/logis/pkg/experiment"
)

// DefaultTemplate is the summary template used when none is configured.
const DefaultTemplate = "run {name}"

// ExpandTemplate substitutes {placeholder} references with fields of run.
//
// Supported placeholders are {name}, {experiment}, {run_id}, {timestamp} and
// dotted lookups into {hyperparameters.key}, {metrics.key}, {artifacts.key}
// and {annotations.key}. Use {{ and }} for literal braces.
func ExpandTemplate(tmpl string, run experiment.Run) (string, error) {
	var b strings.Builder

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", templateError("unterminated placeholder", tmpl)
			}
			key := strings.TrimSpace(tmpl[i+1 : i+1+end])
			value, err := resolvePlaceholder(key, run)
			if err != nil {
				return "", err
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", templateError("unmatched '}'", tmpl)
		default:
			b.WriteByte(c)
		}
	}

	out := b.String()
	if strings.ContainsAny(out, "\r\n") {
		return "", templateError("expanded summary spans multiple lines", tmpl)
	}
	return out, nil
}

func resolvePlaceholder(key string, run experiment.Run) (string, error) {
	switch key {
	case "name", "experiment":
		return run.Name, nil
	case "run_id":
		return run.RunID.String(), nil
	case "timestamp":
		return experiment.FormatTimestamp(run.Timestamp), nil
	}

	section, path, ok := strings.Cut(key, ".")
	if !ok || path == "" {
		return "", unknownPlaceholder(key)
	}

	var fields map[string]any
	switch section {
	case "hyperparameters":
		fields = run.Hyperparameters
	case "metrics":
		fields = run.Metrics
	case "artifacts":
		fields = run.Artifacts
	case "annotations":
		fields = run.Annotations
	default:
		return "", unknownPlaceholder(key)
	}

	var current any = fields
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return "", unknownPlaceholder(key)
		}
		current, ok = m[segment]
		if !ok {
			return "", unknownPlaceholder(key)
		}
	}
	return formatPlaceholderValue(current)
}

func formatPlaceholderValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", logiserrors.Wrap(err, logiserrors.ErrCodeTemplate, "placeholder value is not JSON-encodable")
	}
	return string(data), nil
}

func templateError(message, tmpl string) error {
	return logiserrors.New(logiserrors.ErrCodeTemplate, message).WithContext("template", tmpl)
}

func unknownPlaceholder(key string) error {
	return logiserrors.Newf(logiserrors.ErrCodeTemplate, "unknown template field %q", key).
		WithRemediation(
			"Use {name}, {run_id}, {timestamp} or a dotted field such as {metrics.accuracy}",
			"Escape literal braces as {{ and }}",
		)
}
