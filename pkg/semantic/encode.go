package semantic

import (
	"encoding/json"
	"strings"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
	"github.com/odvcencio/logis/pkg/experiment"
)

// Encode builds the exp message for run. The summary is tmpl expanded
// against the run, and the metadata is the full JSON form of the run.
func Encode(run experiment.Run, tmpl string) (Message, error) {
	if err := run.Validate(); err != nil {
		return Message{}, err
	}
	if tmpl == "" {
		tmpl = DefaultTemplate
	}

	summary, err := ExpandTemplate(tmpl, run)
	if err != nil {
		return Message{}, err
	}

	metadata, err := run.ToMap()
	if err != nil {
		return Message{}, logiserrors.Wrap(err, logiserrors.ErrCodeValidation, "run is not JSON-encodable").
			WithContext("run", run.Name)
	}

	return Message{
		Kind:     KindExperiment,
		Summary:  summary,
		Metadata: metadata,
	}, nil
}

// DecodeRun rebuilds the run carried in an exp message's metadata.
func DecodeRun(msg Message) (experiment.Run, error) {
	if msg.Kind != KindExperiment {
		return experiment.Run{}, logiserrors.Newf(logiserrors.ErrCodeFormat, "%s commits do not carry a run", msg.Kind)
	}
	if msg.Metadata == nil {
		return experiment.Run{}, logiserrors.New(logiserrors.ErrCodeFormat, "exp commit has no metadata")
	}

	data, err := json.Marshal(msg.Metadata)
	if err != nil {
		return experiment.Run{}, logiserrors.Wrap(err, logiserrors.ErrCodeFormat, "metadata is not JSON-encodable")
	}
	var run experiment.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return experiment.Run{}, logiserrors.Wrap(err, logiserrors.ErrCodeFormat, "metadata does not describe a run")
	}
	if strings.TrimSpace(run.Name) == "" {
		return experiment.Run{}, logiserrors.New(logiserrors.ErrCodeFormat, "metadata has no run name")
	}
	if err := run.Validate(); err != nil {
		return experiment.Run{}, logiserrors.Wrap(err, logiserrors.ErrCodeFormat, "metadata does not describe a complete run")
	}
	return run, nil
}

// ParseRun parses raw and decodes its run in one step.
func ParseRun(raw string) (Message, experiment.Run, error) {
	msg, err := Parse(raw)
	if err != nil {
		return Message{}, experiment.Run{}, err
	}
	run, err := DecodeRun(msg)
	if err != nil {
		return Message{}, experiment.Run{}, err
	}
	return msg, run, nil
}
