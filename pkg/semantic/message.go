package semantic

import (
	"bytes"
	"encoding/json"
	"strings"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
	"github.com/odvcencio/logis/pkg/experiment"
)

// Separator is the line that splits the header from the metadata block.
const Separator = "---"

// separatorBlock is the separator with its surrounding blank lines.
const separatorBlock = "\n\n" + Separator + "\n\n"

// Message is the structured form of a semantic commit message.
type Message struct {
	Kind     Kind
	Summary  string
	Body     string
	Metadata map[string]any
}

// Header formats the commit header line.
func (m Message) Header() string {
	return string(m.Kind) + ": " + m.Summary
}

// Validate checks that the message can be rendered and parsed back.
func (m Message) Validate() error {
	if !m.Kind.Valid() {
		return logiserrors.Newf(logiserrors.ErrCodeFormat, "unknown commit kind %q", m.Kind)
	}
	if strings.ContainsAny(m.Summary, "\r\n") {
		return logiserrors.New(logiserrors.ErrCodeFormat, "summary must be a single line")
	}
	if strings.Contains(m.Body, separatorBlock) {
		return logiserrors.New(logiserrors.ErrCodeFormat, "body must not contain the metadata separator")
	}
	if m.Kind.CarriesMetadata() && m.Metadata == nil {
		return logiserrors.Newf(logiserrors.ErrCodeFormat, "%s commits require metadata", m.Kind)
	}
	if !m.Kind.CarriesMetadata() && m.Metadata != nil {
		return logiserrors.Newf(logiserrors.ErrCodeFormat, "%s commits cannot carry metadata", m.Kind)
	}
	return nil
}

// Render returns the full commit message text, metadata included.
func (m Message) Render() (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m.Text(true)
}

// Text formats the message without validating it. Metadata is only
// written when includeMetadata is set and there is metadata to write.
func (m Message) Text(includeMetadata bool) (string, error) {
	var b strings.Builder
	b.WriteString(m.Header())

	if m.Body != "" {
		b.WriteString("\n\n")
		b.WriteString(m.Body)
	}

	if includeMetadata && m.Metadata != nil {
		data, err := encodeMetadata(m.Metadata)
		if err != nil {
			return "", err
		}
		b.WriteString(separatorBlock)
		b.Write(data)
	}

	return b.String(), nil
}

// Parse decodes a raw commit message.
func Parse(raw string) (Message, error) {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	// git terminates messages with a newline; it is not part of the payload.
	text = strings.Trim(text, "\n")

	parts := strings.Split(text, separatorBlock)
	if len(parts) > 2 {
		return Message{}, logiserrors.New(logiserrors.ErrCodeFormat, "metadata separator appears more than once")
	}

	firstLine, rest, _ := strings.Cut(parts[0], "\n")
	token, summary, ok := strings.Cut(firstLine, ":")
	if !ok {
		return Message{}, logiserrors.New(logiserrors.ErrCodeFormat, "header is missing the kind separator ':'").
			WithContext("header", firstLine)
	}

	kind, ok := ParseKind(strings.TrimSpace(token))
	if !ok {
		return Message{}, logiserrors.Newf(logiserrors.ErrCodeFormat, "unknown commit kind %q", strings.TrimSpace(token))
	}

	msg := Message{
		Kind:    kind,
		Summary: strings.TrimSpace(summary),
		Body:    strings.Trim(rest, "\n"),
	}

	if len(parts) == 1 {
		if kind.CarriesMetadata() {
			return Message{}, logiserrors.Newf(logiserrors.ErrCodeFormat, "%s commit has no metadata section", kind)
		}
		return msg, nil
	}

	if !kind.CarriesMetadata() {
		return Message{}, logiserrors.Newf(logiserrors.ErrCodeFormat, "%s commits cannot carry a metadata section", kind)
	}

	metadata, err := decodeMetadata(parts[1])
	if err != nil {
		return Message{}, err
	}
	msg.Metadata = metadata
	return msg, nil
}

// HeaderKind reads only the kind token of raw. It succeeds for messages
// whose metadata is corrupt, which lets callers tell a broken exp commit
// from a commit that was never an experiment.
func HeaderKind(raw string) (Kind, bool) {
	firstLine, _, _ := strings.Cut(strings.TrimLeft(raw, "\r\n"), "\n")
	token, _, ok := strings.Cut(firstLine, ":")
	if !ok {
		return "", false
	}
	return ParseKind(strings.TrimSpace(token))
}

// encodeMetadata pretty-prints with a 2-space indent. Keys come out sorted
// and HTML is not escaped. Decoded numbers are json.Number and keep their
// literal text, so parse then render reproduces the input.
func encodeMetadata(metadata map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(metadata); err != nil {
		return nil, logiserrors.Wrap(err, logiserrors.ErrCodeFormat, "metadata is not JSON-encodable")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func decodeMetadata(segment string) (map[string]any, error) {
	var value any
	if err := experiment.DecodeJSON([]byte(segment), &value); err != nil {
		return nil, logiserrors.Wrap(err, logiserrors.ErrCodeFormat, "metadata is not valid JSON")
	}
	metadata, ok := value.(map[string]any)
	if !ok {
		return nil, logiserrors.New(logiserrors.ErrCodeFormat, "metadata must be a JSON object")
	}
	return metadata, nil
}
