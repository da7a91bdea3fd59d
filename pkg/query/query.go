// Package query filters experiment commits with JMESPath expressions.
//
// Every experiment commit is exposed to the expression as a record:
//
//	{
//	  "sha": "...", "message": "...", "timestamp": "<commit time>",
//	  "kind": "exp", "summary": "...",
//	  "name": "...", "run_id": "...", "run_timestamp": "<run time>",
//	  "hyperparameters": {...}, "metrics": {...},
//	  "artifacts": {...}, "annotations": {...}
//	}
//
// and the expression is evaluated against the list of records, newest first.
package query

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/jmespath/go-jmespath"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
)

// Operator is a comparison supported by Where.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
)

var operators = []Operator{OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpEqual}

// ParseOperator validates an operator token.
func ParseOperator(token string) (Operator, error) {
	for _, op := range operators {
		if string(op) == token {
			return op, nil
		}
	}
	return "", logiserrors.Newf(logiserrors.ErrCodeValidation, "unsupported operator %q", token).
		WithRemediation("Use one of: >, <, >=, <=, ==")
}

var bareIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Query is a filter over experiment records. The zero value is not usable;
// build one with Where or FromExpression.
type Query struct {
	expression string
	field      string
	op         Operator
	value      any
	structured bool
}

// Where builds a query comparing the dotted field path against value.
// Value must be a string, an integer or a finite float.
func Where(field, op string, value any) (Query, error) {
	operator, err := ParseOperator(op)
	if err != nil {
		return Query{}, err
	}

	path, err := quotePath(field)
	if err != nil {
		return Query{}, err
	}

	literal, err := formatLiteral(value)
	if err != nil {
		return Query{}, err
	}

	return Query{
		expression: "[?" + path + " " + string(operator) + " `" + literal + "`]",
		field:      field,
		op:         operator,
		value:      value,
		structured: true,
	}, nil
}

// FromExpression wraps a raw JMESPath expression. It is compiled when the
// query runs, so syntax errors surface from Execute.
func FromExpression(expression string) Query {
	return Query{expression: expression}
}

// All matches every experiment record.
func All() Query {
	return FromExpression("@")
}

// Expression returns the JMESPath text that will be evaluated.
func (q Query) Expression() string {
	return q.expression
}

// Structured reports whether q was built by Where.
func (q Query) Structured() bool {
	return q.structured
}

// Field returns the field path of a Where query.
func (q Query) Field() string {
	return q.field
}

// Operator returns the comparison of a Where query.
func (q Query) Operator() Operator {
	return q.op
}

// Value returns the comparison value of a Where query.
func (q Query) Value() any {
	return q.value
}

func (q Query) String() string {
	return q.expression
}

func (q Query) compile() (*jmespath.JMESPath, error) {
	if strings.TrimSpace(q.expression) == "" {
		return nil, logiserrors.New(logiserrors.ErrCodeQuerySyntax, "empty query expression")
	}
	compiled, err := jmespath.Compile(q.expression)
	if err != nil {
		return nil, logiserrors.Wrap(err, logiserrors.ErrCodeQuerySyntax, "invalid query expression").
			WithContext("expression", q.expression).
			WithRemediation("Check the JMESPath syntax, e.g. [?metrics.accuracy > `0.8`]")
	}
	return compiled, nil
}

// quotePath renders a dotted field path, quoting segments that are not
// bare JMESPath identifiers.
func quotePath(field string) (string, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return "", logiserrors.New(logiserrors.ErrCodeValidation, "field path is empty")
	}

	segments := strings.Split(field, ".")
	for i, segment := range segments {
		if segment == "" {
			return "", logiserrors.Newf(logiserrors.ErrCodeValidation, "field path %q has an empty segment", field)
		}
		if bareIdentifier.MatchString(segment) {
			continue
		}
		quoted, err := json.Marshal(segment)
		if err != nil {
			return "", logiserrors.Wrap(err, logiserrors.ErrCodeValidation, "quote field segment")
		}
		segments[i] = string(quoted)
	}
	return strings.Join(segments, "."), nil
}

// formatLiteral renders value as the body of a JMESPath JSON literal.
func formatLiteral(value any) (string, error) {
	switch v := value.(type) {
	case string:
		data, err := json.Marshal(v)
		if err != nil {
			return "", logiserrors.Wrap(err, logiserrors.ErrCodeValidation, "encode string value")
		}
		return strings.ReplaceAll(string(data), "`", "\\`"), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		data, _ := json.Marshal(v)
		return string(data), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return "", logiserrors.Wrap(err, logiserrors.ErrCodeValidation, "encode number value")
		}
		return formatFloat(f)
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	}
	return "", logiserrors.Newf(logiserrors.ErrCodeValidation, "unsupported comparison value of type %T", value).
		WithRemediation("Compare against a string, an integer or a float")
}

func formatFloat(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", logiserrors.Newf(logiserrors.ErrCodeValidation, "comparison value %v is not a finite number", v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", logiserrors.Wrap(err, logiserrors.ErrCodeValidation, "encode float value")
	}
	return string(data), nil
}
