package main

import (
	"errors"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsInterspersed(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	limit := fs.Int("limit", -1, "")
	full := fs.Bool("full-sha", false, "")

	positional, err := parseFlags(fs, "test", []string{"loss", "--limit", "2", "<", "--full-sha", "-0.5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"loss", "<", "-0.5"}, positional)
	assert.Equal(t, 2, *limit)
	assert.True(t, *full)
}

func TestParseFlagsForms(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	name := fs.String("name", "", "")

	positional, err := parseFlags(fs, "test", []string{"--name=train", "--", "--not-a-flag"})
	require.NoError(t, err)
	assert.Equal(t, "train", *name)
	assert.Equal(t, []string{"--not-a-flag"}, positional)
}

func TestParseFlagsErrors(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Int("limit", 0, "")

	_, err := parseFlags(fs, "test", []string{"--bogus"})
	require.Error(t, err)
	assert.Equal(t, 2, exitCodeForError(err))

	_, err = parseFlags(fs, "test", []string{"--limit"})
	require.Error(t, err)
	assert.Equal(t, 2, exitCodeForError(err))

	_, err = parseFlags(fs, "test", []string{"--limit", "many"})
	require.Error(t, err)
	assert.Equal(t, 2, exitCodeForError(err))
}

func TestParseFlagsHelp(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Int("limit", 0, "Maximum results")

	var err error
	out := captureStdout(t, func() {
		_, err = parseFlags(fs, "logis test", []string{"--help"})
	})
	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.Nil(t, handleHelp(err))
	assert.Contains(t, out, "Usage: logis test")
	assert.Contains(t, out, "Maximum results")
}

func TestTokenizeExpression(t *testing.T) {
	tests := []struct {
		input string
		want  []token
	}{
		{"accuracy > 0.8", []token{{"accuracy", false}, {">", false}, {"0.8", false}}},
		{"  loss   <=  1 ", []token{{"loss", false}, {"<=", false}, {"1", false}}},
		{`hyperparameters.optimizer == "adam w"`, []token{{"hyperparameters.optimizer", false}, {"==", false}, {"adam w", true}}},
		{`name == '42'`, []token{{"name", false}, {"==", false}, {"42", true}}},
		{`a == ""`, []token{{"a", false}, {"==", false}, {"", true}}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := tokenizeExpression(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := tokenizeExpression(`name == "open`)
	require.Error(t, err)
	assert.Equal(t, 2, exitCodeForError(err))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, int64(32), parseValue(token{text: "32"}))
	assert.Equal(t, int64(-3), parseValue(token{text: "-3"}))
	assert.Equal(t, 0.8, parseValue(token{text: "0.8"}))
	assert.Equal(t, 1e-3, parseValue(token{text: "1e-3"}))
	assert.Equal(t, "adam", parseValue(token{text: "adam"}))
	assert.Equal(t, "32", parseValue(token{text: "32", quoted: true}))
}
