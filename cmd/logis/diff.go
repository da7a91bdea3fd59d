package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/odvcencio/logis/pkg/query"
)

const diffUsage = "logis diff <sha> <sha>"

func runDiffCommand(args []string) error {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	context := fs.Int("context", 3, "Lines of context around each change")

	positional, err := parseFlags(fs, diffUsage, args)
	if err != nil {
		return handleHelp(err)
	}
	if len(positional) != 2 {
		return usageError("usage: %s", diffUsage)
	}
	if *context < 0 {
		return usageError("--context must be zero or positive")
	}

	deps, err := initDependenciesFn()
	if err != nil {
		return err
	}
	defer deps.Close()

	svc := deps.queryService()
	from, err := svc.Find(positional[0])
	if err != nil {
		return err
	}
	to, err := svc.Find(positional[1])
	if err != nil {
		return err
	}

	width := deps.shaWidth(false)
	diff, err := buildRunDiff(*from, *to, width, *context)
	if err != nil {
		return err
	}
	if diff == "" {
		deps.out.Dim("No differences.")
		return nil
	}
	deps.out.Code(diff, "diff")
	return nil
}

// buildRunDiff returns a unified diff of the metadata of two experiment
// commits, or "" when they are identical.
func buildRunDiff(from, to query.ExperimentCommit, width, context int) (string, error) {
	a, err := metadataText(from)
	if err != nil {
		return "", err
	}
	b, err := metadataText(to)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: from.ShortSHA(width) + " " + from.Message.Summary,
		ToFile:   to.ShortSHA(width) + " " + to.Message.Summary,
		Context:  context,
	})
}

func metadataText(c query.ExperimentCommit) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.Message.Metadata); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}
