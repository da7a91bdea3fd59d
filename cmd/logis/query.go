package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/odvcencio/logis/pkg/experiment"
	"github.com/odvcencio/logis/pkg/query"
)

const queryUsage = `logis query [--limit N] [--full-sha] [--raw] [--report] [--chart METRIC] "<field> <op> <value>"`

func runQueryCommand(args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	limit := fs.Int("limit", -1, "Maximum number of results (0 = unlimited, default from config)")
	fullSHA := fs.Bool("full-sha", false, "Print full 40-character commit ids")
	raw := fs.Bool("raw", false, "Treat the expression as a raw JMESPath filter over experiment records")
	report := fs.Bool("report", false, "Print a markdown comparison of the matches")
	chart := fs.String("chart", "", "Print a bar chart of the named metric for the matches")

	positional, err := parseFlags(fs, queryUsage, args)
	if err != nil {
		return handleHelp(err)
	}
	if *limit < -1 {
		return usageError("--limit must be zero or positive")
	}

	expression := strings.TrimSpace(strings.Join(positional, " "))
	if expression == "" {
		return usageError("usage: %s", queryUsage)
	}

	// Malformed queries are rejected before the history is read.
	var execute func(svc *query.Service, limit int) (*query.Result, error)
	if *raw {
		q := query.FromExpression(expression)
		execute = func(svc *query.Service, limit int) (*query.Result, error) {
			return svc.Execute(q, limit)
		}
	} else {
		tokens, err := tokenizeExpression(expression)
		if err != nil {
			return err
		}
		if len(tokens) != 3 {
			return usageError("expected \"<field> <op> <value>\", got %d token(s) in %q", len(tokens), expression)
		}
		if _, err := query.ParseOperator(tokens[1].text); err != nil {
			return withExitCode(err, 2)
		}
		name, op, value := tokens[0].text, tokens[1].text, parseValue(tokens[2])
		execute = func(svc *query.Service, limit int) (*query.Result, error) {
			return svc.ExecuteSimple(name, op, value, limit)
		}
	}

	deps, err := initDependenciesFn()
	if err != nil {
		return err
	}
	defer deps.Close()

	n := *limit
	if n < 0 {
		n = deps.cfg.Query.DefaultLimit
	}

	result, err := execute(deps.queryService(), n)
	if err != nil {
		return err
	}

	if result.Skipped() > 0 {
		deps.errOut.Warn("skipped %d malformed experiment commit(s)", result.Skipped())
	}
	if result.IsEmpty() {
		deps.out.Dim("No results found.")
		return nil
	}

	width := deps.shaWidth(*fullSHA)
	matches := result.Commits()
	deps.out.Header(fmt.Sprintf("Found %d commit(s):", len(matches)))
	for _, c := range matches {
		deps.out.Println("%s %s", c.ShortSHA(width), c.Message.Summary)
	}

	if !*report && *chart == "" {
		return nil
	}

	rows := make([]experiment.ReportRow, 0, len(matches))
	for _, c := range matches {
		rows = append(rows, experiment.ReportRow{
			Ref:     c.ShortSHA(width),
			Summary: c.Message.Summary,
			Run:     c.Run,
		})
	}
	reporter := experiment.NewReporter()
	if *chart != "" {
		deps.out.Newline()
		deps.out.Print("%s", reporter.MetricChart(rows, *chart, experiment.ChartBarWidth(deps.out.Width())))
	}
	if *report {
		deps.out.Newline()
		return deps.out.Markdown(reporter.ComparisonMarkdown(rows))
	}
	return nil
}
