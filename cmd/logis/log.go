package main

import (
	"flag"

	"github.com/odvcencio/logis/pkg/query"
)

const logUsage = "logis log [--limit N] [--full-sha]"

func runLogCommand(args []string) error {
	fs := flag.NewFlagSet("log", flag.ContinueOnError)
	limit := fs.Int("limit", -1, "Maximum number of commits (0 = unlimited, default from config)")
	fullSHA := fs.Bool("full-sha", false, "Print full 40-character commit ids")

	positional, err := parseFlags(fs, logUsage, args)
	if err != nil {
		return handleHelp(err)
	}
	if len(positional) > 0 {
		return usageError("log takes no arguments, got %q", positional[0])
	}
	if *limit < -1 {
		return usageError("--limit must be zero or positive")
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

	result, err := deps.queryService().Execute(query.All(), n)
	if err != nil {
		return err
	}
	if result.Skipped() > 0 {
		deps.errOut.Warn("skipped %d malformed experiment commit(s)", result.Skipped())
	}
	if result.IsEmpty() {
		deps.out.Dim("No experiment commits found.")
		return nil
	}

	width := deps.shaWidth(*fullSHA)
	rows := make([][]string, 0, result.Len())
	for _, c := range result.Commits() {
		rows = append(rows, []string{
			c.ShortSHA(width),
			c.Run.Name,
			c.Commit.Timestamp.Local().Format("2006-01-02 15:04"),
			c.Message.Summary,
		})
	}
	deps.out.Table([]string{"SHA", "NAME", "COMMITTED", "SUMMARY"}, rows)
	return nil
}
