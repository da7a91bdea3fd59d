package main

import (
	"flag"

	"github.com/odvcencio/logis/pkg/experiment"
)

const showUsage = "logis show <sha>"

func runShowCommand(args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fullSHA := fs.Bool("full-sha", false, "Print the full 40-character commit id")

	positional, err := parseFlags(fs, showUsage, args)
	if err != nil {
		return handleHelp(err)
	}
	if len(positional) != 1 {
		return usageError("usage: %s", showUsage)
	}

	deps, err := initDependenciesFn()
	if err != nil {
		return err
	}
	defer deps.Close()

	c, err := deps.queryService().Find(positional[0])
	if err != nil {
		return err
	}

	return deps.out.Markdown(experiment.NewReporter().RunMarkdown(experiment.ReportRow{
		Ref:     c.ShortSHA(deps.shaWidth(*fullSHA)),
		Summary: c.Message.Summary,
		Run:     c.Run,
	}))
}
