package main

import (
	"flag"
	"os"
	"strings"

	"github.com/odvcencio/logis/pkg/experiment"
	"github.com/odvcencio/logis/pkg/recorder"
)

const commitUsage = "logis commit --name N --hypers JSON --metrics JSON [--artifacts JSON] [--annotations JSON] [--template T] [--dry-run]"

func runCommitCommand(args []string) error {
	fs := flag.NewFlagSet("commit", flag.ContinueOnError)
	name := fs.String("name", "", "Run name")
	hypers := fs.String("hypers", "", "Hyperparameters as a JSON object")
	metrics := fs.String("metrics", "", "Metrics as a JSON object")
	artifacts := fs.String("artifacts", "", "Artifacts as a JSON object")
	annotations := fs.String("annotations", "", "Annotations as a JSON object")
	template := fs.String("template", "", "Summary template (default from config)")
	dryRun := fs.Bool("dry-run", false, "Print the commit message without committing")

	positional, err := parseFlags(fs, commitUsage, args)
	if err != nil {
		return handleHelp(err)
	}
	if len(positional) > 0 {
		return usageError("commit takes no arguments, got %q", positional[0])
	}
	if strings.TrimSpace(*name) == "" {
		return usageError("--name is required")
	}

	hyperMap, err := jsonObjectFlag("hypers", *hypers, true)
	if err != nil {
		return err
	}
	metricMap, err := jsonObjectFlag("metrics", *metrics, true)
	if err != nil {
		return err
	}
	artifactMap, err := jsonObjectFlag("artifacts", *artifacts, false)
	if err != nil {
		return err
	}
	annotationMap, err := jsonObjectFlag("annotations", *annotations, false)
	if err != nil {
		return err
	}

	deps, err := initDependenciesFn()
	if err != nil {
		return err
	}
	defer deps.Close()

	tmpl := *template
	if tmpl == "" {
		tmpl = deps.cfg.Commit.Template
	}

	rec := recorder.New(deps.repo, recorder.Options{
		Template: tmpl,
		DryRun:   *dryRun || deps.cfg.Commit.DryRun,
		Out:      os.Stdout,
		Logger:   deps.logger,
	})

	run := experiment.NewRun(*name, hyperMap, metricMap)
	run.Artifacts = artifactMap
	run.Annotations = annotationMap

	outcome, err := rec.Commit(run)
	if err != nil {
		return err
	}
	if outcome.Committed {
		deps.out.Newline()
		deps.out.Success("Committed %s", outcome.SHA[:min(len(outcome.SHA), deps.shaWidth(false))])
	}
	return nil
}

// jsonObjectFlag decodes a flag value that must hold a JSON object.
func jsonObjectFlag(name, raw string, required bool) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		if required {
			return nil, usageError("--%s is required", name)
		}
		return nil, nil
	}
	var value any
	if err := experiment.DecodeJSON([]byte(raw), &value); err != nil {
		return nil, usageError("--%s is not valid JSON: %v", name, err)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, usageError("--%s must be a JSON object", name)
	}
	return obj, nil
}
