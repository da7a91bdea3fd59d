// Package recorder runs experiment code and records each run as an exp commit.
package recorder

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/odvcencio/logis/pkg/config"
	logiserrors "github.com/odvcencio/logis/pkg/errors"
	"github.com/odvcencio/logis/pkg/experiment"
	"github.com/odvcencio/logis/pkg/logging"
	"github.com/odvcencio/logis/pkg/semantic"
)

// Committer stages the working tree and commits it with a message.
type Committer interface {
	StageAndCommit(message string) (string, error)
}

// Options configures a Recorder.
type Options struct {
	// Template is the summary template; empty means semantic.DefaultTemplate.
	Template string
	// DryRun renders and prints the message without committing. A true
	// LOGIS_DRY_RUN in the environment has the same effect.
	DryRun bool
	// Out receives the rendered message. Defaults to os.Stdout.
	Out    io.Writer
	Logger *logging.Logger
}

// Outcome describes what happened to a recorded run.
type Outcome struct {
	Run       experiment.Run
	Message   semantic.Message
	Text      string
	SHA       string
	Committed bool
}

// Recorder wraps experiment functions.
type Recorder struct {
	committer Committer
	template  string
	dryRun    bool
	out       io.Writer
	logger    *logging.Logger
}

// New creates a Recorder. committer may be nil only when DryRun is set.
func New(committer Committer, opts Options) *Recorder {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	template := opts.Template
	if template == "" {
		template = semantic.DefaultTemplate
	}
	return &Recorder{
		committer: committer,
		template:  template,
		dryRun:    opts.DryRun || config.DryRunFromEnv(),
		out:       out,
		logger:    opts.Logger,
	}
}

// DryRun reports whether commits are suppressed.
func (r *Recorder) DryRun() bool {
	return r.dryRun
}

// Record runs fn with a fresh Context and commits the run it describes.
// fn must set hyperparameters and metrics on the context. If fn fails,
// nothing is committed.
func (r *Recorder) Record(name string, fn func(*experiment.Context) error) (*Outcome, error) {
	ctx := experiment.NewContext()
	if err := fn(ctx); err != nil {
		return nil, err
	}

	run, err := ctx.Build(name)
	if err != nil {
		return nil, err
	}
	return r.Commit(run)
}

// RecordFunc runs fn with hypers and commits the run built from hypers and
// the metrics fn returns. Both must encode as JSON objects.
func RecordFunc[H, M any](r *Recorder, name string, hypers H, fn func(H) (M, error)) (M, *Outcome, error) {
	metrics, err := fn(hypers)
	if err != nil {
		return metrics, nil, err
	}

	hyperMap, err := experiment.ObjectMap(hypers)
	if err != nil {
		return metrics, nil, logiserrors.Wrap(err, logiserrors.ErrCodeValidation, "hyperparameters must encode as a JSON object")
	}
	metricMap, err := experiment.ObjectMap(metrics)
	if err != nil {
		return metrics, nil, logiserrors.Wrap(err, logiserrors.ErrCodeValidation, "metrics must encode as a JSON object")
	}

	outcome, err := r.Commit(experiment.NewRun(name, hyperMap, metricMap))
	return metrics, outcome, err
}

// Commit renders run as an exp message, prints it and commits it unless
// the recorder is in dry-run mode.
func (r *Recorder) Commit(run experiment.Run) (*Outcome, error) {
	msg, err := semantic.Encode(run, r.template)
	if err != nil {
		return nil, err
	}
	text, err := msg.Render()
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Run: run, Message: msg, Text: text}

	fmt.Fprint(r.out, "Generating commit with message:\n\n")
	fmt.Fprintln(r.out, indent(text, "    "))

	if r.dryRun {
		fmt.Fprint(r.out, "\nDry run enabled. Not committing changes.\n")
		_ = r.logger.Info(logging.CategoryCommit, "dry_run", "commit suppressed", map[string]any{
			"name":   run.Name,
			"run_id": run.RunID.String(),
		})
		return outcome, nil
	}

	if r.committer == nil {
		return nil, logiserrors.New(logiserrors.ErrCodeInternal, "recorder has no committer")
	}

	sha, err := r.committer.StageAndCommit(text)
	if err != nil {
		_ = r.logger.Error(logging.CategoryCommit, "commit_failed", err.Error(), map[string]any{
			"name": run.Name,
		})
		return nil, err
	}

	outcome.SHA = sha
	outcome.Committed = true
	_ = r.logger.Info(logging.CategoryCommit, "run_recorded", "recorded experiment run", map[string]any{
		"name":   run.Name,
		"run_id": run.RunID.String(),
		"sha":    sha,
	})
	return outcome, nil
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
