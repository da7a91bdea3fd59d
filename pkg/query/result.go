package query

import (
	"github.com/odvcencio/logis/pkg/experiment"
	"github.com/odvcencio/logis/pkg/history"
	"github.com/odvcencio/logis/pkg/semantic"
)

// ExperimentCommit is a commit decoded as an experiment run.
type ExperimentCommit struct {
	Commit  history.Commit
	Message semantic.Message
	Run     experiment.Run
}

// ShortSHA returns the first n characters of the sha, or all of it when
// n is not positive.
func (c ExperimentCommit) ShortSHA(n int) string {
	if n <= 0 || n >= len(c.Commit.SHA) {
		return c.Commit.SHA
	}
	return c.Commit.SHA[:n]
}

// Result is the outcome of a query.
type Result struct {
	commits     []ExperimentCommit
	query       Query
	numSearched int
	skipped     int
}

// Commits returns the matches, newest first.
func (r *Result) Commits() []ExperimentCommit {
	out := make([]ExperimentCommit, len(r.commits))
	copy(out, r.commits)
	return out
}

// Query returns the query that produced the result.
func (r *Result) Query() Query {
	return r.query
}

// NumSearched is the number of experiment commits the query was evaluated
// against, before filtering and limiting.
func (r *Result) NumSearched() int {
	return r.numSearched
}

// Skipped is the number of exp commits left out because their metadata
// could not be decoded.
func (r *Result) Skipped() int {
	return r.skipped
}

// Len returns the number of matches.
func (r *Result) Len() int {
	return len(r.commits)
}

// IsEmpty reports whether nothing matched.
func (r *Result) IsEmpty() bool {
	return len(r.commits) == 0
}
