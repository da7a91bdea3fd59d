package query

import (
	"encoding/json"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
	"github.com/odvcencio/logis/pkg/experiment"
	"github.com/odvcencio/logis/pkg/history"
	"github.com/odvcencio/logis/pkg/logging"
	"github.com/odvcencio/logis/pkg/semantic"
)

// CommitSource supplies commits newest first.
type CommitSource interface {
	ListCommits() ([]history.Commit, error)
}

// Service runs queries against the experiment commits of a CommitSource.
type Service struct {
	source CommitSource
	logger *logging.Logger
}

// NewService creates a query service. logger may be nil.
func NewService(source CommitSource, logger *logging.Logger) *Service {
	return &Service{source: source, logger: logger}
}

// Execute evaluates q against every experiment commit. A limit of zero or
// less returns all matches.
func (s *Service) Execute(q Query, limit int) (*Result, error) {
	compiled, err := q.compile()
	if err != nil {
		return nil, err
	}

	pool, err := s.candidates()
	if err != nil {
		return nil, err
	}

	records := make([]any, len(pool.commits))
	bySHA := make(map[string]int, len(pool.commits))
	for i, c := range pool.commits {
		record, err := buildRecord(c)
		if err != nil {
			return nil, err
		}
		records[i] = record
		bySHA[c.Commit.SHA] = i
	}

	found, err := compiled.Search(records)
	if err != nil {
		return nil, logiserrors.Wrap(err, logiserrors.ErrCodeQueryEval, "query evaluation failed").
			WithContext("expression", q.expression)
	}

	matches, err := collectMatches(found, pool.commits, bySHA)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	_ = s.logger.Info(logging.CategoryQuery, "query_executed", "query executed", map[string]any{
		"expression": q.expression,
		"searched":   len(pool.commits),
		"matched":    len(matches),
		"skipped":    pool.skipped,
		"limit":      limit,
	})

	return &Result{
		commits:     matches,
		query:       q,
		numSearched: len(pool.commits),
		skipped:     pool.skipped,
	}, nil
}

// ExecuteSimple compares a metric against value. A bare name refers to
// metrics.<name>; a dotted name is used as a full field path.
func (s *Service) ExecuteSimple(name, op string, value any, limit int) (*Result, error) {
	field := strings.TrimSpace(name)
	if field != "" && !strings.Contains(field, ".") {
		field = "metrics." + field
	}
	q, err := Where(field, op, value)
	if err != nil {
		return nil, err
	}
	return s.Execute(q, limit)
}

// Find returns the experiment commit whose sha starts with prefix.
func (s *Service) Find(prefix string) (*ExperimentCommit, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, logiserrors.New(logiserrors.ErrCodeValidation, "commit reference is empty")
	}

	pool, err := s.candidates()
	if err != nil {
		return nil, err
	}

	var found *ExperimentCommit
	for i := range pool.commits {
		if !strings.HasPrefix(pool.commits[i].Commit.SHA, prefix) {
			continue
		}
		if found != nil {
			return nil, logiserrors.Newf(logiserrors.ErrCodeValidation, "commit reference %q is ambiguous", prefix).
				WithRemediation("Use more characters of the sha")
		}
		found = &pool.commits[i]
	}
	if found == nil {
		return nil, logiserrors.Newf(logiserrors.ErrCodeValidation, "no experiment commit matches %q", prefix)
	}
	return found, nil
}

type candidatePool struct {
	commits []ExperimentCommit
	skipped int
}

// candidates decodes the history into experiment commits. Commits of other
// kinds are left out; exp commits that fail to decode are counted as skipped.
func (s *Service) candidates() (candidatePool, error) {
	commits, err := s.source.ListCommits()
	if err != nil {
		return candidatePool{}, err
	}

	decoded := decodeAll(commits)

	pool := candidatePool{commits: make([]ExperimentCommit, 0, len(commits))}
	for i, d := range decoded {
		if !d.experiment {
			continue
		}
		if d.err != nil {
			pool.skipped++
			_ = s.logger.Warn(logging.CategoryCodec, "decode_failed", "skipping malformed experiment commit", map[string]any{
				"sha":   commits[i].SHA,
				"error": d.err.Error(),
			})
			continue
		}
		pool.commits = append(pool.commits, d.commit)
	}
	return pool, nil
}

type decodedCommit struct {
	commit     ExperimentCommit
	experiment bool
	err        error
}

// decodeAll parses commit messages in parallel. Results keep the input order.
func decodeAll(commits []history.Commit) []decodedCommit {
	out := make([]decodedCommit, len(commits))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range commits {
		i := i
		g.Go(func() error {
			c := commits[i]
			kind, ok := semantic.HeaderKind(c.Message)
			if !ok || kind != semantic.KindExperiment {
				return nil
			}
			msg, run, err := semantic.ParseRun(c.Message)
			out[i] = decodedCommit{
				commit:     ExperimentCommit{Commit: c, Message: msg, Run: run},
				experiment: true,
				err:        err,
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func buildRecord(c ExperimentCommit) (map[string]any, error) {
	data, err := c.Run.ToMap()
	if err != nil {
		return nil, logiserrors.Wrap(err, logiserrors.ErrCodeInternal, "build query record").
			WithContext("sha", c.Commit.SHA)
	}
	// go-jmespath only compares float64 numbers.
	record := floatNumbers(data).(map[string]any)
	record["run_timestamp"] = record["timestamp"]
	record["sha"] = c.Commit.SHA
	record["message"] = c.Commit.Message
	record["timestamp"] = experiment.FormatTimestamp(c.Commit.Timestamp)
	record["kind"] = string(c.Message.Kind)
	record["summary"] = c.Message.Summary
	return record, nil
}

// floatNumbers replaces every json.Number in v with its float64 value.
func floatNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if f, ok := experiment.Float64(val); ok {
			return f
		}
		return val.String()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = floatNumbers(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = floatNumbers(item)
		}
		return out
	}
	return v
}

// collectMatches maps the expression output back to commits. The output
// must be a list of records (or null).
func collectMatches(found any, pool []ExperimentCommit, bySHA map[string]int) ([]ExperimentCommit, error) {
	if found == nil {
		return []ExperimentCommit{}, nil
	}
	items, ok := found.([]any)
	if !ok {
		return nil, logiserrors.Newf(logiserrors.ErrCodeQueryEval, "query must produce a list of commit records, got %T", found)
	}

	matches := make([]ExperimentCommit, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, logiserrors.Newf(logiserrors.ErrCodeQueryEval, "query must produce commit records, got %T", item)
		}
		sha, _ := record["sha"].(string)
		idx, ok := bySHA[sha]
		if !ok {
			return nil, logiserrors.New(logiserrors.ErrCodeQueryEval, "query result is not a commit record").
				WithRemediation("Filter the list instead of projecting fields, e.g. [?metrics.loss < `0.2`]")
		}
		matches = append(matches, pool[idx])
	}
	return matches, nil
}
