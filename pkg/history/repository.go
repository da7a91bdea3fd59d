// Package history reads and writes the commit history that experiment runs
// are recorded in.
package history

import (
	"errors"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
	"github.com/odvcencio/logis/pkg/logging"
)

const (
	defaultAuthorName  = "logis"
	defaultAuthorEmail = "logis@localhost"
)

// Commit is one entry of the history, as read from the repository.
type Commit struct {
	SHA       string
	Message   string
	Author    string
	Timestamp time.Time
}

// Repository wraps a git repository discovered from a working directory.
type Repository struct {
	repo        *git.Repository
	root        string
	strategy    StageStrategy
	authorName  string
	authorEmail string
	logger      *logging.Logger
	now         func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithStageStrategy sets what StageAndCommit stages.
func WithStageStrategy(s StageStrategy) Option {
	return func(r *Repository) {
		if s != "" {
			r.strategy = s
		}
	}
}

// WithAuthor sets the commit author. Empty values fall back to the git
// user config, then to a logis default.
func WithAuthor(name, email string) Option {
	return func(r *Repository) {
		r.authorName = name
		r.authorEmail = email
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// Open finds the repository containing path, searching parent directories.
func Open(path string, opts ...Option) (*Repository, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, logiserrors.Wrap(err, logiserrors.ErrCodeRepository, "resolve path").
			WithContext("path", path)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, logiserrors.Wrap(err, logiserrors.ErrCodeRepository, "not a git repository").
			WithContext("path", abs).
			WithUserMessage("No git repository found at " + abs + " or any parent directory").
			WithRemediation("Run logis from inside a git repository", "Initialize one with: git init")
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, logiserrors.Wrap(err, logiserrors.ErrCodeRepository, "repository has no worktree").
			WithContext("path", abs)
	}

	r := &Repository{
		repo:     repo,
		root:     wt.Filesystem.Root(),
		strategy: StageAll,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Root returns the top-level directory of the working tree.
func (r *Repository) Root() string {
	return r.root
}

// StageStrategy returns the configured staging strategy.
func (r *Repository) StageStrategy() StageStrategy {
	return r.strategy
}

// ListCommits returns every commit reachable from HEAD, newest first.
// A repository without commits yields an empty list.
func (r *Repository) ListCommits() ([]Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []Commit{}, nil
		}
		return nil, logiserrors.Wrap(err, logiserrors.ErrCodeRepository, "resolve HEAD")
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, logiserrors.Wrap(err, logiserrors.ErrCodeRepository, "read log")
	}
	defer iter.Close()

	commits := []Commit{}
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, Commit{
			SHA:       c.Hash.String(),
			Message:   c.Message,
			Author:    c.Author.Name,
			Timestamp: c.Committer.When.UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, logiserrors.Wrap(err, logiserrors.ErrCodeRepository, "walk log")
	}

	_ = r.logger.Debug(logging.CategoryHistory, "list_commits", "read history", map[string]any{
		"root":    r.root,
		"commits": len(commits),
	})
	return commits, nil
}

// StageAndCommit stages changes according to the stage strategy and commits
// them with message. If staging succeeds and the commit fails, the index is
// left staged.
func (r *Repository) StageAndCommit(message string) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", logiserrors.Wrap(err, logiserrors.ErrCodeRepository, "open worktree")
	}

	if err := r.stage(wt); err != nil {
		return "", err
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:            r.signature(),
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", logiserrors.Wrap(err, logiserrors.ErrCodeCommit, "commit").
			WithRemediation("The working tree may still have staged changes; inspect with git status")
	}

	sha := hash.String()
	_ = r.logger.Info(logging.CategoryCommit, "commit_created", "recorded commit", map[string]any{
		"sha":      sha,
		"strategy": string(r.strategy),
	})
	return sha, nil
}

func (r *Repository) stage(wt *git.Worktree) error {
	switch r.strategy {
	case StageNone:
		return nil
	case StageTracked:
		return r.stageTracked(wt)
	default:
		if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
			return logiserrors.Wrap(err, logiserrors.ErrCodeCommit, "stage all changes")
		}
		return nil
	}
}

func (r *Repository) stageTracked(wt *git.Worktree) error {
	status, err := wt.Status()
	if err != nil {
		return logiserrors.Wrap(err, logiserrors.ErrCodeCommit, "read worktree status")
	}

	paths := make([]string, 0, len(status))
	for path := range status {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		st := status[path]
		switch st.Worktree {
		case git.Unmodified, git.Untracked:
			continue
		case git.Deleted:
			if _, err := wt.Remove(path); err != nil {
				return logiserrors.Wrap(err, logiserrors.ErrCodeCommit, "stage deletion").
					WithContext("path", path)
			}
		default:
			if _, err := wt.Add(path); err != nil {
				return logiserrors.Wrap(err, logiserrors.ErrCodeCommit, "stage file").
					WithContext("path", path)
			}
		}
	}
	return nil
}

func (r *Repository) signature() *object.Signature {
	name, email := r.authorName, r.authorEmail
	if name == "" || email == "" {
		if cfg, err := r.repo.ConfigScoped(gitconfig.GlobalScope); err == nil {
			if name == "" {
				name = cfg.User.Name
			}
			if email == "" {
				email = cfg.User.Email
			}
		}
	}
	if name == "" {
		name = defaultAuthorName
	}
	if email == "" {
		email = defaultAuthorEmail
	}
	return &object.Signature{
		Name:  name,
		Email: email,
		When:  r.now(),
	}
}
