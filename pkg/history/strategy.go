package history

import (
	"strings"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
)

// StageStrategy controls what StageAndCommit stages before committing.
type StageStrategy string

const (
	// StageAll stages every change in the working tree, untracked files included.
	StageAll StageStrategy = "all"
	// StageTracked stages modifications and deletions of tracked files only.
	StageTracked StageStrategy = "tracked"
	// StageNone commits the index as it is.
	StageNone StageStrategy = "none"
)

// ParseStageStrategy maps a config value to a StageStrategy. Empty means StageAll.
func ParseStageStrategy(raw string) (StageStrategy, error) {
	switch StageStrategy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", StageAll:
		return StageAll, nil
	case StageTracked:
		return StageTracked, nil
	case StageNone:
		return StageNone, nil
	}
	return "", logiserrors.Newf(logiserrors.ErrCodeValidation, "unknown stage strategy %q", raw).
		WithRemediation("Use one of: all, tracked, none")
}

func (s StageStrategy) String() string {
	return string(s)
}
