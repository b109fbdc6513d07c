package gitrepo

import (
	"fmt"
	"strings"
)

// CommitError reports a failed stage or commit.
type CommitError struct {
	Op     string // "add" or "commit"
	Code   int
	Stderr string
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("git %s failed (exit %d): %s", e.Op, e.Code, strings.TrimSpace(e.Stderr))
}

// PushError reports a failed push (network, auth, non-fast-forward).
type PushError struct {
	Code   int
	Stderr string
}

func (e *PushError) Error() string {
	return fmt.Sprintf("git push failed (exit %d): %s", e.Code, strings.TrimSpace(e.Stderr))
}
