package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Runner executes a git subcommand in a working directory. Split out so the
// executor tests can substitute a fake without a git binary or a real repo.
type Runner interface {
	// Run returns git's stdout/stderr and exit code. err is non-nil only
	// for spawn-level failures (binary missing, context canceled).
	Run(ctx context.Context, dir string, args ...string) (stdout, stderr string, code int, err error)
}

// ExecRunner shells out to the git binary on PATH.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
			err = nil
		}
	}
	return out.String(), errb.String(), code, err
}
