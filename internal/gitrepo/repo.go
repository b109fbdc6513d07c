// Package gitrepo performs the external commit action: append a line to the
// activity file, stage + commit it, and optionally push. The engine invokes
// the whole sequence as one retryable unit.
package gitrepo

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	logx "commitfarm/pkg/logx"
)

const activityHeader = "# Activity Log\n\n"

// Phrase rotation for activity lines.
var phrases = []string{
	"Automated maintenance",
	"Routine update",
	"Sync notes",
	"Housekeeping",
	"Keep-alive",
	"Log entry",
	"Notes refresh",
}

type Config struct {
	Path            string // repository working tree
	CommitFile      string // path of the activity file, relative to Path
	MessageTemplate string // commit message prefix
	Push            bool
	UserName        string
	UserEmail       string
}

type Repo struct {
	log logx.Logger
	run Runner
	cfg Config
}

func New(cfg Config, run Runner, log logx.Logger) *Repo {
	if run == nil {
		run = ExecRunner{}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Repo{log: log, run: run, cfg: cfg}
}

// Ensure verifies the configured path is a git working tree and backfills the
// repo-level identity when none is configured. Called once at startup;
// failures here are fatal.
func (r *Repo) Ensure(ctx context.Context) error {
	info, err := os.Stat(filepath.Join(r.cfg.Path, ".git"))
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a git repository (missing .git)", r.cfg.Path)
	}
	return r.ensureIdentity(ctx)
}

// ensureIdentity sets user.name/user.email at repo level only when both are
// configured here and the repo has none of its own.
func (r *Repo) ensureIdentity(ctx context.Context) error {
	name := strings.TrimSpace(r.cfg.UserName)
	email := strings.TrimSpace(r.cfg.UserEmail)
	if name == "" || email == "" {
		return nil
	}

	out, _, code, err := r.run.Run(ctx, r.cfg.Path, "config", "--get", "user.name")
	if err != nil {
		return err
	}
	if code != 0 || strings.TrimSpace(out) == "" {
		if _, _, _, err := r.run.Run(ctx, r.cfg.Path, "config", "user.name", name); err != nil {
			return err
		}
	}

	out, _, code, err = r.run.Run(ctx, r.cfg.Path, "config", "--get", "user.email")
	if err != nil {
		return err
	}
	if code != 0 || strings.TrimSpace(out) == "" {
		if _, _, _, err := r.run.Run(ctx, r.cfg.Path, "config", "user.email", email); err != nil {
			return err
		}
	}
	return nil
}

// Do performs one full commit action at the given moment. The steps are one
// retryable unit; any failing step fails the whole action.
func (r *Repo) Do(ctx context.Context, now time.Time) error {
	if err := r.AppendLine(now); err != nil {
		return err
	}
	if err := r.StageAndCommit(ctx, now); err != nil {
		return err
	}
	if !r.cfg.Push {
		return nil
	}
	return r.Push(ctx)
}

// AppendLine adds one activity line, creating the file (with header) and any
// parent directories on first use.
func (r *Repo) AppendLine(now time.Time) error {
	path := filepath.Join(r.cfg.Path, r.cfg.CommitFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(activityHeader), 0o644); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := fmt.Sprintf("- %s %s\n", now.Format("2006-01-02 15:04:05"), phrases[rand.IntN(len(phrases))])
	_, err = f.WriteString(line)
	return err
}

// StageAndCommit stages the activity file and commits it. A commit that fails
// because there is nothing to commit is a clean skip, not an error.
func (r *Repo) StageAndCommit(ctx context.Context, now time.Time) error {
	_, stderr, code, err := r.run.Run(ctx, r.cfg.Path, "add", r.cfg.CommitFile)
	if err != nil {
		return err
	}
	if code != 0 {
		return &CommitError{Op: "add", Code: code, Stderr: stderr}
	}

	msg := fmt.Sprintf("%s (%s)", r.cfg.MessageTemplate, now.Format(time.RFC3339))
	stdout, stderr, code, err := r.run.Run(ctx, r.cfg.Path, "commit", "-m", msg)
	if err != nil {
		return err
	}
	if code != 0 {
		// Depending on git version this lands on stdout or stderr.
		if strings.Contains(strings.ToLower(stdout+stderr), "nothing to commit") {
			r.log.Debug("no changes to commit; skipping")
			return nil
		}
		return &CommitError{Op: "commit", Code: code, Stderr: stderr}
	}
	r.log.Debug("commit created", logx.String("message", msg))
	return nil
}

func (r *Repo) Push(ctx context.Context) error {
	_, stderr, code, err := r.run.Run(ctx, r.cfg.Path, "push")
	if err != nil {
		return err
	}
	if code != 0 {
		return &PushError{Code: code, Stderr: stderr}
	}
	r.log.Debug("pushed to remote")
	return nil
}
