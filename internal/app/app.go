// Package app wires configuration, logging, storage, the git repository and
// the schedule engine into one runnable daemon.
package app

import (
	"context"
	"sync"
	"time"

	sdaemon "github.com/coreos/go-systemd/v22/daemon"

	logx "commitfarm/pkg/logx"

	"commitfarm/internal/clock"
	"commitfarm/internal/config"
	"commitfarm/internal/engine"
	"commitfarm/internal/gitrepo"
	"commitfarm/internal/schedule"
	"commitfarm/internal/store"
)

type App struct {
	cfgPath string
	cfg     *config.Config

	log  logx.Logger
	logs *logx.Service

	st   store.Store
	repo *gitrepo.Repo
	eng  *engine.Engine

	wg sync.WaitGroup
}

// New loads configuration and builds every component. Errors here are fatal
// startup failures; nothing has been persisted yet.
func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.ConsoleLogging(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	st, err := store.Open(store.Config{
		Driver:      cfg.State.Driver,
		Path:        cfg.State.Path,
		BusyTimeout: cfg.StateBusyTimeout(),
	}, log)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	repo := gitrepo.New(gitrepo.Config{
		Path:            cfg.Repo.Path,
		CommitFile:      cfg.Repo.CommitFile,
		MessageTemplate: cfg.Repo.MessageTemplate,
		Push:            cfg.PushEnabled(),
		UserName:        cfg.Repo.UserName,
		UserEmail:       cfg.Repo.UserEmail,
	}, nil, log)

	win, err := cfg.Window()
	if err != nil {
		_ = st.Close()
		_ = logs.Close()
		return nil, err
	}

	clk := clock.System()
	eng := engine.New(engine.Config{
		Window:         win,
		MinCommits:     cfg.Schedule.MinCommits,
		MaxCommits:     cfg.Schedule.MaxCommits,
		Rollover:       cfg.Rollover(),
		RetryMax:       cfg.Schedule.RetryMax,
		RetryDelay:     cfg.RetryDelay(),
		Liveness:       cfg.LivenessInterval(),
		CatchupSpacing: cfg.CatchupSpacing(),
	}, st, repo, schedule.NewGeneratorFromTime(clk.Now()), clk, log)

	return &App{
		cfgPath: cfgPath,
		cfg:     cfg,
		log:     log,
		logs:    logs,
		st:      st,
		repo:    repo,
		eng:     eng,
	}, nil
}

// Run drives the daemon until ctx is canceled. Returns a non-nil error only
// for unrecoverable startup failures.
func (a *App) Run(ctx context.Context) error {
	if err := a.repo.Ensure(ctx); err != nil {
		return err
	}

	a.eng.SetReadyFunc(func() {
		_, _ = sdaemon.SdNotify(false, sdaemon.SdNotifyReady)
	})

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		config.Watch(ctx, a.cfgPath, a.log)
	}()

	if interval, err := sdaemon.SdWatchdogEnabled(false); err == nil && interval > 0 {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.watchdog(ctx, interval/2)
		}()
	}

	a.log.Info("farmd started",
		logx.String("repo", a.cfg.Repo.Path),
		logx.String("window", a.cfg.Schedule.WindowStart+".."+a.cfg.Schedule.WindowEnd),
		logx.Int("min_commits", a.cfg.Schedule.MinCommits),
		logx.Int("max_commits", a.cfg.Schedule.MaxCommits),
		logx.Bool("push", a.cfg.PushEnabled()))

	err := a.eng.Run(ctx)

	_, _ = sdaemon.SdNotify(false, sdaemon.SdNotifyStopping)
	a.wg.Wait()
	return err
}

// CommitNow performs one immediate commit action and returns; the persisted
// schedule is not touched (-now flag).
func (a *App) CommitNow(ctx context.Context) error {
	if err := a.repo.Ensure(ctx); err != nil {
		return err
	}
	if err := a.repo.Do(ctx, time.Now()); err != nil {
		return err
	}
	a.log.Info("immediate commit completed")
	return nil
}

func (a *App) Close() error {
	a.log.Info("shutting down")
	err := a.st.Close()
	if cerr := a.logs.Close(); err == nil {
		err = cerr
	}
	return err
}

func (a *App) watchdog(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = sdaemon.SdNotify(false, sdaemon.SdNotifyWatchdog)
		}
	}
}
