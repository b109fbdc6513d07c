package config

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "commitfarm/pkg/logx"
)

// Watch warns when the config file changes on disk. Configuration is applied
// only at startup, so the watcher never reloads anything; it exists so an
// operator editing the file learns that a restart is required.
//
// Blocks until ctx is done. A missing file or watcher failure is non-fatal.
func Watch(ctx context.Context, path string, log logx.Logger) {
	if strings.TrimSpace(path) == "" {
		return
	}
	dir := filepath.Dir(path)
	file := filepath.Base(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("config watch init failed", logx.Err(err), logx.String("dir", dir))
		return
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		log.Warn("config watch add failed", logx.Err(err), logx.String("dir", dir))
		return
	}
	log.Debug("config watcher started", logx.String("dir", dir), logx.String("file", file))

	// Debounce editor write bursts into one warning.
	var timer *time.Timer
	warn := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, func() {
			log.Warn("config file changed on disk; restart farmd to apply",
				logx.String("path", path))
		})
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			// Compare by basename (robust across absolute/relative paths).
			if strings.EqualFold(filepath.Base(ev.Name), file) &&
				ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				warn()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Debug("config watch error", logx.Err(err))
		}
	}
}
