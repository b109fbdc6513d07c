package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "commitfarm/pkg/logx"

	"commitfarm/internal/schedule"
)

// fileStore keeps the schedule in one JSON file. Save writes a sibling .tmp
// file and renames it over the target so a crash mid-write never leaves a
// torn file behind.
type fileStore struct {
	log  logx.Logger
	path string

	mu sync.Mutex
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("state.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) Load(ctx context.Context) (*schedule.Day, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var p persistedDay
	if err := json.Unmarshal(b, &p); err != nil {
		s.log.Warn("state file unreadable; treating as absent",
			logx.String("path", s.path), logx.Err(err))
		return nil, false, nil
	}
	d, ok := fromPersisted(p)
	if !ok {
		s.log.Warn("state file malformed; treating as absent", logx.String("path", s.path))
		return nil, false, nil
	}
	return d, true, nil
}

func (s *fileStore) Save(ctx context.Context, day *schedule.Day) error {
	_ = ctx
	if day == nil {
		return errors.New("nil schedule")
	}
	b, err := json.MarshalIndent(toPersisted(day), "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
