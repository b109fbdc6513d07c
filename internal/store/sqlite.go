package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	logx "commitfarm/pkg/logx"

	_ "modernc.org/sqlite"

	"commitfarm/internal/schedule"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("state.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context) (*schedule.Day, bool, error) {
	var date string
	err := s.db.QueryRowContext(ctx, `SELECT date FROM schedule_day WHERE id = 1`).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT at, status FROM schedule_event ORDER BY pos`)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	p := persistedDay{Date: date}
	for rows.Next() {
		var pe persistedEvent
		if err := rows.Scan(&pe.At, &pe.Status); err != nil {
			return nil, false, err
		}
		p.Events = append(p.Events, pe)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	d, ok := fromPersisted(p)
	if !ok {
		s.log.Warn("sqlite state malformed; treating as absent", logx.String("date", date))
		return nil, false, nil
	}
	return d, true, nil
}

func (s *sqliteStore) Save(ctx context.Context, day *schedule.Day) error {
	if day == nil {
		return errors.New("nil schedule")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_event`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schedule_day(id, date) VALUES(1, ?)
		 ON CONFLICT(id) DO UPDATE SET date = excluded.date`, day.Date); err != nil {
		return err
	}
	for i, e := range day.Events {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schedule_event(pos, at, status) VALUES(?,?,?)`,
			i, e.At.Format(time.RFC3339), string(e.Status)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
