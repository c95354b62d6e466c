// Package prefs persists the speech synthesis preferences in a small SQLite
// database so they survive process restarts.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/KamoLovesCode/news/internal/speech"
	_ "modernc.org/sqlite"
)

// Store is a single-row SQLite-backed speech.ConfigStore.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open creates the database file (and parent directory) if needed.
func Open(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, log: log.With(slog.String("component", "prefs"))}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s.log.Info("prefs store opened", slog.String("path", path))
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS synthesis_config (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    engine TEXT NOT NULL,
    voice TEXT NOT NULL,
    speed REAL NOT NULL,
    volume REAL NOT NULL,
    auto_cleanup INTEGER NOT NULL
);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load implements speech.ConfigStore. A missing row is not an error.
func (s *Store) Load() (speech.SynthesisConfig, bool, error) {
	var (
		cfg     speech.SynthesisConfig
		engine  string
		cleanup int
	)
	row := s.db.QueryRow(`SELECT engine, voice, speed, volume, auto_cleanup FROM synthesis_config WHERE id = 1`)
	err := row.Scan(&engine, &cfg.Voice, &cfg.Speed, &cfg.Volume, &cleanup)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, false, nil
	}
	if err != nil {
		return cfg, false, fmt.Errorf("load synthesis config: %w", err)
	}
	parsed, err := speech.ParseEngine(engine)
	if err != nil {
		// Corrupt row; caller falls back to defaults.
		return cfg, false, fmt.Errorf("load synthesis config: %w", err)
	}
	cfg.Engine = parsed
	cfg.AutoCleanup = cleanup != 0
	return cfg, true, nil
}

// Save implements speech.ConfigStore. Volume is clamped into [0,1] before
// storage; speed is written as-is and round-trips exactly.
func (s *Store) Save(cfg speech.SynthesisConfig) error {
	if cfg.Volume < 0 {
		cfg.Volume = 0
	} else if cfg.Volume > 1 {
		cfg.Volume = 1
	}
	cleanup := 0
	if cfg.AutoCleanup {
		cleanup = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO synthesis_config(id, engine, voice, speed, volume, auto_cleanup)
		 VALUES(1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   engine=excluded.engine, voice=excluded.voice, speed=excluded.speed,
		   volume=excluded.volume, auto_cleanup=excluded.auto_cleanup`,
		cfg.Engine.String(), cfg.Voice, cfg.Speed, cfg.Volume, cleanup)
	if err != nil {
		return fmt.Errorf("save synthesis config: %w", err)
	}
	return nil
}
