// Package migrate applies the SQL files in the migrations directory.
//
// Incremental files are named NNN_description.up.sql and recorded in
// schema_migrations once applied. 000_drop_all.sql and 000_consolidated.sql
// back the reset and fresh modes.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	dropAllFile      = "000_drop_all.sql"
	consolidatedFile = "000_consolidated.sql"
	upSuffix         = ".up.sql"
)

// Executor is the subset of *pgxpool.Pool used by the runner.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Runner applies migrations from dir.
type Runner struct {
	db  Executor
	dir string
	log *slog.Logger
}

// NewRunner creates a Runner. A nil logger uses slog.Default().
func NewRunner(db Executor, dir string, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{db: db, dir: dir, log: log}
}

// FindDir returns "migrations" when it exists in the working directory and
// "../migrations" otherwise.
func FindDir() string {
	dir := "migrations"
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		dir = filepath.Join("..", "migrations")
	}
	return dir
}

// UpFiles は .up.sql ファイル名をソート済みで返す
func UpFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), upSuffix) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func (r *Runner) ensureSchemaMigrations(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

// Up applies every migration not yet recorded and returns how many ran.
func (r *Runner) Up(ctx context.Context) (int, error) {
	if err := r.ensureSchemaMigrations(ctx); err != nil {
		return 0, err
	}

	upFiles, err := UpFiles(r.dir)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, filename := range upFiles {
		name := strings.TrimSuffix(filename, upSuffix)

		var exists bool
		if err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name=$1)", name).Scan(&exists); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", name, err)
		}
		if exists {
			continue
		}

		if err := r.execFile(ctx, filename); err != nil {
			return applied, err
		}
		if _, err := r.db.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", name); err != nil {
			return applied, fmt.Errorf("record migration %s: %w", name, err)
		}
		applied++
		r.log.Info("migration completed", "migration", name)
	}

	if applied == 0 {
		r.log.Info("all migrations already applied")
	} else {
		r.log.Info("migrations completed", "count", applied)
	}
	return applied, nil
}

// Reset drops everything and recreates the schema from the consolidated
// file, marking every incremental migration as applied.
func (r *Runner) Reset(ctx context.Context) error {
	if err := r.dropAll(ctx); err != nil {
		return err
	}

	r.log.Info("applying consolidated schema")
	if err := r.execFile(ctx, consolidatedFile); err != nil {
		return err
	}

	// 全マイグレーションを適用済みとして記録
	if err := r.ensureSchemaMigrations(ctx); err != nil {
		return err
	}
	upFiles, err := UpFiles(r.dir)
	if err != nil {
		return err
	}
	for _, filename := range upFiles {
		name := strings.TrimSuffix(filename, upSuffix)
		if _, err := r.db.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT DO NOTHING", name); err != nil {
			return fmt.Errorf("mark migration %s: %w", name, err)
		}
	}
	r.log.Info("consolidated schema applied", "migrations_marked", len(upFiles))
	return nil
}

// Fresh drops everything and applies all incremental migrations in order.
func (r *Runner) Fresh(ctx context.Context) (int, error) {
	if err := r.dropAll(ctx); err != nil {
		return 0, err
	}
	return r.Up(ctx)
}

func (r *Runner) dropAll(ctx context.Context) error {
	r.log.Info("dropping all tables")
	if err := r.execFile(ctx, dropAllFile); err != nil {
		return err
	}
	r.log.Info("all tables dropped")
	return nil
}

func (r *Runner) execFile(ctx context.Context, filename string) error {
	sql, err := os.ReadFile(filepath.Join(r.dir, filename))
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}
	if _, err := r.db.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply %s: %w", filename, err)
	}
	return nil
}
