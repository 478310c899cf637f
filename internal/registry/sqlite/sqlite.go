// Package sqlite implements registry.Registry on a local SQLite database.
// It is also the write store behind pigeonholectl, which registers and
// promotes model versions without an MLflow server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ferndale/pigeonhole/internal/registry"
)

// Store is a SQLite-backed model registry.
type Store struct {
	db *sql.DB
}

// Open opens the registry database at path, creating it and its schema when
// missing. WAL mode lets pigeonholectl write while a server reads.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS model_versions (
	name TEXT NOT NULL,
	version INTEGER NOT NULL,
	stage TEXT NOT NULL,
	created_at TEXT NOT NULL,
	source TEXT NOT NULL,
	PRIMARY KEY (name, version)
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// GetVersions returns every version of name currently in stage.
func (s *Store) GetVersions(ctx context.Context, name string, stage registry.Stage) ([]registry.Version, error) {
	return s.query(ctx, `
SELECT name, version, stage, created_at, source
FROM model_versions
WHERE name = ? AND stage = ?
ORDER BY version;
`, name, string(stage))
}

// List returns every version of name across all stages, newest first.
func (s *Store) List(ctx context.Context, name string) ([]registry.Version, error) {
	return s.query(ctx, `
SELECT name, version, stage, created_at, source
FROM model_versions
WHERE name = ?
ORDER BY version DESC;
`, name)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]registry.Version, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []registry.Version
	for rows.Next() {
		var (
			v       registry.Version
			stage   string
			created string
		)
		if err := rows.Scan(&v.Name, &v.Version, &stage, &created, &v.Source); err != nil {
			return nil, err
		}
		if v.Stage, err = registry.ParseStage(stage); err != nil {
			return nil, err
		}
		if v.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("sqlite: created_at of %s v%d: %w", v.Name, v.Version, err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Open reads the artifact at source, a local filesystem path with an
// optional file:// prefix.
func (s *Store) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	return os.Open(strings.TrimPrefix(source, "file://"))
}

// Register inserts the next version of name pointing at source and returns
// it. New versions start unstaged.
func (s *Store) Register(ctx context.Context, name, source string) (registry.Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return registry.Version{}, err
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx, `
SELECT COALESCE(MAX(version), 0) + 1 FROM model_versions WHERE name = ?;
`, name).Scan(&next)
	if err != nil {
		return registry.Version{}, err
	}

	// RFC3339 storage keeps second precision, so the returned timestamp must
	// match what a later List reads back.
	now := time.Now().UTC().Truncate(time.Second)
	_, err = tx.ExecContext(ctx, `
INSERT INTO model_versions (name, version, stage, created_at, source)
VALUES (?, ?, ?, ?, ?);
`, name, next, string(registry.StageNone), now.Format(time.RFC3339), source)
	if err != nil {
		return registry.Version{}, err
	}

	if err := tx.Commit(); err != nil {
		return registry.Version{}, err
	}

	return registry.Version{
		Name:      name,
		Version:   next,
		Stage:     registry.StageNone,
		CreatedAt: now,
		Source:    source,
	}, nil
}

// Transition moves name/version to stage. With archiveExisting set,
// promoting to Production or Staging archives every other version already
// in that stage, mirroring the MLflow transition flag.
func (s *Store) Transition(ctx context.Context, name string, version int, stage registry.Stage, archiveExisting bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE model_versions SET stage = ? WHERE name = ? AND version = ?;
`, string(stage), name, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("sqlite: model %s version %d not found", name, version)
	}

	if archiveExisting && (stage == registry.StageProduction || stage == registry.StageStaging) {
		_, err = tx.ExecContext(ctx, `
UPDATE model_versions SET stage = ? WHERE name = ? AND stage = ? AND version != ?;
`, string(registry.StageArchived), name, string(stage), version)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
