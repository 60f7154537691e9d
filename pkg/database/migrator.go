package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const schemaMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migrator applies *.up.sql files from an fs.FS in lexical order, each in its
// own transaction, recording a checksum per applied file.
type Migrator struct {
	db     *sqlx.DB
	files  fs.FS
	logger *zap.Logger
}

// NewMigrator constructs a migrator over the provided file system.
func NewMigrator(db *sqlx.DB, files fs.FS, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{db: db, files: files, logger: logger}
}

// Up applies all pending migrations and returns the versions it ran. A file
// whose content changed after being applied is reported as an error.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if _, err := m.db.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	names, err := fs.Glob(m.files, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	applied := make([]string, 0)
	for _, name := range names {
		content, err := fs.ReadFile(m.files, name)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", name, err)
		}
		version := strings.TrimSuffix(path.Base(name), ".up.sql")
		sum := sha256.Sum256(content)
		checksum := hex.EncodeToString(sum[:])

		var existing string
		err = m.db.GetContext(ctx, &existing, `SELECT checksum FROM schema_migrations WHERE version = $1`, version)
		switch {
		case err == nil:
			if existing != checksum {
				return applied, fmt.Errorf("migration %s changed after being applied", version)
			}
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return applied, fmt.Errorf("lookup migration %s: %w", version, err)
		}

		if err := m.apply(ctx, version, checksum, string(content)); err != nil {
			return applied, err
		}
		m.logger.Info("migration applied", zap.String("version", version))
		applied = append(applied, version)
	}

	return applied, nil
}

func (m *Migrator) apply(ctx context.Context, version, checksum, body string) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, body); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)`, version, checksum); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}
