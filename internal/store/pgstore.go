package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"
)

// PgStore persists each collection as one row in a documents table. It is
// the durable backend for desks that already run Postgres; the contract is
// identical to the file store.
type PgStore struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewPgStore(db *dbpg.DB, log *zerolog.Logger) (*PgStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &PgStore{db: db, log: log}, nil
}

func (p *PgStore) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := p.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	p.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

// MigrateDown applies the *.down.sql rollbacks. Nothing in the server
// calls it; it exists for operators tearing down a database by hand,
// since a rollback drops the collections table and all ledger data.
func (p *PgStore) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := p.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	p.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}

func (p *PgStore) ReadCollection(ctx context.Context, name string) ([]byte, error) {
	query := `
		SELECT doc
		FROM collections
		WHERE name = $1
	`
	row := p.db.QueryRowContext(ctx, query, name)

	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
	}
	return doc, nil
}

func (p *PgStore) WriteCollection(ctx context.Context, name string, doc []byte) error {
	query := `
		INSERT INTO collections (name, doc, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE
		SET doc = EXCLUDED.doc, updated_at = NOW()
	`
	if _, err := p.db.ExecContext(ctx, query, name, doc); err != nil {
		return fmt.Errorf("failed to write collection %s: %w", name, err)
	}
	return nil
}
