package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// schemaStatements create the recommendation table. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS recomendaciones (
		id         BIGSERIAL PRIMARY KEY,
		tipo       TEXT NOT NULL,
		edad       TEXT NOT NULL,
		genero     TEXT NOT NULL,
		idioma     TEXT NOT NULL,
		cantidad   INTEGER NOT NULL,
		detalles   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recomendaciones_created_at ON recomendaciones (created_at DESC)`,
}

// EnsureSchema applies the schema inside one transaction
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}

	log.Info().Int("statements", len(schemaStatements)).Msg("Database schema is up to date")
	return nil
}
