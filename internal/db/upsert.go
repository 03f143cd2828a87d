package db

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig names the target of a bulk upsert.
type UpsertConfig struct {
	Table        string   // target table, optionally schema-qualified
	Columns      []string // columns present in every row
	ConflictKeys []string // columns forming the unique constraint
	UpdateCols   []string // columns rewritten on conflict; nil means every non-key column
}

// BulkUpsert loads rows into cfg.Table, replacing any row that collides on
// cfg.ConflictKeys. Catalog refreshes arrive as whole vendor files, so most
// rows already exist; the load stages everything in a session temp table via
// COPY, then merges with a single INSERT ... ON CONFLICT, which stays fast
// even for full catalogs.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: upsert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return 0, eris.New("db: upsert: no conflict keys specified")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	staging := stagingTableFor(cfg.Table)
	if _, err := tx.Exec(ctx, createStagingSQL(staging, cfg.Table)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: create staging table for %s", cfg.Table)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{staging}, cfg.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: COPY into staging table for %s", cfg.Table)
	}

	tag, err := tx.Exec(ctx, mergeSQL(cfg, staging))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: merge into %s", cfg.Table)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return tag.RowsAffected(), nil
}

func stagingTableFor(table string) string {
	return "_tmp_upsert_" + strings.ReplaceAll(table, ".", "_")
}

// createStagingSQL clones the target's column layout into a temp table that
// vanishes with the transaction.
func createStagingSQL(staging, target string) string {
	return fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgx.Identifier{staging}.Sanitize(),
		quoteTable(target),
	)
}

// mergeSQL moves staged rows into the target, rewriting collisions.
func mergeSQL(cfg UpsertConfig, staging string) string {
	cols := quoteList(cfg.Columns)
	assignments := make([]string, 0, len(cfg.Columns))
	for _, col := range updateColumns(cfg) {
		q := pgx.Identifier{col}.Sanitize()
		assignments = append(assignments, q+" = EXCLUDED."+q)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO UPDATE SET %s",
		quoteTable(cfg.Table),
		cols,
		cols,
		pgx.Identifier{staging}.Sanitize(),
		quoteList(cfg.ConflictKeys),
		strings.Join(assignments, ", "),
	)
}

// updateColumns resolves which columns a conflicting row gets rewritten
// with: cfg.UpdateCols verbatim, or every column outside the conflict key.
func updateColumns(cfg UpsertConfig) []string {
	if cfg.UpdateCols != nil {
		return cfg.UpdateCols
	}
	out := make([]string, 0, len(cfg.Columns))
	for _, c := range cfg.Columns {
		if !slices.Contains(cfg.ConflictKeys, c) {
			out = append(out, c)
		}
	}
	return out
}

// quoteTable quotes a table name, splitting off a schema qualifier when
// one is present.
func quoteTable(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func quoteList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
