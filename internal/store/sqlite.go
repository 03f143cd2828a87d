package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/meridian-build/estimator/internal/rollup"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite file. It suits
// single-seat installs where estimates live on one workstation.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at dsn.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS estimates (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	client      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'draft',
	project     TEXT NOT NULL,
	items       TEXT,
	summary     TEXT,
	grand_total TEXT NOT NULL DEFAULT '0',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_estimates_status ON estimates(status);
CREATE INDEX IF NOT EXISTS idx_estimates_client ON estimates(client);
CREATE INDEX IF NOT EXISTS idx_estimates_created_at ON estimates(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveEstimate(ctx context.Context, rec *EstimateRecord) error {
	stampRecord(rec)

	projectJSON, err := rec.marshalProject()
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal project")
	}
	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal items")
	}
	var summaryArg any
	if rec.Summary != nil {
		summaryJSON, err := json.Marshal(rec.Summary)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal summary")
		}
		summaryArg = string(summaryJSON)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO estimates (id, name, client, description, status, project, items, summary, grand_total, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			client = excluded.client,
			description = excluded.description,
			status = excluded.status,
			project = excluded.project,
			items = excluded.items,
			summary = excluded.summary,
			grand_total = excluded.grand_total,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Name, rec.Client, rec.Description, string(rec.Status),
		string(projectJSON), string(itemsJSON), summaryArg, rec.GrandTotal.String(),
		rec.CreatedAt, rec.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: save estimate %s", rec.ID)
}

func (s *SQLiteStore) GetEstimate(ctx context.Context, id string) (*EstimateRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, client, description, status, project, items, summary, grand_total, created_at, updated_at
		 FROM estimates WHERE id = ?`,
		id,
	)
	return scanEstimate(row)
}

func (s *SQLiteStore) ListEstimates(ctx context.Context, filter EstimateFilter) ([]EstimateSummary, error) {
	query := `SELECT id, name, client, status, grand_total, created_at, updated_at FROM estimates WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Client != "" {
		query += ` AND client = ?`
		args = append(args, filter.Client)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list estimates")
	}
	defer rows.Close()

	var out []EstimateSummary
	for rows.Next() {
		var row EstimateSummary
		var total string
		if err := rows.Scan(&row.ID, &row.Name, &row.Client, &row.Status, &total, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan estimate row")
		}
		if row.GrandTotal, err = decimal.NewFromString(total); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse grand total %q", total)
		}
		out = append(out, row)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list estimates iterate")
}

func (s *SQLiteStore) DeleteEstimate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM estimates WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete estimate %s", id)
	}
	return checkRowsAffected(res, "estimate", id)
}

// scannable lets scanEstimate work with both sql.Row and sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanEstimate(row scannable) (*EstimateRecord, error) {
	var rec EstimateRecord
	var projectJSON string
	var itemsJSON, summaryJSON sql.NullString
	var total string

	err := row.Scan(&rec.ID, &rec.Name, &rec.Client, &rec.Description, &rec.Status,
		&projectJSON, &itemsJSON, &summaryJSON, &total, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("estimate not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan estimate")
	}

	if err := rec.unmarshalProject([]byte(projectJSON)); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal project")
	}
	if itemsJSON.Valid && itemsJSON.String != "" {
		if err := json.Unmarshal([]byte(itemsJSON.String), &rec.Items); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal items")
		}
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		rec.Summary = &rollup.SummaryReport{}
		if err := json.Unmarshal([]byte(summaryJSON.String), rec.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	if rec.GrandTotal, err = decimal.NewFromString(total); err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse grand total %q", total)
	}
	return &rec, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
