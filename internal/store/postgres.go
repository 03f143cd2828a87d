package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/meridian-build/estimator/internal/catalog"
	"github.com/meridian-build/estimator/internal/db"
	"github.com/meridian-build/estimator/internal/rollup"
)

// PostgresStore implements Store using pgxpool. It also carries the
// shared pricing tables (catalog entries, labor rates) for offices that
// centralize vendor data.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig carries optional pool sizing from the store config.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	saveEstimateSQL = `INSERT INTO estimates (id, name, client, description, status, project, items, summary, grand_total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			client = EXCLUDED.client,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			project = EXCLUDED.project,
			items = EXCLUDED.items,
			summary = EXCLUDED.summary,
			grand_total = EXCLUDED.grand_total,
			updated_at = EXCLUDED.updated_at`
	getEstimateSQL    = `SELECT id, name, client, description, status, project, items, summary, grand_total, created_at, updated_at FROM estimates WHERE id = $1`
	deleteEstimateSQL = `DELETE FROM estimates WHERE id = $1`
)

// preparedStatements names the hot-path queries each new connection
// prepares up front.
var preparedStatements = map[string]string{
	"save_estimate":   saveEstimateSQL,
	"get_estimate":    getEstimateSQL,
	"delete_estimate": deleteEstimateSQL,
}

// NewPostgres opens a pooled connection to connString and verifies it
// with a ping.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Pool sizing comes from config when set, otherwise 10/2.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Each connection pre-prepares the hot-path statements.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access (e.g., bulk catalog loads).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS estimates (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name        TEXT NOT NULL,
	client      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'draft',
	project     JSONB NOT NULL,
	items       JSONB,
	summary     JSONB,
	grand_total TEXT NOT NULL DEFAULT '0',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_estimates_status ON estimates(status);
CREATE INDEX IF NOT EXISTS idx_estimates_client ON estimates(client);
CREATE INDEX IF NOT EXISTS idx_estimates_created_at ON estimates(created_at DESC);

CREATE TABLE IF NOT EXISTS catalog_entries (
	description        TEXT NOT NULL,
	trade              TEXT NOT NULL,
	unit               TEXT NOT NULL,
	material_unit_cost TEXT NOT NULL,
	labor_hours        TEXT,
	equipment_cost     TEXT,
	source             TEXT NOT NULL DEFAULT '',
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (description, trade, unit)
);

CREATE TABLE IF NOT EXISTS labor_rates (
	trade         TEXT NOT NULL,
	location      TEXT NOT NULL,
	rate_per_hour TEXT NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (trade, location)
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveEstimate(ctx context.Context, rec *EstimateRecord) error {
	stampRecord(rec)

	projectJSON, err := rec.marshalProject()
	if err != nil {
		return eris.Wrap(err, "postgres: marshal project")
	}
	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal items")
	}
	var summaryArg any
	if rec.Summary != nil {
		summaryJSON, err := json.Marshal(rec.Summary)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal summary")
		}
		summaryArg = summaryJSON
	}

	_, err = s.pool.Exec(ctx, saveEstimateSQL,
		rec.ID, rec.Name, rec.Client, rec.Description, string(rec.Status),
		projectJSON, itemsJSON, summaryArg, rec.GrandTotal.String(),
		rec.CreatedAt, rec.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: save estimate %s", rec.ID)
}

func (s *PostgresStore) GetEstimate(ctx context.Context, id string) (*EstimateRecord, error) {
	var rec EstimateRecord
	var projectJSON []byte
	var itemsNull, summaryNull *[]byte
	var total string

	err := s.pool.QueryRow(ctx, getEstimateSQL, id).
		Scan(&rec.ID, &rec.Name, &rec.Client, &rec.Description, &rec.Status,
			&projectJSON, &itemsNull, &summaryNull, &total, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("estimate not found: %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get estimate %s", id)
	}

	if err := rec.unmarshalProject(projectJSON); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal project")
	}
	if itemsNull != nil {
		if err := json.Unmarshal(*itemsNull, &rec.Items); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal items")
		}
	}
	if summaryNull != nil {
		rec.Summary = &rollup.SummaryReport{}
		if err := json.Unmarshal(*summaryNull, rec.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	if rec.GrandTotal, err = decimal.NewFromString(total); err != nil {
		return nil, eris.Wrapf(err, "postgres: parse grand total %q", total)
	}
	return &rec, nil
}

func (s *PostgresStore) ListEstimates(ctx context.Context, filter EstimateFilter) ([]EstimateSummary, error) {
	query := `SELECT id, name, client, status, grand_total, created_at, updated_at FROM estimates WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Client != "" {
		query += fmt.Sprintf(` AND client = $%d`, argIdx)
		args = append(args, filter.Client)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list estimates")
	}
	defer rows.Close()

	var out []EstimateSummary
	for rows.Next() {
		var row EstimateSummary
		var total string
		if err := rows.Scan(&row.ID, &row.Name, &row.Client, &row.Status, &total, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan estimate row")
		}
		if row.GrandTotal, err = decimal.NewFromString(total); err != nil {
			return nil, eris.Wrapf(err, "postgres: parse grand total %q", total)
		}
		out = append(out, row)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list estimates iterate")
}

func (s *PostgresStore) DeleteEstimate(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, deleteEstimateSQL, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete estimate %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("estimate not found: %s", id)
	}
	return nil
}

// ImportCatalog bulk-upserts fetched catalog entries, keyed by
// description, trade, and unit. A refresh replaces prior pricing.
func (s *PostgresStore) ImportCatalog(ctx context.Context, entries []catalog.Entry) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		var laborHours, equipCost any
		if e.LaborHoursPerUnit != nil {
			laborHours = e.LaborHoursPerUnit.String()
		}
		if e.EquipmentCostPerUnit != nil {
			equipCost = e.EquipmentCostPerUnit.String()
		}
		updated := now
		if e.UpdatedAt != nil {
			updated = *e.UpdatedAt
		}
		rows = append(rows, []any{
			e.Description, string(e.Trade), e.Unit, e.MaterialUnitCost.String(),
			laborHours, equipCost, e.Source, updated,
		})
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "catalog_entries",
		Columns:      []string{"description", "trade", "unit", "material_unit_cost", "labor_hours", "equipment_cost", "source", "updated_at"},
		ConflictKeys: []string{"description", "trade", "unit"},
	}, rows)
}

// ImportLaborRates bulk-upserts trade labor rates keyed by trade and location.
func (s *PostgresStore) ImportLaborRates(ctx context.Context, rates []catalog.LaborRate) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(rates))
	for _, r := range rates {
		rows = append(rows, []any{string(r.Trade), r.Location, r.RatePerHour.String(), now})
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "labor_rates",
		Columns:      []string{"trade", "location", "rate_per_hour", "updated_at"},
		ConflictKeys: []string{"trade", "location"},
	}, rows)
}
