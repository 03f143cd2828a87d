// Package store persists estimate records. Three backends share one
// interface: an in-process memory map, SQLite for single-user installs,
// and Postgres for shared office deployments.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-build/estimator/internal/model"
	"github.com/meridian-build/estimator/internal/rollup"
)

// EstimateStatus tracks the lifecycle of a saved estimate.
type EstimateStatus string

const (
	StatusDraft    EstimateStatus = "draft"
	StatusFinal    EstimateStatus = "final"
	StatusArchived EstimateStatus = "archived"
)

// EstimateRecord is one saved estimate. The full calculation input rides
// along so a saved estimate can be recomputed and reported later; the
// summary is the rollup snapshot from the save-time run. A save
// overwrites the whole record.
type EstimateRecord struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Client      string         `json:"client,omitempty"`
	Description string         `json:"description,omitempty"`
	Status      EstimateStatus `json:"status"`

	Project        model.Project             `json:"project"`
	Phases         []model.PhaseConfig       `json:"phases,omitempty"`
	LaborClasses   []model.LaborClass        `json:"labor_classes,omitempty"`
	Productivities []model.ProductivityEntry `json:"productivity,omitempty"`
	Rooms          []model.Room              `json:"rooms,omitempty"`
	Items          []model.LineItem          `json:"items,omitempty"`

	Summary    *rollup.SummaryReport `json:"summary,omitempty"`
	GrandTotal decimal.Decimal       `json:"grand_total"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"last_modified"`
}

// EstimateSummary is the list row for saved estimates. It carries only
// the scalar columns so listing never unmarshals item payloads.
type EstimateSummary struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Client     string          `json:"client,omitempty"`
	Status     EstimateStatus  `json:"status"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"last_modified"`
}

// EstimateFilter narrows ListEstimates. Zero values mean no constraint.
type EstimateFilter struct {
	Status EstimateStatus
	Client string
	Limit  int
	Offset int
}

// Store persists estimate records.
type Store interface {
	// SaveEstimate writes the record, overwriting any earlier version
	// with the same id. A record without an id gets one assigned.
	SaveEstimate(ctx context.Context, rec *EstimateRecord) error

	// GetEstimate loads one record with its full item and summary payloads.
	GetEstimate(ctx context.Context, id string) (*EstimateRecord, error)

	// ListEstimates returns summary rows, newest first.
	ListEstimates(ctx context.Context, filter EstimateFilter) ([]EstimateSummary, error)

	// DeleteEstimate removes a record.
	DeleteEstimate(ctx context.Context, id string) error

	// Migrate creates or updates the backing schema.
	Migrate(ctx context.Context) error

	Close() error
}

const defaultListLimit = 100

// stampRecord fills in the id, status, and timestamps a record needs
// before its first write. UpdatedAt moves on every save.
func stampRecord(rec *EstimateRecord) {
	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = StatusDraft
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
}

func (r *EstimateRecord) summaryRow() EstimateSummary {
	return EstimateSummary{
		ID:         r.ID,
		Name:       r.Name,
		Client:     r.Client,
		Status:     r.Status,
		GrandTotal: r.GrandTotal,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// projectPayload is the JSON stored in the project column: the project
// settings plus the calculation inputs a recompute needs.
type projectPayload struct {
	Project        model.Project             `json:"project"`
	Phases         []model.PhaseConfig       `json:"phases,omitempty"`
	LaborClasses   []model.LaborClass        `json:"labor_classes,omitempty"`
	Productivities []model.ProductivityEntry `json:"productivity,omitempty"`
	Rooms          []model.Room              `json:"rooms,omitempty"`
}

func (r *EstimateRecord) marshalProject() ([]byte, error) {
	return json.Marshal(projectPayload{
		Project:        r.Project,
		Phases:         r.Phases,
		LaborClasses:   r.LaborClasses,
		Productivities: r.Productivities,
		Rooms:          r.Rooms,
	})
}

func (r *EstimateRecord) unmarshalProject(data []byte) error {
	var p projectPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	r.Project = p.Project
	r.Phases = p.Phases
	r.LaborClasses = p.LaborClasses
	r.Productivities = p.Productivities
	r.Rooms = p.Rooms
	return nil
}
