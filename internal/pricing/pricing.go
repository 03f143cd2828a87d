// Package pricing resolves per-unit pricing from multiple, possibly
// disagreeing data sources behind one provider contract.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-build/estimator/internal/model"
)

// Request is a read-only pricing query for one item.
type Request struct {
	Description string          `json:"item_description"`
	Trade       model.Trade     `json:"trade"`
	Phase       model.Phase     `json:"phase"`
	CostType    model.CostType  `json:"cost_type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Location    string          `json:"location"`
	RequestedAt time.Time       `json:"date_requested"`
}

// Response carries one provider's answer. Nil cost fields mean the provider
// had no data for that component. Responses are immutable once produced;
// the cache hands back the same value it was given and never mutates it.
type Response struct {
	Description          string           `json:"item_description"`
	Source               string           `json:"source"`
	MaterialUnitCost     *decimal.Decimal `json:"material_unit_cost,omitempty"`
	LaborHoursPerUnit    *decimal.Decimal `json:"labor_hours_per_unit,omitempty"`
	LaborRatePerHour     *decimal.Decimal `json:"labor_rate_per_hour,omitempty"`
	EquipmentCostPerUnit *decimal.Decimal `json:"equipment_cost_per_unit,omitempty"`
	OverheadRate         *decimal.Decimal `json:"overhead_rate,omitempty"`
	ProfitRate           *decimal.Decimal `json:"profit_rate,omitempty"`
	Confidence           float64          `json:"confidence_score"` // 0.0 to 1.0
	RetrievedAt          time.Time        `json:"date_retrieved"`
	Notes                string           `json:"notes,omitempty"`
}

// TotalUnitCost composes the full per-unit cost: material plus labor and
// equipment where present, marked up by overhead and profit rates. Returns
// nil when the response has no material cost to anchor on.
func (r *Response) TotalUnitCost() *decimal.Decimal {
	if r.MaterialUnitCost == nil {
		return nil
	}

	total := *r.MaterialUnitCost

	if r.LaborHoursPerUnit != nil && r.LaborRatePerHour != nil {
		total = total.Add(r.LaborHoursPerUnit.Mul(*r.LaborRatePerHour))
	}
	if r.EquipmentCostPerUnit != nil {
		total = total.Add(*r.EquipmentCostPerUnit)
	}

	one := decimal.NewFromInt(1)
	if r.OverheadRate != nil {
		total = total.Mul(one.Add(*r.OverheadRate))
	}
	if r.ProfitRate != nil {
		total = total.Mul(one.Add(*r.ProfitRate))
	}

	return &total
}

// Provider is the capability contract all pricing sources implement.
// GetPricing returns (nil, nil) when the provider has no data for the
// request; errors are reserved for lookup failures.
type Provider interface {
	// Name identifies the provider in composite weighting and logs.
	Name() string
	// GetPricing answers one pricing request.
	GetPricing(ctx context.Context, req Request) (*Response, error)
	// SearchItems lists known item descriptions matching a query,
	// optionally restricted to a trade (empty trade means all).
	SearchItems(query string, trade model.Trade) []string
	// SupportedTrades lists trades this provider can price.
	SupportedTrades() []model.Trade
	// SupportedLocations lists locations this provider has data for.
	SupportedLocations() []string
	// Validate reports whether the request's trade and location are
	// supported. An empty request location places no constraint.
	Validate(req Request) bool
}

// ProviderInfo summarizes one provider for operator-facing output.
type ProviderInfo struct {
	Name      string        `json:"name"`
	Type      string        `json:"type"`
	Trades    []model.Trade `json:"supported_trades"`
	Locations []string      `json:"supported_locations"`
}

// Info collects descriptive details from a provider.
func Info(p Provider) ProviderInfo {
	return ProviderInfo{
		Name:      p.Name(),
		Type:      fmt.Sprintf("%T", p),
		Trades:    p.SupportedTrades(),
		Locations: p.SupportedLocations(),
	}
}

// supportsTrade is the shared trade check for Validate implementations.
func supportsTrade(trades []model.Trade, t model.Trade) bool {
	for _, st := range trades {
		if st == t {
			return true
		}
	}
	return false
}

// supportsLocation is the shared location check for Validate
// implementations. An empty requested location always passes.
func supportsLocation(locations []string, loc string) bool {
	if loc == "" {
		return true
	}
	for _, sl := range locations {
		if sl == loc {
			return true
		}
	}
	return false
}
