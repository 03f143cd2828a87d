package model

import "github.com/shopspring/decimal"

// Project holds the project-level settings for one calculation run.
// It is immutable input: the engine never writes back to it.
type Project struct {
	Name           string          `json:"name"`
	Location       string          `json:"location,omitempty"`
	ProjectType    string          `json:"project_type,omitempty"`
	EstimateClass  EstimateClass   `json:"estimate_class"`
	OverheadPct    decimal.Decimal `json:"overhead_pct"`    // applied to direct + contingency
	ProfitPct      decimal.Decimal `json:"profit_pct"`      // applied to direct + contingency + overhead
	RegionalFactor decimal.Decimal `json:"regional_factor"` // scales productivity hours
	Currency       string          `json:"currency"`
	Units          string          `json:"units"` // "US" or "SI"
}

// PhaseConfig carries the contingency configuration for one phase code.
type PhaseConfig struct {
	Code           Phase           `json:"code"`
	Name           string          `json:"name"`
	ContingencyPct decimal.Decimal `json:"contingency_pct"`
}

// LaborClass is a named labor classification with its base wage and burden.
type LaborClass struct {
	Name      string          `json:"name"`       // "Laborer", "Carpenter"
	BaseRate  decimal.Decimal `json:"base_rate"`  // $/hr before burden
	BurdenPct decimal.Decimal `json:"burden_pct"` // payroll taxes, insurance, benefits
}

// BurdenedRate returns the fully loaded hourly rate: base × (1 + burden).
func (lc LaborClass) BurdenedRate() decimal.Decimal {
	return lc.BaseRate.Mul(decimal.NewFromInt(1).Add(lc.BurdenPct))
}

// ProductivityEntry maps an item code to its base labor hours per unit and
// any adjustment factors already resolved for this run.
type ProductivityEntry struct {
	ItemCode     string             `json:"item_code"`      // CSI code, e.g. "09 30 00"
	HoursPerUnit decimal.Decimal    `json:"hours_per_unit"` // e.g. 0.12 h/SF
	Factors      map[string]float64 `json:"factors,omitempty"`
}

// Room defines a spatial zone for cost allocation.
type Room struct {
	Name       string          `json:"name"`
	Area       decimal.Decimal `json:"area"` // square feet
	Height     decimal.Decimal `json:"height,omitempty"`
	Multiplier decimal.Decimal `json:"multiplier,omitempty"`
}

// TotalArea sums the area of all rooms.
func TotalArea(rooms []Room) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rooms {
		total = total.Add(r.Area)
	}
	return total
}
