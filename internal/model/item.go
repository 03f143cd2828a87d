package model

import "github.com/shopspring/decimal"

// LineItem is one validated takeoff row. Quantity is positive and unit and
// description are non-empty by the time an item reaches the engine; the
// ingestion layer enforces that.
//
// Exactly one subcontract pricing field should be populated. When both are
// present the lump sum wins.
type LineItem struct {
	ID          string          `json:"id"`
	Phase       Phase           `json:"phase"`
	Trade       Trade           `json:"trade"`
	Code        string          `json:"code"` // CSI MasterFormat
	Description string          `json:"description"`
	Unit        string          `json:"unit"` // "SF", "LF", "EA", "CY"
	Quantity    decimal.Decimal `json:"quantity"`
	WastePct    decimal.Decimal `json:"waste_pct"`
	CostType    CostType        `json:"cost_type,omitempty"`

	// Pricing mode: labor class + productivity lookup, or a subcontract rate.
	LaborClass          string           `json:"labor_class,omitempty"`
	SubcontractUnitRate *decimal.Decimal `json:"subcontract_unit_rate,omitempty"` // $/unit
	SubcontractLumpSum  *decimal.Decimal `json:"subcontract_lump_sum,omitempty"`

	// Independent of pricing mode.
	MaterialUnitCost decimal.Decimal `json:"material_unit_cost"`    // $/unit
	EquipmentRate    decimal.Decimal `json:"equipment_rate_per_hr"` // $/hr
	UsageHours       decimal.Decimal `json:"usage_hours"`

	Rooms []string `json:"rooms,omitempty"` // explicit room allocation tags
}

// CostBreakdown is the computed cost of one line item. Material, labor,
// equipment, and subcontract come from the calculator; contingency, overhead,
// and profit are zero until project-level markup is allocated back to items.
type CostBreakdown struct {
	ItemID      string          `json:"item_id"`
	Material    decimal.Decimal `json:"material_cost"`
	Labor       decimal.Decimal `json:"labor_cost"`
	Equipment   decimal.Decimal `json:"equipment_cost"`
	Subcontract decimal.Decimal `json:"subcontract_cost"`
	Contingency decimal.Decimal `json:"contingency,omitempty"`
	Overhead    decimal.Decimal `json:"overhead,omitempty"`
	Profit      decimal.Decimal `json:"profit,omitempty"`
	LaborHours  decimal.Decimal `json:"labor_hours,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// Direct returns labor + material + equipment + subcontract.
func (b CostBreakdown) Direct() decimal.Decimal {
	return b.Labor.Add(b.Material).Add(b.Equipment).Add(b.Subcontract)
}

// Total returns the direct cost plus any allocated contingency, overhead,
// and profit.
func (b CostBreakdown) Total() decimal.Decimal {
	return b.Direct().Add(b.Contingency).Add(b.Overhead).Add(b.Profit)
}

// CostPerUnit returns Total divided by Quantity, or zero for zero quantity.
func (b CostBreakdown) CostPerUnit() decimal.Decimal {
	if b.Quantity.IsZero() {
		return decimal.Zero
	}
	return b.Total().Div(b.Quantity)
}
