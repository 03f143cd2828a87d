package rollup

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-build/estimator/internal/model"
)

// ProjectInfo identifies the project a summary describes.
type ProjectInfo struct {
	Name          string              `json:"name"`
	Location      string              `json:"location,omitempty"`
	ProjectType   string              `json:"project_type,omitempty"`
	EstimateClass model.EstimateClass `json:"estimate_class"`
	TotalArea     decimal.Decimal     `json:"total_area"`
	RoomCount     int                 `json:"room_count"`
	LineItemCount int                 `json:"line_item_count"`
}

// CostSummary holds the project-wide cost totals.
type CostSummary struct {
	TotalCost        decimal.Decimal `json:"total_cost"`
	TotalMaterial    decimal.Decimal `json:"total_material"`
	TotalLabor       decimal.Decimal `json:"total_labor"`
	TotalEquipment   decimal.Decimal `json:"total_equipment"`
	TotalSubcontract decimal.Decimal `json:"total_subcontract"`
	TotalContingency decimal.Decimal `json:"total_contingency"`
	TotalOverhead    decimal.Decimal `json:"total_overhead"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
	CostPerArea      decimal.Decimal `json:"cost_per_sf"`
}

// CostPercentages expresses the cost mix. Material, labor, equipment, and
// subcontract are shares of direct cost; overhead and profit are shares of
// the grand total.
type CostPercentages struct {
	MaterialPct    float64 `json:"material_pct"`
	LaborPct       float64 `json:"labor_pct"`
	EquipmentPct   float64 `json:"equipment_pct"`
	SubcontractPct float64 `json:"subcontract_pct"`
	OverheadPct    float64 `json:"overhead_pct"`
	ProfitPct      float64 `json:"profit_pct"`
}

// Views collects every dimension's grouped view.
type Views struct {
	ByPhase      PhaseView      `json:"by_phase"`
	ByTrade      TradeView      `json:"by_trade"`
	ByCostType   CostTypeView   `json:"by_cost_type"`
	ByRoom       *RoomView      `json:"by_room"`
	ByPhaseTrade PhaseTradeView `json:"by_phase_trade"`
}

// SummaryReport bundles project-level totals, the cost mix, and every
// rollup view for one calculation run.
type SummaryReport struct {
	Project     ProjectInfo     `json:"project_info"`
	Costs       CostSummary     `json:"cost_summary"`
	Percentages CostPercentages `json:"cost_percentages"`
	Rollups     Views           `json:"rollups"`
}

// BuildSummary runs every rollup dimension over the breakdowns and
// assembles the full summary report.
func BuildSummary(
	project model.Project,
	breakdowns map[string]model.CostBreakdown,
	items []model.LineItem,
	rooms []model.Room,
) *SummaryReport {
	var material, labor, equipment, subcontract decimal.Decimal
	var contingency, overhead, profit, total decimal.Decimal
	for _, cb := range breakdowns {
		material = material.Add(cb.Material)
		labor = labor.Add(cb.Labor)
		equipment = equipment.Add(cb.Equipment)
		subcontract = subcontract.Add(cb.Subcontract)
		contingency = contingency.Add(cb.Contingency)
		overhead = overhead.Add(cb.Overhead)
		profit = profit.Add(cb.Profit)
		total = total.Add(cb.Total())
	}
	direct := material.Add(labor).Add(equipment).Add(subcontract)

	totalArea := model.TotalArea(rooms)
	costPerArea := decimal.Zero
	if totalArea.IsPositive() {
		costPerArea = total.Div(totalArea)
	}

	pct := func(part, whole decimal.Decimal) float64 {
		if !whole.IsPositive() {
			return 0
		}
		return part.Div(whole).Mul(hundred).InexactFloat64()
	}

	return &SummaryReport{
		Project: ProjectInfo{
			Name:          project.Name,
			Location:      project.Location,
			ProjectType:   project.ProjectType,
			EstimateClass: project.EstimateClass,
			TotalArea:     totalArea,
			RoomCount:     len(rooms),
			LineItemCount: len(items),
		},
		Costs: CostSummary{
			TotalCost:        total,
			TotalMaterial:    material,
			TotalLabor:       labor,
			TotalEquipment:   equipment,
			TotalSubcontract: subcontract,
			TotalContingency: contingency,
			TotalOverhead:    overhead,
			TotalProfit:      profit,
			CostPerArea:      costPerArea,
		},
		Percentages: CostPercentages{
			MaterialPct:    pct(material, direct),
			LaborPct:       pct(labor, direct),
			EquipmentPct:   pct(equipment, direct),
			SubcontractPct: pct(subcontract, direct),
			OverheadPct:    pct(overhead, total),
			ProfitPct:      pct(profit, total),
		},
		Rollups: Views{
			ByPhase:      ByPhase(breakdowns, items),
			ByTrade:      ByTrade(breakdowns, items),
			ByCostType:   ByCostType(breakdowns, items),
			ByRoom:       ByRoom(breakdowns, items, rooms),
			ByPhaseTrade: ByPhaseTrade(breakdowns, items),
		},
	}
}
