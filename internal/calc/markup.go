package calc

import (
	"github.com/meridian-build/estimator/internal/model"
)

// AllocateMarkup distributes contingency, overhead, and profit down to the
// line items that produced them, keyed by item ID. Each item gets its
// phase's contingency rate applied to its own direct cost, then overhead
// and profit at the project rates on top, so the per-item totals sum back
// to the grand total exactly.
//
// Rows must carry unique item IDs; the ingestion layer assigns them.
func AllocateMarkup(project model.Project, result *Result) map[string]model.CostBreakdown {
	breakdowns := make(map[string]model.CostBreakdown, len(result.Rows))

	for _, row := range result.Rows {
		rate, ok := result.ContingencyRates[row.PhaseCode]
		if !ok {
			rate = DefaultContingency
		}

		contingency := row.DirectCost.Mul(rate)
		overhead := row.DirectCost.Add(contingency).Mul(project.OverheadPct)
		profit := row.DirectCost.Add(contingency).Add(overhead).Mul(project.ProfitPct)

		breakdowns[row.ItemID] = model.CostBreakdown{
			ItemID:      row.ItemID,
			Material:    row.MaterialCost,
			Labor:       row.LaborCost,
			Equipment:   row.EquipmentCost,
			Subcontract: row.SubcontractCost,
			Contingency: contingency,
			Overhead:    overhead,
			Profit:      profit,
			LaborHours:  row.LaborHours,
			Quantity:    row.Quantity,
		}
	}

	return breakdowns
}
