package rollup

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-build/estimator/internal/model"
)

func TestBuildSummary_TotalsAndPercentages(t *testing.T) {
	t.Parallel()

	project := model.Project{
		Name:          "warehouse shell",
		Location:      "Denver, CO",
		EstimateClass: model.Class3,
	}
	// Direct 1000 with the reference 0.10/0.15/0.10 markup cascade.
	breakdowns := map[string]model.CostBreakdown{
		"a": {
			ItemID:      "a",
			Material:    dec("400"),
			Labor:       dec("300"),
			Equipment:   dec("200"),
			Subcontract: dec("100"),
			Contingency: dec("100"),
			Overhead:    dec("165"),
			Profit:      dec("126.5"),
			Quantity:    dec("10"),
		},
	}
	items := []model.LineItem{{ID: "a", Phase: model.PhaseFoundation, Trade: model.TradeConcrete}}
	rooms := []model.Room{{Name: "bay 1", Area: dec("100")}}

	report := BuildSummary(project, breakdowns, items, rooms)
	require.NotNil(t, report)

	assert.Equal(t, "warehouse shell", report.Project.Name)
	assert.Equal(t, model.Class3, report.Project.EstimateClass)
	assert.Equal(t, 1, report.Project.RoomCount)
	assert.Equal(t, 1, report.Project.LineItemCount)
	assertDecimal(t, "100", report.Project.TotalArea, "total area")

	assertDecimal(t, "1391.5", report.Costs.TotalCost, "grand total")
	assertDecimal(t, "400", report.Costs.TotalMaterial, "material")
	assertDecimal(t, "300", report.Costs.TotalLabor, "labor")
	assertDecimal(t, "200", report.Costs.TotalEquipment, "equipment")
	assertDecimal(t, "100", report.Costs.TotalSubcontract, "subcontract")
	assertDecimal(t, "100", report.Costs.TotalContingency, "contingency")
	assertDecimal(t, "165", report.Costs.TotalOverhead, "overhead")
	assertDecimal(t, "126.5", report.Costs.TotalProfit, "profit")
	assertDecimal(t, "13.915", report.Costs.CostPerArea, "cost per sf")

	// Material/labor/equipment/subcontract against direct cost.
	assert.InDelta(t, 40.0, report.Percentages.MaterialPct, 1e-9)
	assert.InDelta(t, 30.0, report.Percentages.LaborPct, 1e-9)
	assert.InDelta(t, 20.0, report.Percentages.EquipmentPct, 1e-9)
	assert.InDelta(t, 10.0, report.Percentages.SubcontractPct, 1e-9)
	// Overhead/profit against the grand total.
	assert.InDelta(t, 11.8577, report.Percentages.OverheadPct, 0.001)
	assert.InDelta(t, 9.0909, report.Percentages.ProfitPct, 0.001)
}

func TestBuildSummary_ViewsPopulated(t *testing.T) {
	t.Parallel()

	breakdowns, items := testFixture()
	report := BuildSummary(model.Project{Name: "p"}, breakdowns, items, testRooms())

	assert.Contains(t, report.Rollups.ByPhase, model.PhaseFoundation)
	assert.Contains(t, report.Rollups.ByTrade, model.TradeConcrete)
	assert.Contains(t, report.Rollups.ByCostType, model.CostTypeMaterial)
	assert.Contains(t, report.Rollups.ByPhaseTrade, "foundation_concrete")
	require.NotNil(t, report.Rollups.ByRoom)
	assert.Len(t, report.Rollups.ByRoom.Rooms, 2)
}

func TestBuildSummary_EmptyRun(t *testing.T) {
	t.Parallel()

	report := BuildSummary(model.Project{Name: "empty"}, nil, nil, nil)
	require.NotNil(t, report)

	assert.Zero(t, report.Project.LineItemCount)
	assert.True(t, report.Costs.TotalCost.IsZero())
	assert.True(t, report.Costs.CostPerArea.IsZero())
	assert.Zero(t, report.Percentages.MaterialPct)
	assert.Zero(t, report.Percentages.OverheadPct)
	assert.Empty(t, report.Rollups.ByPhase)
	assert.True(t, decimal.Zero.Equal(report.Project.TotalArea))
}
