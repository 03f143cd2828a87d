package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-build/estimator/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testProject() model.Project {
	return model.Project{
		Name:          "test project",
		EstimateClass: model.Class3,
		OverheadPct:   dec("0.15"),
		ProfitPct:     dec("0.10"),
	}
}

func foundationPhase() []model.PhaseConfig {
	return []model.PhaseConfig{
		{Code: model.PhaseFoundation, Name: "Foundation", ContingencyPct: dec("0.10")},
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "%s: want %s, got %s", msg, want, got)
}

func TestCompute_CostCascade(t *testing.T) {
	t.Parallel()

	// One material-only item with direct cost 1000.
	items := []model.LineItem{{
		ID:               "i1",
		Phase:            model.PhaseFoundation,
		Trade:            model.TradeConcrete,
		Description:      "slab",
		Unit:             "SF",
		Quantity:         dec("100"),
		MaterialUnitCost: dec("10"),
	}}

	c := New(nil, Options{})
	result, err := c.Compute(testProject(), foundationPhase(), items, nil, nil)
	require.NoError(t, err)

	assertDecimal(t, "1000", result.Summary.DirectTotal, "direct")
	assertDecimal(t, "100", result.Summary.ContingencyTotal, "contingency")
	assertDecimal(t, "165", result.Summary.Overhead, "overhead")
	assertDecimal(t, "126.5", result.Summary.Profit, "profit")
	assertDecimal(t, "1391.5", result.Summary.GrandTotal, "grand total")
	assert.Equal(t, model.Class3, result.Summary.EstimateClass)
}

func TestCompute_MaterialIncludesWaste(t *testing.T) {
	t.Parallel()

	items := []model.LineItem{{
		ID:               "i1",
		Phase:            model.PhaseFoundation,
		Quantity:         dec("100"),
		WastePct:         dec("0.10"),
		MaterialUnitCost: dec("2"),
	}}

	c := New(nil, Options{})
	result, err := c.Compute(testProject(), foundationPhase(), items, nil, nil)
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assertDecimal(t, "220", result.Rows[0].MaterialCost, "material with waste")
	assertDecimal(t, "220", result.Rows[0].DirectCost, "direct")
}

func TestCompute_EquipmentUsesUsageHours(t *testing.T) {
	t.Parallel()

	items := []model.LineItem{{
		ID:            "i1",
		Phase:         model.PhaseFoundation,
		Quantity:      dec("1"),
		EquipmentRate: dec("75"),
		UsageHours:    dec("10"),
	}}

	c := New(nil, Options{})
	result, err := c.Compute(testProject(), foundationPhase(), items, nil, nil)
	require.NoError(t, err)

	assertDecimal(t, "750", result.Rows[0].EquipmentCost, "equipment")
}

func TestCompute_LaborFromProductivity(t *testing.T) {
	t.Parallel()

	items := []model.LineItem{{
		ID:         "i1",
		Phase:      model.PhaseFoundation,
		Code:       "03 30 00",
		Quantity:   dec("100"),
		LaborClass: "Laborer",
	}}
	laborClasses := []model.LaborClass{
		{Name: "Laborer", BaseRate: dec("40"), BurdenPct: dec("0.45")},
	}
	productivities := []model.ProductivityEntry{
		{ItemCode: "03 30 00", HoursPerUnit: dec("0.15"), Factors: map[string]float64{"weather": 1.1}},
	}

	c := New(nil, Options{})
	result, err := c.Compute(testProject(), foundationPhase(), items, laborClasses, productivities)
	require.NoError(t, err)

	row := result.Rows[0]
	// 100 * 0.15 * 1.1 = 16.5 hours at 40 * 1.45 = 58/hr.
	assertDecimal(t, "16.5", row.LaborHours, "labor hours")
	assertDecimal(t, "957", row.LaborCost, "labor cost")
}

func TestCompute_RegionalFactorScalesHours(t *testing.T) {
	t.Parallel()

	project := testProject()
	project.RegionalFactor = dec("1.25")

	items := []model.LineItem{{
		ID:         "i1",
		Phase:      model.PhaseFoundation,
		Code:       "03 30 00",
		Quantity:   dec("100"),
		LaborClass: "Laborer",
	}}
	laborClasses := []model.LaborClass{{Name: "Laborer", BaseRate: dec("40")}}
	productivities := []model.ProductivityEntry{{ItemCode: "03 30 00", HoursPerUnit: dec("0.15")}}

	c := New(nil, Options{})
	result, err := c.Compute(project, foundationPhase(), items, laborClasses, productivities)
	require.NoError(t, err)

	assertDecimal(t, "18.75", result.Rows[0].LaborHours, "regionally scaled hours")
}

func TestCompute_ZeroRegionalFactorMeansUnscaled(t *testing.T) {
	t.Parallel()

	items := []model.LineItem{{
		ID:         "i1",
		Phase:      model.PhaseFoundation,
		Code:       "03 30 00",
		Quantity:   dec("100"),
		LaborClass: "Laborer",
	}}
	laborClasses := []model.LaborClass{{Name: "Laborer", BaseRate: dec("40")}}
	productivities := []model.ProductivityEntry{{ItemCode: "03 30 00", HoursPerUnit: dec("0.15")}}

	c := New(nil, Options{})
	result, err := c.Compute(testProject(), foundationPhase(), items, laborClasses, productivities)
	require.NoError(t, err)

	assertDecimal(t, "15", result.Rows[0].LaborHours, "unscaled hours")
}

func TestCompute_SubcontractLumpSumWins(t *testing.T) {
	t.Parallel()

	items := []model.LineItem{{
		ID:                  "i1",
		Phase:               model.PhaseFoundation,
		Quantity:            dec("100"),
		SubcontractUnitRate: decPtr("5"),
		SubcontractLumpSum:  decPtr("450"),
	}}

	c := New(nil, Options{})
	result, err := c.Compute(testProject(), foundationPhase(), items, nil, nil)
	require.NoError(t, err)

	assertDecimal(t, "450", result.Rows[0].SubcontractCost, "lump sum wins")
}

func TestCompute_SubcontractUnitRate(t *testing.T) {
	t.Parallel()

	items := []model.LineItem{{
		ID:                  "i1",
		Phase:               model.PhaseFoundation,
		Quantity:            dec("100"),
		WastePct:            dec("0.10"),
		SubcontractUnitRate: decPtr("5"),
	}}

	c := New(nil, Options{})
	result, err := c.Compute(testProject(), foundationPhase(), items, nil, nil)
	require.NoError(t, err)

	// Subcontract pricing ignores waste.
	assertDecimal(t, "500", result.Rows[0].SubcontractCost, "unit rate subcontract")
}

func TestCompute_UnknownLaborClassFails(t *testing.T) {
	t.Parallel()

	items := []model.LineItem{{
		ID:         "i1",
		Phase:      model.PhaseFoundation,
		Quantity:   dec("10"),
		LaborClass: "Ironworker",
	}}

	c := New(nil, Options{})
	_, err := c.Compute(testProject(), foundationPhase(), items, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ironworker")
}

func TestCompute_MissingProductivityZeroHours(t *testing.T) {
	t.Parallel()

	items := []model.LineItem{{
		ID:               "i1",
		Phase:            model.PhaseFoundation,
		Code:             "99 99 99",
		Quantity:         dec("10"),
		LaborClass:       "Laborer",
		MaterialUnitCost: dec("3"),
	}}
	laborClasses := []model.LaborClass{{Name: "Laborer", BaseRate: dec("40")}}

	c := New(nil, Options{})
	result, err := c.Compute(testProject(), foundationPhase(), items, laborClasses, nil)
	require.NoError(t, err)

	row := result.Rows[0]
	assert.True(t, row.LaborHours.IsZero())
	assert.True(t, row.LaborCost.IsZero())
	assertDecimal(t, "30", row.MaterialCost, "material still costed")
}

func TestCompute_EmptyPhaseFallsBackToUnclassified(t *testing.T) {
	t.Parallel()

	items := []model.LineItem{{
		ID:               "i1",
		Quantity:         dec("10"),
		MaterialUnitCost: dec("10"),
	}}

	c := New(nil, Options{})
	result, err := c.Compute(testProject(), foundationPhase(), items, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, model.PhaseUnclassified, result.Rows[0].PhaseCode)
	assertDecimal(t, "100", result.PhaseDirect[model.PhaseUnclassified], "unclassified direct")
	assertDecimal(t, "10", result.PhaseContingency[model.PhaseUnclassified], "default contingency applies")
}

func TestCompute_UnconfiguredPhaseKeepsCodeWithDefaultRate(t *testing.T) {
	t.Parallel()

	items := []model.LineItem{{
		ID:               "i1",
		Phase:            model.PhaseElectrical,
		Quantity:         dec("10"),
		MaterialUnitCost: dec("10"),
	}}

	c := New(nil, Options{})
	result, err := c.Compute(testProject(), foundationPhase(), items, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, model.PhaseElectrical, result.Rows[0].PhaseCode)
	assertDecimal(t, "100", result.PhaseDirect[model.PhaseElectrical], "phase direct")
	assertDecimal(t, "10", result.PhaseContingency[model.PhaseElectrical], "default rate")
}

func TestCompute_ConfiguredZeroContingencyIsAuthoritative(t *testing.T) {
	t.Parallel()

	phases := []model.PhaseConfig{
		{Code: model.PhaseCloseout, Name: "Closeout", ContingencyPct: decimal.Zero},
	}
	items := []model.LineItem{{
		ID:               "i1",
		Phase:            model.PhaseCloseout,
		Quantity:         dec("10"),
		MaterialUnitCost: dec("10"),
	}}

	c := New(nil, Options{})
	result, err := c.Compute(testProject(), phases, items, nil, nil)
	require.NoError(t, err)

	assert.True(t, result.Summary.ContingencyTotal.IsZero())
}

func TestCompute_PerPhaseContingencyRates(t *testing.T) {
	t.Parallel()

	phases := []model.PhaseConfig{
		{Code: model.PhaseFoundation, ContingencyPct: dec("0.10")},
		{Code: model.PhaseStructure, ContingencyPct: dec("0.05")},
	}
	items := []model.LineItem{
		{ID: "i1", Phase: model.PhaseFoundation, Quantity: dec("100"), MaterialUnitCost: dec("10")},
		{ID: "i2", Phase: model.PhaseStructure, Quantity: dec("100"), MaterialUnitCost: dec("20")},
	}

	c := New(nil, Options{})
	result, err := c.Compute(testProject(), phases, items, nil, nil)
	require.NoError(t, err)

	assertDecimal(t, "100", result.PhaseContingency[model.PhaseFoundation], "foundation at 10%")
	assertDecimal(t, "100", result.PhaseContingency[model.PhaseStructure], "structure at 5%")
	assertDecimal(t, "200", result.Summary.ContingencyTotal, "total")
}

func TestCompute_EmptyItems(t *testing.T) {
	t.Parallel()

	c := New(nil, Options{})
	result, err := c.Compute(testProject(), foundationPhase(), nil, nil, nil)
	require.NoError(t, err)

	assert.Empty(t, result.Rows)
	assert.True(t, result.Summary.GrandTotal.IsZero())
	// Configured phases are present even with no items.
	assertDecimal(t, "0", result.PhaseDirect[model.PhaseFoundation], "configured phase present")
}

func TestCompute_CustomDefaultContingency(t *testing.T) {
	t.Parallel()

	items := []model.LineItem{{
		ID:               "i1",
		Phase:            model.PhaseSiteWork,
		Quantity:         dec("100"),
		MaterialUnitCost: dec("10"),
	}}

	c := New(nil, Options{DefaultContingency: dec("0.20")})
	result, err := c.Compute(testProject(), nil, items, nil, nil)
	require.NoError(t, err)

	assertDecimal(t, "200", result.Summary.ContingencyTotal, "custom default rate")
}
