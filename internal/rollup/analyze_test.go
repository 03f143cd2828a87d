package rollup

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-build/estimator/internal/model"
)

func TestDistribution_Percentages(t *testing.T) {
	t.Parallel()

	totals := map[string]decimal.Decimal{
		"foundation": dec("250"),
		"structure":  dec("750"),
	}
	dist := Distribution(totals)
	require.Len(t, dist, 2)
	assert.InDelta(t, 25.0, dist["foundation"], 1e-9)
	assert.InDelta(t, 75.0, dist["structure"], 1e-9)
}

func TestDistribution_ZeroTotalYieldsNothing(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Distribution(map[string]decimal.Decimal{"a": decimal.Zero}))
	assert.Empty(t, Distribution(nil))
}

// outlierFixture puts nine items at 100 and one at 10000, which works out
// to a mean of 1090 and a standard deviation of exactly 2970.
func outlierFixture() map[string]model.CostBreakdown {
	breakdowns := make(map[string]model.CostBreakdown, 10)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
		breakdowns[id] = breakdown(id, "100", "0", "1")
	}
	breakdowns["spike"] = breakdown("spike", "10000", "0", "1")
	return breakdowns
}

func TestOutliers_FindsHighCostItem(t *testing.T) {
	t.Parallel()

	// The spike sits at z = 8910/2970 = 3.0.
	outliers := Outliers(outlierFixture(), 0)
	assert.Equal(t, []string{"spike"}, outliers)
}

func TestOutliers_ThresholdIsStrict(t *testing.T) {
	t.Parallel()

	fixture := outlierFixture()
	assert.Equal(t, []string{"spike"}, Outliers(fixture, 2.9))
	assert.Empty(t, Outliers(fixture, 3.0), "z equal to the threshold is not an outlier")
	assert.Empty(t, Outliers(fixture, 3.5))
}

func TestOutliers_IdenticalCostsYieldNone(t *testing.T) {
	t.Parallel()

	breakdowns := map[string]model.CostBreakdown{
		"a": breakdown("a", "500", "0", "1"),
		"b": breakdown("b", "500", "0", "1"),
		"c": breakdown("c", "500", "0", "1"),
	}
	assert.Empty(t, Outliers(breakdowns, 2.0))
}

func TestOutliers_EmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Outliers(nil, 2.0))
}

func TestEfficiency_Shares(t *testing.T) {
	t.Parallel()

	breakdowns := map[string]model.CostBreakdown{
		"a": {
			ItemID:    "a",
			Material:  dec("50"),
			Labor:     dec("30"),
			Equipment: dec("20"),
			Quantity:  dec("4"),
		},
	}
	metrics := Efficiency(breakdowns)
	require.Contains(t, metrics, "a")

	m := metrics["a"]
	assert.InDelta(t, 0.3, m.LaborShare, 1e-9)
	assert.InDelta(t, 0.5, m.MaterialShare, 1e-9)
	assert.InDelta(t, 0.2, m.Overall, 1e-9)
	assertDecimal(t, "25", m.CostPerUnit, "cost per unit")
}

func TestEfficiency_ZeroTotal(t *testing.T) {
	t.Parallel()

	metrics := Efficiency(map[string]model.CostBreakdown{
		"a": {ItemID: "a", Quantity: dec("1")},
	})
	m := metrics["a"]
	assert.Zero(t, m.LaborShare)
	assert.Zero(t, m.MaterialShare)
	assert.InDelta(t, 1.0, m.Overall, 1e-9)
}

func TestCompareBenchmarks_VarianceAndStatus(t *testing.T) {
	t.Parallel()

	totals := map[string]decimal.Decimal{
		"concrete":   dec("1100"),
		"electrical": dec("900"),
		"plumbing":   dec("500"),
		"roofing":    dec("200"),
	}
	benchmarks := map[string]decimal.Decimal{
		"concrete":   dec("1000"),
		"electrical": dec("1000"),
		"plumbing":   dec("500"),
	}

	comparison := CompareBenchmarks(totals, benchmarks)
	require.Len(t, comparison, 3, "roofing has no benchmark")

	concrete := comparison["concrete"]
	assertDecimal(t, "100", concrete.Variance, "concrete variance")
	assertDecimal(t, "10", concrete.VariancePct, "concrete variance pct")
	assert.Equal(t, StatusAbove, concrete.Status)

	electrical := comparison["electrical"]
	assertDecimal(t, "-100", electrical.Variance, "electrical variance")
	assertDecimal(t, "-10", electrical.VariancePct, "electrical variance pct")
	assert.Equal(t, StatusBelow, electrical.Status)

	plumbing := comparison["plumbing"]
	assert.True(t, plumbing.Variance.IsZero())
	assert.Equal(t, StatusOnTarget, plumbing.Status)
}

func TestCompareBenchmarks_ZeroBenchmarkSkipsPercentage(t *testing.T) {
	t.Parallel()

	comparison := CompareBenchmarks(
		map[string]decimal.Decimal{"misc": dec("50")},
		map[string]decimal.Decimal{"misc": decimal.Zero},
	)
	misc := comparison["misc"]
	assertDecimal(t, "50", misc.Variance, "variance")
	assert.True(t, misc.VariancePct.IsZero(), "no percentage against a zero benchmark")
	assert.Equal(t, StatusAbove, misc.Status)
}
