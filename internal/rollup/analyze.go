package rollup

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/meridian-build/estimator/internal/model"
)

var hundred = decimal.NewFromInt(100)

// DefaultOutlierThreshold is the z-score above which an item total counts
// as an outlier.
const DefaultOutlierThreshold = 2.0

// Distribution returns each bucket's share of the combined total as a
// percentage. A non-positive combined total yields nil.
func Distribution(totals map[string]decimal.Decimal) map[string]float64 {
	combined := decimal.Zero
	for _, t := range totals {
		combined = combined.Add(t)
	}
	if !combined.IsPositive() {
		return nil
	}
	dist := make(map[string]float64, len(totals))
	for key, t := range totals {
		dist[key] = t.Div(combined).Mul(hundred).InexactFloat64()
	}
	return dist
}

// Outliers returns the IDs of items whose total cost sits more than
// threshold standard deviations from the population mean. A threshold of
// zero or less uses DefaultOutlierThreshold. Identical costs have zero
// deviation and produce no outliers.
func Outliers(breakdowns map[string]model.CostBreakdown, threshold float64) []string {
	if len(breakdowns) == 0 {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultOutlierThreshold
	}

	ids := make([]string, 0, len(breakdowns))
	for id := range breakdowns {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	costs := make([]float64, len(ids))
	var sum float64
	for i, id := range ids {
		costs[i] = breakdowns[id].Total().InexactFloat64()
		sum += costs[i]
	}
	mean := sum / float64(len(costs))

	var variance float64
	for _, c := range costs {
		variance += (c - mean) * (c - mean)
	}
	stddev := math.Sqrt(variance / float64(len(costs)))
	if stddev == 0 {
		return nil
	}

	var outliers []string
	for i, id := range ids {
		if math.Abs(costs[i]-mean)/stddev > threshold {
			outliers = append(outliers, id)
		}
	}
	return outliers
}

// ItemEfficiency describes how one item's cost splits between labor,
// material, and everything else.
type ItemEfficiency struct {
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	LaborShare    float64         `json:"labor_share"`
	MaterialShare float64         `json:"material_share"`
	Overall       float64         `json:"overall"`
}

// Efficiency computes per-item cost composition ratios. Shares are of the
// item's total cost; Overall is the remainder once labor and material are
// taken out.
func Efficiency(breakdowns map[string]model.CostBreakdown) map[string]ItemEfficiency {
	metrics := make(map[string]ItemEfficiency, len(breakdowns))
	for id, cb := range breakdowns {
		total := cb.Total()
		var laborShare, materialShare float64
		if total.IsPositive() {
			laborShare = cb.Labor.Div(total).InexactFloat64()
			materialShare = cb.Material.Div(total).InexactFloat64()
		}
		metrics[id] = ItemEfficiency{
			CostPerUnit:   cb.CostPerUnit(),
			LaborShare:    laborShare,
			MaterialShare: materialShare,
			Overall:       1 - laborShare - materialShare,
		}
	}
	return metrics
}

// BenchmarkStatus classifies a variance against its benchmark.
type BenchmarkStatus string

const (
	StatusAbove    BenchmarkStatus = "above"
	StatusBelow    BenchmarkStatus = "below"
	StatusOnTarget BenchmarkStatus = "on_target"
)

// BenchmarkComparison holds one bucket's actual cost against its benchmark.
type BenchmarkComparison struct {
	Actual      decimal.Decimal `json:"actual"`
	Benchmark   decimal.Decimal `json:"benchmark"`
	Variance    decimal.Decimal `json:"variance"`
	VariancePct decimal.Decimal `json:"variance_pct"`
	Status      BenchmarkStatus `json:"status"`
}

// CompareBenchmarks lines bucket totals up against external benchmark
// values. Only keys present in both maps are compared; a non-positive
// benchmark leaves the percentage at zero.
func CompareBenchmarks(totals, benchmarks map[string]decimal.Decimal) map[string]BenchmarkComparison {
	comparison := make(map[string]BenchmarkComparison)
	for key, actual := range totals {
		benchmark, ok := benchmarks[key]
		if !ok {
			continue
		}
		variance := actual.Sub(benchmark)
		variancePct := decimal.Zero
		if benchmark.IsPositive() {
			variancePct = variance.Div(benchmark).Mul(hundred)
		}
		status := StatusOnTarget
		switch {
		case variance.IsPositive():
			status = StatusAbove
		case variance.IsNegative():
			status = StatusBelow
		}
		comparison[key] = BenchmarkComparison{
			Actual:      actual,
			Benchmark:   benchmark,
			Variance:    variance,
			VariancePct: variancePct,
			Status:      status,
		}
	}
	return comparison
}
