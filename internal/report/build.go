package report

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/meridian-build/estimator/internal/model"
	"github.com/meridian-build/estimator/internal/rollup"
)

// Detailed lists every costed line item with its full breakdown, ordered
// by trade, then phase, then description.
func Detailed(breakdowns map[string]model.CostBreakdown, items []model.LineItem) *Table {
	costed := make([]model.LineItem, 0, len(items))
	for _, it := range items {
		if _, ok := breakdowns[it.ID]; ok {
			costed = append(costed, it)
		}
	}
	sort.Slice(costed, func(i, j int) bool {
		a, b := costed[i], costed[j]
		if displayTrade(a) != displayTrade(b) {
			return displayTrade(a) < displayTrade(b)
		}
		if displayPhase(a) != displayPhase(b) {
			return displayPhase(a) < displayPhase(b)
		}
		return a.Description < b.Description
	})

	t := &Table{
		Title: "Detailed Cost Report",
		Columns: []string{
			"id", "description", "quantity", "unit", "trade", "phase",
			"material_cost", "labor_cost", "equipment_cost", "subcontract_cost",
			"contingency", "overhead", "profit", "total_cost", "cost_per_unit",
		},
	}
	for _, it := range costed {
		cb := breakdowns[it.ID]
		t.Rows = append(t.Rows, []string{
			it.ID, it.Description, it.Quantity.String(), it.Unit,
			string(displayTrade(it)), string(displayPhase(it)),
			cb.Material.String(), cb.Labor.String(), cb.Equipment.String(), cb.Subcontract.String(),
			cb.Contingency.String(), cb.Overhead.String(), cb.Profit.String(),
			cb.Total().String(), cb.CostPerUnit().String(),
		})
	}
	return t
}

// Summary groups costs by phase and by trade in one table, phases first,
// largest total first within each group.
func Summary(breakdowns map[string]model.CostBreakdown, items []model.LineItem) *Table {
	t := &Table{
		Title: "Cost Summary Report",
		Columns: []string{
			"category_type", "category", "total_cost", "material_cost", "labor_cost",
			"equipment_cost", "overhead", "profit", "line_item_count", "quantity",
		},
	}

	type entry struct {
		name string
		b    *rollup.Bucket
	}
	appendGroup := func(kind string, entries []entry) {
		sort.Slice(entries, func(i, j int) bool {
			if !entries[i].b.Total.Equal(entries[j].b.Total) {
				return entries[i].b.Total.GreaterThan(entries[j].b.Total)
			}
			return entries[i].name < entries[j].name
		})
		for _, e := range entries {
			t.Rows = append(t.Rows, []string{
				kind, e.name, e.b.Total.String(), e.b.Material.String(), e.b.Labor.String(),
				e.b.Equipment.String(), e.b.Overhead.String(), e.b.Profit.String(),
				strconv.Itoa(len(e.b.LineItems)), e.b.Quantity.String(),
			})
		}
	}

	var phases []entry
	for p, b := range rollup.ByPhase(breakdowns, items) {
		phases = append(phases, entry{string(p), b})
	}
	appendGroup("Phase", phases)

	var trades []entry
	for tr, b := range rollup.ByTrade(breakdowns, items) {
		trades = append(trades, entry{string(tr), b})
	}
	appendGroup("Trade", trades)

	return t
}

// Rooms breaks costs down per room with cost per square foot, largest
// total first. Cost that had no room area to land in gets an unallocated
// row at the bottom.
func Rooms(breakdowns map[string]model.CostBreakdown, items []model.LineItem, rooms []model.Room) *Table {
	view := rollup.ByRoom(breakdowns, items, rooms)

	t := &Table{
		Title: "Room Cost Breakdown",
		Columns: []string{
			"room_name", "area", "total_cost", "material_cost", "labor_cost",
			"equipment_cost", "overhead", "profit", "cost_per_sf", "line_item_count",
		},
	}

	type entry struct {
		name string
		b    *rollup.RoomBucket
	}
	var entries []entry
	for name, b := range view.Rooms {
		entries = append(entries, entry{name, b})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].b.Total.Equal(entries[j].b.Total) {
			return entries[i].b.Total.GreaterThan(entries[j].b.Total)
		}
		return entries[i].name < entries[j].name
	})

	for _, e := range entries {
		t.Rows = append(t.Rows, []string{
			e.name, e.b.Area.String(), e.b.Total.String(), e.b.Material.String(),
			e.b.Labor.String(), e.b.Equipment.String(), e.b.Overhead.String(),
			e.b.Profit.String(), e.b.CostPerArea.String(), strconv.Itoa(len(e.b.LineItems)),
		})
	}

	if !view.Unallocated.IsZero() {
		t.Rows = append(t.Rows, []string{
			"(unallocated)", "", view.Unallocated.String(), "", "", "", "", "", "",
			strconv.Itoa(len(view.UnallocatedItems)),
		})
	}
	return t
}

// Analysis ranks items by total cost and attaches their efficiency shares.
func Analysis(breakdowns map[string]model.CostBreakdown, items []model.LineItem) *Table {
	eff := rollup.Efficiency(breakdowns)

	costed := make([]model.LineItem, 0, len(items))
	for _, it := range items {
		if _, ok := breakdowns[it.ID]; ok {
			costed = append(costed, it)
		}
	}
	sort.Slice(costed, func(i, j int) bool {
		ti := breakdowns[costed[i].ID].Total()
		tj := breakdowns[costed[j].ID].Total()
		if !ti.Equal(tj) {
			return ti.GreaterThan(tj)
		}
		return costed[i].ID < costed[j].ID
	})

	t := &Table{
		Title: "Cost Analysis Report",
		Columns: []string{
			"id", "description", "trade", "phase", "total_cost", "cost_per_unit",
			"labor_efficiency", "material_efficiency", "overall_efficiency",
			"quantity", "unit",
		},
	}
	for _, it := range costed {
		cb := breakdowns[it.ID]
		e := eff[it.ID]
		t.Rows = append(t.Rows, []string{
			it.ID, it.Description, string(displayTrade(it)), string(displayPhase(it)),
			cb.Total().String(), cb.CostPerUnit().String(),
			ratio(e.LaborShare), ratio(e.MaterialShare), ratio(e.Overall),
			it.Quantity.String(), it.Unit,
		})
	}
	return t
}

// CostClasses shows how items distribute across cost bands: item counts,
// totals, averages, and the share of all items in each band.
func CostClasses(breakdowns map[string]model.CostBreakdown, ranges rollup.RangeSet) *Table {
	if ranges == nil {
		ranges = rollup.DefaultRanges()
	}
	classes := ranges.ClassifyItems(breakdowns)

	type entry struct {
		label string
		ids   []string
		total decimal.Decimal
	}
	var entries []entry
	for label, ids := range classes {
		total := decimal.Zero
		for _, id := range ids {
			total = total.Add(breakdowns[id].Total())
		}
		entries = append(entries, entry{label: label, ids: ids, total: total})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].total.Equal(entries[j].total) {
			return entries[i].total.GreaterThan(entries[j].total)
		}
		return entries[i].label < entries[j].label
	})

	t := &Table{
		Title:   "Cost Class Distribution",
		Columns: []string{"cost_class", "item_count", "total_cost", "avg_cost", "percentage"},
	}
	for _, e := range entries {
		count := int64(len(e.ids))
		avg := e.total.Div(decimal.NewFromInt(count))
		share := float64(count) / float64(len(breakdowns)) * 100
		t.Rows = append(t.Rows, []string{
			e.label, strconv.FormatInt(count, 10), e.total.String(), avg.String(), ratio(share),
		})
	}
	return t
}

// Comparison lines trade actuals up against benchmark costs, largest
// variance percentage first. Only trades present in both sets appear.
func Comparison(breakdowns map[string]model.CostBreakdown, items []model.LineItem, benchmarks map[string]decimal.Decimal) *Table {
	totals := rollup.ByTrade(breakdowns, items).Totals()
	comps := rollup.CompareBenchmarks(totals, benchmarks)

	type entry struct {
		trade string
		c     rollup.BenchmarkComparison
	}
	var entries []entry
	for trade, c := range comps {
		entries = append(entries, entry{trade, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].c.VariancePct.Equal(entries[j].c.VariancePct) {
			return entries[i].c.VariancePct.GreaterThan(entries[j].c.VariancePct)
		}
		return entries[i].trade < entries[j].trade
	})

	t := &Table{
		Title:   "Benchmark Comparison",
		Columns: []string{"trade", "actual_cost", "benchmark_cost", "variance", "variance_pct", "status"},
	}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{
			e.trade, e.c.Actual.String(), e.c.Benchmark.String(),
			e.c.Variance.String(), e.c.VariancePct.String(), string(e.c.Status),
		})
	}
	return t
}
