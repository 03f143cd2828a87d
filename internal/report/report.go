// Package report builds tabular cost reports from computed breakdowns
// and exports them as CSV, XLSX, or JSON. Builders only arrange and sort;
// every figure comes from the calculator and rollup packages.
package report

import (
	"strconv"

	"github.com/meridian-build/estimator/internal/model"
)

// Table is one rectangular report: ordered column names plus stringified
// rows. Money cells keep their exact decimal form.
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// records reshapes the table into one object per row for JSON export.
func (t *Table) records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

// ratio renders an efficiency or percentage figure.
func ratio(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// displayPhase and displayTrade match the rollup views: untagged items
// land in the unclassified phase and the general trade.
func displayPhase(it model.LineItem) model.Phase {
	if it.Phase == "" {
		return model.PhaseUnclassified
	}
	return it.Phase
}

func displayTrade(it model.LineItem) model.Trade {
	if it.Trade == "" {
		return model.TradeGeneral
	}
	return it.Trade
}
