package catalog

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// indexColumns maps header names to column positions and verifies the
// required columns are present. Optional columns index to -1.
func indexColumns(header []string, required []string) (map[string]int, error) {
	cols := map[string]int{
		"item_description":        -1,
		"trade":                   -1,
		"unit":                    -1,
		"material_unit_cost":      -1,
		"labor_hours_per_unit":    -1,
		"labor_rate_per_hour":     -1,
		"equipment_cost_per_unit": -1,
		"overhead_rate":           -1,
		"profit_rate":             -1,
		"location":                -1,
		"source":                  -1,
		"date_updated":            -1,
		"notes":                   -1,
	}

	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, known := cols[key]; known {
			cols[key] = i
		}
	}

	var missing []string
	for _, name := range required {
		if cols[name] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return cols, nil
}

// cell returns the trimmed value at a column index, or "" when the column
// is absent or the row is short.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// normalizeCell lowercases a cell for enum comparison.
func normalizeCell(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// parseOptionalDecimal parses a decimal cell, returning nil when the cell is
// empty or invalid.
func parseOptionalDecimal(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// dateFormats are the layouts accepted for date_updated cells.
var dateFormats = []string{"2006-01-02", "01/02/2006", "02/01/2006"}

// parseOptionalDate parses a date cell, returning nil when the cell is empty
// or matches no known layout.
func parseOptionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
