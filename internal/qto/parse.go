package qto

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/meridian-build/estimator/internal/model"
)

var one = decimal.NewFromInt(1)

// Takeoff column names. Only description, quantity, and unit must be
// present; everything else is optional.
var (
	itemColumns = []string{
		"id", "phase", "trade", "code", "description", "unit", "quantity",
		"waste_pct", "cost_type", "labor_class", "material_unit_cost",
		"equipment_rate_per_hr", "usage_hours", "subcontract_unit_rate",
		"subcontract_lump_sum", "rooms",
	}
	itemRequired = []string{"description", "quantity", "unit"}

	roomColumns  = []string{"name", "area", "height", "multiplier"}
	roomRequired = []string{"name", "area"}
)

// indexHeader maps known column names to positions, case-insensitively.
// Unknown header columns are ignored; missing required ones are an error.
func indexHeader(header, known, required []string) (map[string]int, error) {
	cols := make(map[string]int, len(known))
	for _, name := range known {
		cols[name] = -1
	}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := cols[key]; ok {
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

// rowReader reads typed cells out of one takeoff row, collecting an issue
// for every cell that fails to parse. A row with any issue is rejected as a
// whole, but all of its problems are reported at once.
type rowReader struct {
	cols   map[string]int
	row    []string
	rowNum int
	issues []ValidationIssue
}

func (r *rowReader) cell(name string) string {
	idx := r.cols[name]
	if idx < 0 || idx >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[idx])
}

func (r *rowReader) lower(name string) string {
	return strings.ToLower(r.cell(name))
}

// positive parses a required cell that must hold a positive number.
func (r *rowReader) positive(name string) decimal.Decimal {
	s := r.cell(name)
	if s == "" {
		r.fail(name, "must not be empty")
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		r.fail(name, "not a number")
		return decimal.Zero
	}
	if !d.IsPositive() {
		r.fail(name, "must be positive")
		return decimal.Zero
	}
	return d
}

// decimalOr parses an optional numeric cell, falling back when it is empty.
func (r *rowReader) decimalOr(name string, fallback decimal.Decimal) decimal.Decimal {
	s := r.cell(name)
	if s == "" {
		return fallback
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		r.fail(name, "not a number")
		return fallback
	}
	return d
}

// optionalDecimal parses a numeric cell that may be absent entirely.
func (r *rowReader) optionalDecimal(name string) *decimal.Decimal {
	s := r.cell(name)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		r.fail(name, "not a number")
		return nil
	}
	return &d
}

func (r *rowReader) fail(field, message string) {
	r.issues = append(r.issues, issue(r.rowNum, field, message))
}

func (r *rowReader) ok() bool {
	return len(r.issues) == 0
}

// ParseItems turns header-indexed rows into line items. Rows that fail
// validation are reported and left out, so every returned item satisfies
// the calculator's input contract. Items without an id get a generated one.
func ParseItems(header []string, rows [][]string) ([]model.LineItem, []ValidationIssue, error) {
	cols, err := indexHeader(header, itemColumns, itemRequired)
	if err != nil {
		return nil, nil, eris.Wrap(err, "qto: takeoff header")
	}

	var (
		items  []model.LineItem
		issues []ValidationIssue
	)
	for i, row := range rows {
		r := &rowReader{cols: cols, row: row, rowNum: i + 2}

		description := r.cell("description")
		if description == "" {
			r.fail("description", "must not be empty")
		}
		unit := r.cell("unit")
		if unit == "" {
			r.fail("unit", "must not be empty")
		}
		quantity := r.positive("quantity")

		waste := r.decimalOr("waste_pct", decimal.Zero)
		if waste.IsNegative() {
			r.fail("waste_pct", "must not be negative")
		}

		trade := model.Trade(r.lower("trade"))
		if trade != "" && !trade.Valid() {
			r.fail("trade", fmt.Sprintf("unknown trade %q", trade))
		}
		costType := model.CostType(r.lower("cost_type"))
		if costType != "" && !costType.Valid() {
			r.fail("cost_type", fmt.Sprintf("unknown cost type %q", costType))
		}

		item := model.LineItem{
			ID:                  r.cell("id"),
			Phase:               model.Phase(r.lower("phase")),
			Trade:               trade,
			Code:                r.cell("code"),
			Description:         description,
			Unit:                unit,
			Quantity:            quantity,
			WastePct:            waste,
			CostType:            costType,
			LaborClass:          r.cell("labor_class"),
			SubcontractUnitRate: r.optionalDecimal("subcontract_unit_rate"),
			SubcontractLumpSum:  r.optionalDecimal("subcontract_lump_sum"),
			MaterialUnitCost:    r.decimalOr("material_unit_cost", decimal.Zero),
			EquipmentRate:       r.decimalOr("equipment_rate_per_hr", decimal.Zero),
			UsageHours:          r.decimalOr("usage_hours", decimal.Zero),
			Rooms:               splitRooms(r.cell("rooms")),
		}
		if !r.ok() {
			issues = append(issues, r.issues...)
			continue
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		items = append(items, item)
	}
	return items, issues, nil
}

// ParseRooms turns header-indexed rows into rooms. Duplicate names are
// rejected: the allocator keys rooms by name, and a duplicate would count
// its area twice.
func ParseRooms(header []string, rows [][]string) ([]model.Room, []ValidationIssue, error) {
	cols, err := indexHeader(header, roomColumns, roomRequired)
	if err != nil {
		return nil, nil, eris.Wrap(err, "qto: rooms header")
	}

	var (
		rooms  []model.Room
		issues []ValidationIssue
	)
	seen := make(map[string]bool)
	for i, row := range rows {
		r := &rowReader{cols: cols, row: row, rowNum: i + 2}

		name := r.cell("name")
		if name == "" {
			r.fail("name", "must not be empty")
		} else if seen[name] {
			r.fail("name", fmt.Sprintf("duplicate room %q", name))
		}

		area := r.decimalOr("area", decimal.Zero)
		if r.cell("area") == "" {
			r.fail("area", "must not be empty")
		} else if area.IsNegative() {
			r.fail("area", "must not be negative")
		}

		room := model.Room{
			Name:       name,
			Area:       area,
			Height:     r.decimalOr("height", decimal.Zero),
			Multiplier: r.decimalOr("multiplier", one),
		}
		if !r.ok() {
			issues = append(issues, r.issues...)
			continue
		}
		seen[name] = true
		rooms = append(rooms, room)
	}
	return rooms, issues, nil
}

// splitRooms parses a comma-separated room tag list.
func splitRooms(s string) []string {
	if s == "" {
		return nil
	}
	var rooms []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			rooms = append(rooms, name)
		}
	}
	return rooms
}
