package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-build/estimator/internal/model"
)

func writeTempCSV(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEntries_Basic(t *testing.T) {
	path := writeTempCSV(t, "pricing.csv", `item_description,trade,unit,material_unit_cost,labor_hours_per_unit,equipment_cost_per_unit,overhead_rate,profit_rate,source,date_updated,notes
concrete footing,concrete,CY,185.50,0.15,12.00,0.15,0.10,vendor_a,2026-01-15,bulk discount
2x4 stud,wood,EA,3.47,,,,,,,
`)

	entries, err := LoadEntries(context.Background(), path, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	footing := entries[0]
	assert.Equal(t, "concrete footing", footing.Description)
	assert.Equal(t, model.TradeConcrete, footing.Trade)
	assert.Equal(t, "CY", footing.Unit)
	assert.Equal(t, "185.5", footing.MaterialUnitCost.String())
	require.NotNil(t, footing.LaborHoursPerUnit)
	assert.Equal(t, "0.15", footing.LaborHoursPerUnit.String())
	require.NotNil(t, footing.EquipmentCostPerUnit)
	assert.Equal(t, "12", footing.EquipmentCostPerUnit.String())
	assert.Equal(t, "vendor_a", footing.Source)
	require.NotNil(t, footing.UpdatedAt)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), *footing.UpdatedAt)
	assert.Equal(t, "bulk discount", footing.Notes)

	stud := entries[1]
	assert.Equal(t, model.TradeWood, stud.Trade)
	assert.Nil(t, stud.LaborHoursPerUnit)
	assert.Nil(t, stud.OverheadRate)
	assert.Nil(t, stud.UpdatedAt)
	assert.Equal(t, "catalog", stud.Source)
}

func TestLoadEntries_SkipsInvalidRows(t *testing.T) {
	path := writeTempCSV(t, "pricing.csv", `item_description,trade,unit,material_unit_cost
good item,electrical,EA,45.00
bad trade,plumbing,EA,10.00
bad cost,concrete,CY,not-a-number
another good,concrete,CY,185.50
`)

	entries, err := LoadEntries(context.Background(), path, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "good item", entries[0].Description)
	assert.Equal(t, "another good", entries[1].Description)
}

func TestLoadEntries_TradeCaseInsensitive(t *testing.T) {
	path := writeTempCSV(t, "pricing.csv", `item_description,trade,unit,material_unit_cost
romex wire,Electrical,LF,0.89
`)

	entries, err := LoadEntries(context.Background(), path, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.TradeElectrical, entries[0].Trade)
}

func TestLoadEntries_MissingRequiredColumn(t *testing.T) {
	path := writeTempCSV(t, "pricing.csv", `item_description,trade,unit
no cost column,concrete,CY
`)

	_, err := LoadEntries(context.Background(), path, LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "material_unit_cost")
}

func TestLoadEntries_FileNotFound(t *testing.T) {
	_, err := LoadEntries(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), LoadOptions{})
	require.Error(t, err)
}

func TestLoadLaborRates_Basic(t *testing.T) {
	path := writeTempCSV(t, "rates.csv", `trade,location,labor_rate_per_hour
electrical,Denver,72.50
concrete,Denver,48.00
`)

	rates, err := LoadLaborRates(context.Background(), path, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, model.TradeElectrical, rates[0].Trade)
	assert.Equal(t, "Denver", rates[0].Location)
	assert.Equal(t, "72.5", rates[0].RatePerHour.String())
}

func TestLoadLaborRates_SkipsInvalidRows(t *testing.T) {
	path := writeTempCSV(t, "rates.csv", `trade,location,labor_rate_per_hour
electrical,Denver,72.50
underwater_welding,Denver,99.00
concrete,Denver,
`)

	rates, err := LoadLaborRates(context.Background(), path, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, model.TradeElectrical, rates[0].Trade)
}

func TestIndexColumns_MissingListsAll(t *testing.T) {
	_, err := indexColumns([]string{"unit"}, entryColumns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item_description")
	assert.Contains(t, err.Error(), "trade")
	assert.Contains(t, err.Error(), "material_unit_cost")
	assert.NotContains(t, err.Error(), "unit")
}

func TestIndexColumns_HeaderCaseInsensitive(t *testing.T) {
	cols, err := indexColumns([]string{"Item_Description", "TRADE", "Unit", "Material_Unit_Cost"}, entryColumns)
	require.NoError(t, err)
	assert.Equal(t, 0, cols["item_description"])
	assert.Equal(t, 3, cols["material_unit_cost"])
	assert.Equal(t, -1, cols["notes"])
}

func TestCell_OutOfRange(t *testing.T) {
	row := []string{"a", " b "}
	assert.Equal(t, "a", cell(row, 0))
	assert.Equal(t, "b", cell(row, 1))
	assert.Equal(t, "", cell(row, 2))
	assert.Equal(t, "", cell(row, -1))
}

func TestParseOptionalDate_Formats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{"iso", "2026-03-01", timePtr(2026, 3, 1)},
		{"us slash", "03/01/2026", timePtr(2026, 3, 1)},
		{"day first", "25/12/2025", timePtr(2025, 12, 25)},
		{"empty", "", nil},
		{"garbage", "yesterday", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseOptionalDate(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func timePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
