package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-build/estimator/internal/model"
)

func TestResponse_TotalUnitCost(t *testing.T) {
	t.Parallel()

	resp := &Response{
		MaterialUnitCost:     decPtr("10"),
		LaborHoursPerUnit:    decPtr("0.5"),
		LaborRatePerHour:     decPtr("45"),
		EquipmentCostPerUnit: decPtr("2"),
		OverheadRate:         decPtr("0.15"),
		ProfitRate:           decPtr("0.10"),
	}

	total := resp.TotalUnitCost()
	require.NotNil(t, total)
	// (10 + 22.5 + 2) * 1.15 * 1.10
	assert.True(t, total.Equal(dec("43.6425")), "got %s", total)
}

func TestResponse_TotalUnitCost_MaterialOnly(t *testing.T) {
	t.Parallel()

	resp := &Response{MaterialUnitCost: decPtr("10")}
	total := resp.TotalUnitCost()
	require.NotNil(t, total)
	assert.True(t, total.Equal(dec("10")))
}

func TestResponse_TotalUnitCost_NoMaterial(t *testing.T) {
	t.Parallel()

	resp := &Response{LaborHoursPerUnit: decPtr("1"), LaborRatePerHour: decPtr("45")}
	assert.Nil(t, resp.TotalUnitCost())
}

func TestInfo_DescribesProvider(t *testing.T) {
	t.Parallel()

	p := testCatalogProvider()
	info := Info(p)
	assert.Equal(t, "test-catalog", info.Name)
	assert.Contains(t, info.Type, "CatalogProvider")
	assert.Equal(t, []model.Trade{model.TradeConcrete, model.TradeElectrical}, info.Trades)
	assert.Equal(t, []string{"Austin", "Denver"}, info.Locations)
}
