package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCostBreakdown_Direct(t *testing.T) {
	t.Parallel()

	b := CostBreakdown{
		Material:    dec("100.50"),
		Labor:       dec("200.25"),
		Equipment:   dec("50"),
		Subcontract: dec("1000"),
	}

	assert.True(t, b.Direct().Equal(dec("1350.75")), "got %s", b.Direct())
}

func TestCostBreakdown_TotalIncludesMarkup(t *testing.T) {
	t.Parallel()

	b := CostBreakdown{
		Material:    dec("1000"),
		Contingency: dec("100"),
		Overhead:    dec("165"),
		Profit:      dec("126.5"),
	}

	assert.True(t, b.Total().Equal(dec("1391.5")), "got %s", b.Total())
}

func TestCostBreakdown_CostPerUnit(t *testing.T) {
	t.Parallel()

	b := CostBreakdown{Material: dec("300"), Quantity: dec("150")}
	assert.True(t, b.CostPerUnit().Equal(dec("2")))

	zero := CostBreakdown{Material: dec("300")}
	assert.True(t, zero.CostPerUnit().IsZero(), "zero quantity must not fault")
}

func TestLaborClass_BurdenedRate(t *testing.T) {
	t.Parallel()

	lc := LaborClass{Name: "Carpenter", BaseRate: dec("40"), BurdenPct: dec("0.45")}
	assert.True(t, lc.BurdenedRate().Equal(dec("58")), "got %s", lc.BurdenedRate())
}

func TestTotalArea(t *testing.T) {
	t.Parallel()

	rooms := []Room{
		{Name: "kitchen", Area: dec("120.5")},
		{Name: "bath", Area: dec("49.5")},
	}
	assert.True(t, TotalArea(rooms).Equal(dec("170")))
	assert.True(t, TotalArea(nil).IsZero())
}
