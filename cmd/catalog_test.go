package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-build/estimator/internal/catalog"
	"github.com/meridian-build/estimator/internal/model"
)

func TestCatalogStats(t *testing.T) {
	entries := []catalog.Entry{
		{Description: "4in slab on grade", Trade: model.TradeConcrete, Unit: "SF"},
		{Description: "footing 24in", Trade: model.TradeConcrete, Unit: "CF"},
		{Description: "2x4 stud wall", Trade: model.TradeWood, Unit: "LF"},
	}
	rates := []catalog.LaborRate{
		{Trade: model.TradeConcrete, Location: "denver"},
		{Trade: model.TradeWood, Location: "denver"},
		{Trade: model.TradeConcrete, Location: "phoenix"},
	}

	stats := computeCatalogStats(entries, rates)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, 3, stats.Rates)
	assert.Equal(t, 2, stats.ByTrade[model.TradeConcrete])
	assert.Equal(t, 1, stats.ByTrade[model.TradeWood])
	assert.Equal(t, []string{"denver", "phoenix"}, stats.Locations)

	var buf bytes.Buffer
	formatCatalogStats(&buf, stats)

	output := buf.String()
	assert.Contains(t, output, "Catalog entries:")
	assert.Contains(t, output, "concrete:")
	assert.Contains(t, output, "wood:")
	assert.Contains(t, output, "Labor rates:")
	assert.Contains(t, output, "denver")
	assert.Contains(t, output, "phoenix")
}

func TestCatalogStats_Empty(t *testing.T) {
	stats := computeCatalogStats(nil, nil)
	assert.Equal(t, 0, stats.Entries)
	assert.Empty(t, stats.Locations)

	var buf bytes.Buffer
	formatCatalogStats(&buf, stats)
	assert.Contains(t, buf.String(), "Catalog entries:")
}
