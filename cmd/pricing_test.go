package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-build/estimator/internal/config"
	"github.com/meridian-build/estimator/internal/model"
)

func TestParseTrade(t *testing.T) {
	trade, err := parseTrade("concrete")
	require.NoError(t, err)
	assert.Equal(t, model.TradeConcrete, trade)

	trade, err = parseTrade("")
	require.NoError(t, err)
	assert.Equal(t, model.Trade(""), trade)

	_, err = parseTrade("plumbing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown trade")
}

func TestInitPricing_MissingCatalogFiles(t *testing.T) {
	tmpDir := t.TempDir()
	cfg = &config.Config{
		Catalog: config.CatalogConfig{
			PricingPath:    filepath.Join(tmpDir, "pricing.csv"),
			LaborRatesPath: filepath.Join(tmpDir, "rates.csv"),
		},
		Pricing: config.PricingConfig{CacheSize: 16},
	}

	svc, err := initPricing(context.Background())
	require.NoError(t, err, "missing catalog files degrade to an empty provider")
	require.NotNil(t, svc)
	assert.Len(t, svc.Providers(), 2)
}

func TestInitPricing_LoadsCatalog(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "pricing.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"item_description,trade,unit,material_unit_cost,location\n"+
			"ready-mix concrete 3000psi,concrete,CY,145.00,denver\n",
	), 0o644))

	cfg = &config.Config{
		Catalog: config.CatalogConfig{PricingPath: path},
		Pricing: config.PricingConfig{
			CacheSize: 16,
			Weights:   map[string]float64{"catalog": 1.0, "retail": 0.4},
		},
	}

	svc, err := initPricing(context.Background())
	require.NoError(t, err)

	items := svc.SearchItems("ready-mix", model.TradeConcrete)
	require.NotEmpty(t, items)
	assert.Contains(t, items[0], "ready-mix")
}

func TestInitPricing_BadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.csv")
	require.NoError(t, os.WriteFile(path, []byte("description,cost\nslab,4.25\n"), 0o644))

	cfg = &config.Config{
		Catalog: config.CatalogConfig{PricingPath: path},
	}

	_, err := initPricing(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}
