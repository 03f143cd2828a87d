package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-build/estimator/internal/catalog"
	"github.com/meridian-build/estimator/internal/model"
	"github.com/meridian-build/estimator/internal/pricing"
)

var (
	pricingDescription string
	pricingTrade       string
	pricingUnit        string
	pricingQuantity    string
	pricingLocation    string
	pricingBest        bool
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Query the pricing providers",
	Long:  "Commands for looking up item prices, searching catalog entries, and inspecting the configured providers.",
}

// -- pricing lookup --

var pricingLookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Price one item across the providers",
	Long: `Queries every provider and blends their answers by configured
weight. With --best, returns the single highest-confidence answer instead.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		trade, err := parseTrade(pricingTrade)
		if err != nil {
			return err
		}
		quantity := decimal.NewFromInt(1)
		if pricingQuantity != "" {
			if quantity, err = decimal.NewFromString(pricingQuantity); err != nil {
				return eris.Wrapf(err, "pricing: quantity %q", pricingQuantity)
			}
		}
		location := pricingLocation
		if location == "" {
			location = cfg.Pricing.DefaultLocation
		}

		svc, err := initPricing(ctx)
		if err != nil {
			return err
		}

		req := pricing.Request{
			Description: pricingDescription,
			Trade:       trade,
			Quantity:    quantity,
			Unit:        pricingUnit,
			Location:    location,
			RequestedAt: time.Now(),
		}

		var resp *pricing.Response
		if pricingBest {
			resp, err = svc.GetPricing(ctx, req)
		} else {
			resp, err = svc.GetWeightedPricing(ctx, req)
		}
		if err != nil {
			return eris.Wrap(err, "pricing lookup")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

// -- pricing search --

var pricingSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search item descriptions across the providers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		trade, err := parseTrade(pricingTrade)
		if err != nil {
			return err
		}

		svc, err := initPricing(ctx)
		if err != nil {
			return err
		}

		matches := svc.SearchItems(args[0], trade)
		if len(matches) == 0 {
			fmt.Fprintln(os.Stderr, "No matching items.")
			return nil
		}
		for _, m := range matches {
			fmt.Println(m)
		}
		return nil
	},
}

// -- pricing providers --

var pricingProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show the configured providers and their coverage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := initPricing(cmd.Context())
		if err != nil {
			return err
		}

		infos := make([]pricing.ProviderInfo, 0, len(svc.Providers()))
		for _, p := range svc.Providers() {
			infos = append(infos, pricing.Info(p))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	},
}

func init() {
	pricingLookupCmd.Flags().StringVar(&pricingDescription, "description", "", "item description to price (required)")
	pricingLookupCmd.Flags().StringVar(&pricingTrade, "trade", "", "construction trade (e.g. concrete, wood)")
	pricingLookupCmd.Flags().StringVar(&pricingUnit, "unit", "", "unit of measure (e.g. SF, LF, EA)")
	pricingLookupCmd.Flags().StringVar(&pricingQuantity, "quantity", "", "quantity for context (default 1)")
	pricingLookupCmd.Flags().StringVar(&pricingLocation, "location", "", "pricing location (default from config)")
	pricingLookupCmd.Flags().BoolVar(&pricingBest, "best", false, "return the single highest-confidence answer instead of the weighted blend")
	_ = pricingLookupCmd.MarkFlagRequired("description")

	pricingSearchCmd.Flags().StringVar(&pricingTrade, "trade", "", "restrict the search to one trade")

	pricingCmd.AddCommand(pricingLookupCmd)
	pricingCmd.AddCommand(pricingSearchCmd)
	pricingCmd.AddCommand(pricingProvidersCmd)
	rootCmd.AddCommand(pricingCmd)
}

// parseTrade validates an optional trade flag. Empty means any trade.
func parseTrade(raw string) (model.Trade, error) {
	if raw == "" {
		return "", nil
	}
	trade := model.Trade(raw)
	if !trade.Valid() {
		return "", eris.Errorf("unknown trade: %s", raw)
	}
	return trade, nil
}

// initPricing assembles the composite pricing service: the file-backed
// catalog provider, the retail fallback, an LRU cache, and any configured
// provider weights. Missing catalog files leave the catalog provider
// empty rather than failing, so lookups still reach the retail fallback.
func initPricing(ctx context.Context) (*pricing.Composite, error) {
	opts := catalog.LoadOptions{Charset: cfg.Catalog.Charset}

	var entries []catalog.Entry
	if cfg.Catalog.PricingPath != "" {
		loaded, err := catalog.LoadEntries(ctx, cfg.Catalog.PricingPath, opts)
		switch {
		case err == nil:
			entries = loaded
		case errors.Is(err, os.ErrNotExist):
			zap.L().Warn("pricing catalog not found, catalog provider starts empty",
				zap.String("path", cfg.Catalog.PricingPath))
		default:
			return nil, err
		}
	}

	var rates []catalog.LaborRate
	if cfg.Catalog.LaborRatesPath != "" {
		loaded, err := catalog.LoadLaborRates(ctx, cfg.Catalog.LaborRatesPath, opts)
		switch {
		case err == nil:
			rates = loaded
		case errors.Is(err, os.ErrNotExist):
			zap.L().Warn("labor rates not found, catalog provider has no labor rates",
				zap.String("path", cfg.Catalog.LaborRatesPath))
		default:
			return nil, err
		}
	}

	catalogProvider := pricing.NewCatalogProvider("catalog", entries, rates)
	retailProvider := pricing.NewRetailProvider(pricing.RetailOptions{
		Name:            "retail",
		RequestInterval: time.Duration(cfg.Pricing.RetailIntervalSecs) * time.Second,
	})

	svc := pricing.NewComposite("composite", catalogProvider, retailProvider).
		WithCache(pricing.NewCache(cfg.Pricing.CacheSize))
	for name, weight := range cfg.Pricing.Weights {
		svc.SetWeight(name, weight)
	}

	zap.L().Debug("pricing service ready",
		zap.Int("catalog_entries", len(entries)),
		zap.Int("labor_rates", len(rates)),
	)
	return svc, nil
}
