package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-build/estimator/internal/calc"
	"github.com/meridian-build/estimator/internal/model"
	"github.com/meridian-build/estimator/internal/pricing"
	"github.com/meridian-build/estimator/internal/qto"
	"github.com/meridian-build/estimator/internal/rollup"
	"github.com/meridian-build/estimator/internal/store"
)

var (
	estimateTakeoff     string
	estimateSetup       string
	estimateRoomsFile   string
	estimateSheet       string
	estimateCharset     string
	estimateClient      string
	estimateDescription string
	estimateStatus      string
	estimatePrice       bool
	estimateLocation    string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Compute and save cost estimates",
}

var estimateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full estimate from a takeoff file",
	Long: `Loads takeoff line items and a project setup file, prices every item,
cascades contingency, overhead, and profit, saves the estimate, and prints
the saved record as JSON.

Examples:
  # CSV takeoff with a YAML project setup
  estimator estimate run --takeoff takeoff.csv --setup project.yaml

  # XLSX takeoff, pricing unpriced items from the configured catalog
  estimator estimate run --takeoff takeoff.xlsx --sheet Items --setup project.yaml --price`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate(); err != nil {
			return err
		}

		status := store.EstimateStatus(estimateStatus)
		switch status {
		case store.StatusDraft, store.StatusFinal, store.StatusArchived:
		default:
			return eris.Errorf("unknown estimate status: %s", estimateStatus)
		}

		items, _, err := qto.LoadItems(ctx, estimateTakeoff, qto.LoadOptions{
			Sheet:   estimateSheet,
			Charset: estimateCharset,
		})
		if err != nil {
			return eris.Wrap(err, "estimate: load takeoff")
		}
		if len(items) == 0 {
			return eris.Errorf("estimate: no valid line items in %s", estimateTakeoff)
		}

		setup, err := qto.LoadSetup(estimateSetup)
		if err != nil {
			return eris.Wrap(err, "estimate: load setup")
		}
		if estimateRoomsFile != "" {
			rooms, _, err := qto.LoadRooms(ctx, estimateRoomsFile, qto.LoadOptions{Charset: estimateCharset})
			if err != nil {
				return eris.Wrap(err, "estimate: load rooms")
			}
			setup.Rooms = rooms
		}
		applyMarkupDefaults(&setup.Project)

		if estimatePrice {
			if err := enrichItems(ctx, items, lookupLocation(setup.Project.Location)); err != nil {
				return eris.Wrap(err, "estimate: price items")
			}
		}

		breakdowns, result, err := computeBreakdowns(setup, items)
		if err != nil {
			return eris.Wrap(err, "estimate: compute")
		}
		summary := rollup.BuildSummary(setup.Project, breakdowns, items, setup.Rooms)

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		rec := &store.EstimateRecord{
			Name:           setup.Project.Name,
			Client:         estimateClient,
			Description:    estimateDescription,
			Status:         status,
			Project:        setup.Project,
			Phases:         setup.Phases,
			LaborClasses:   setup.LaborClasses,
			Productivities: setup.Productivities,
			Rooms:          setup.Rooms,
			Items:          items,
			Summary:        summary,
			GrandTotal:     result.Summary.GrandTotal,
		}
		if err := st.SaveEstimate(ctx, rec); err != nil {
			return eris.Wrap(err, "estimate: save")
		}

		zap.L().Info("estimate saved",
			zap.String("id", rec.ID),
			zap.String("name", rec.Name),
			zap.Int("items", len(items)),
			zap.String("grand_total", rec.GrandTotal.String()),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	estimateRunCmd.Flags().StringVar(&estimateTakeoff, "takeoff", "", "takeoff file, CSV or XLSX (required)")
	estimateRunCmd.Flags().StringVar(&estimateSetup, "setup", "", "project setup YAML file (required)")
	estimateRunCmd.Flags().StringVar(&estimateRoomsFile, "rooms", "", "room schedule file, replaces rooms from the setup file")
	estimateRunCmd.Flags().StringVar(&estimateSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	estimateRunCmd.Flags().StringVar(&estimateCharset, "charset", "", "CSV character set for legacy exports (e.g. latin-1)")
	estimateRunCmd.Flags().StringVar(&estimateClient, "client", "", "client name for the saved record")
	estimateRunCmd.Flags().StringVar(&estimateDescription, "description", "", "description for the saved record")
	estimateRunCmd.Flags().StringVar(&estimateStatus, "status", "draft", "record status: draft, final, or archived")
	estimateRunCmd.Flags().BoolVar(&estimatePrice, "price", false, "price unpriced material items from the pricing providers")
	estimateRunCmd.Flags().StringVar(&estimateLocation, "location", "", "pricing location (default: project location, then config)")
	_ = estimateRunCmd.MarkFlagRequired("takeoff")
	_ = estimateRunCmd.MarkFlagRequired("setup")

	estimateCmd.AddCommand(estimateRunCmd)
	rootCmd.AddCommand(estimateCmd)
}

// applyMarkupDefaults fills zero project markup rates from config so a
// setup file only has to state what differs from office policy.
func applyMarkupDefaults(p *model.Project) {
	if p.OverheadPct.IsZero() && cfg.Estimate.OverheadRate > 0 {
		p.OverheadPct = decimal.NewFromFloat(cfg.Estimate.OverheadRate)
	}
	if p.ProfitPct.IsZero() && cfg.Estimate.ProfitRate > 0 {
		p.ProfitPct = decimal.NewFromFloat(cfg.Estimate.ProfitRate)
	}
}

// buildCalculator builds a calculator with the configured productivity
// tables and default contingency rate.
func buildCalculator() (*calc.Calculator, error) {
	resolver, err := initResolver()
	if err != nil {
		return nil, err
	}
	var opts calc.Options
	if cfg.Estimate.DefaultContingency > 0 {
		opts.DefaultContingency = decimal.NewFromFloat(cfg.Estimate.DefaultContingency)
	}
	return calc.New(resolver, opts), nil
}

// computeBreakdowns runs the cost cascade for a setup and returns per-item
// breakdowns with project markup allocated back onto them.
func computeBreakdowns(setup *qto.Setup, items []model.LineItem) (map[string]model.CostBreakdown, *calc.Result, error) {
	c, err := buildCalculator()
	if err != nil {
		return nil, nil, err
	}
	result, err := c.Compute(setup.Project, setup.Phases, items, setup.LaborClasses, setup.Productivities)
	if err != nil {
		return nil, nil, err
	}
	return calc.AllocateMarkup(setup.Project, result), result, nil
}

// lookupLocation picks the pricing location: flag, then project, then config.
func lookupLocation(projectLocation string) string {
	if estimateLocation != "" {
		return estimateLocation
	}
	if projectLocation != "" {
		return projectLocation
	}
	return cfg.Pricing.DefaultLocation
}

// enrichItems fills missing material unit costs from the pricing providers.
// Items that already carry a cost or price through a subcontract are left
// alone; a failed lookup logs and moves on.
func enrichItems(ctx context.Context, items []model.LineItem, location string) error {
	svc, err := initPricing(ctx)
	if err != nil {
		return err
	}

	enriched := 0
	for i := range items {
		it := &items[i]
		if !it.MaterialUnitCost.IsZero() || it.SubcontractUnitRate != nil || it.SubcontractLumpSum != nil {
			continue
		}

		resp, err := svc.GetWeightedPricing(ctx, pricing.Request{
			Description: it.Description,
			Trade:       it.Trade,
			Phase:       it.Phase,
			CostType:    it.CostType,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			Location:    location,
			RequestedAt: time.Now(),
		})
		if err != nil {
			zap.L().Warn("pricing lookup failed",
				zap.String("item", it.ID),
				zap.String("description", it.Description),
				zap.Error(err),
			)
			continue
		}
		if resp.MaterialUnitCost != nil {
			it.MaterialUnitCost = *resp.MaterialUnitCost
			enriched++
		}
	}

	zap.L().Info("items priced from providers",
		zap.Int("enriched", enriched),
		zap.Int("total", len(items)),
		zap.String("location", location),
	)
	return nil
}
