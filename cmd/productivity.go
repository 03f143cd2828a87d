package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/meridian-build/estimator/internal/model"
	"github.com/meridian-build/estimator/internal/productivity"
)

var (
	productivityTrade string
	crewHours         string
	crewDays          int
	crewHoursPerDay   int
)

var productivityCmd = &cobra.Command{
	Use:   "productivity",
	Short: "Inspect labor productivity tables and size crews",
}

// -- productivity show --

var productivityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the productivity rate tables",
	Long:  "Without --trade, lists the trades with configured rates. With --trade, shows that trade's hours-per-unit table.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resolver, err := initResolver()
		if err != nil {
			return err
		}

		if productivityTrade == "" {
			formatTradeList(os.Stdout, resolver)
			return nil
		}

		trade, err := parseTrade(productivityTrade)
		if err != nil {
			return err
		}
		rates := resolver.Rates(trade)
		if len(rates) == 0 {
			fmt.Fprintf(os.Stderr, "No rates configured for trade %s.\n", trade)
			return nil
		}
		formatTradeRates(os.Stdout, trade, rates)
		return nil
	},
}

// -- productivity crew --

var productivityCrewCmd = &cobra.Command{
	Use:   "crew",
	Short: "Size a crew for a body of labor hours",
	RunE: func(cmd *cobra.Command, _ []string) error {
		hours, err := decimal.NewFromString(crewHours)
		if err != nil {
			return eris.Wrapf(err, "productivity: hours %q", crewHours)
		}

		est := productivity.EstimateCrewSize(hours, crewDays, crewHoursPerDay)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(est)
	},
}

func init() {
	productivityShowCmd.Flags().StringVar(&productivityTrade, "trade", "", "show rates for one trade")

	productivityCrewCmd.Flags().StringVar(&crewHours, "hours", "", "total labor hours (required)")
	productivityCrewCmd.Flags().IntVar(&crewDays, "days", 10, "project duration in working days")
	productivityCrewCmd.Flags().IntVar(&crewHoursPerDay, "hours-per-day", 8, "working hours per day")
	_ = productivityCrewCmd.MarkFlagRequired("hours")

	productivityCmd.AddCommand(productivityShowCmd)
	productivityCmd.AddCommand(productivityCrewCmd)
	rootCmd.AddCommand(productivityCmd)
}

// initResolver builds a productivity resolver with any configured
// replacement tables loaded over the defaults.
func initResolver() (*productivity.Resolver, error) {
	resolver := productivity.NewResolver()
	if cfg.Productivity.TablesPath != "" {
		if err := resolver.LoadTables(cfg.Productivity.TablesPath); err != nil {
			return nil, err
		}
	}
	return resolver, nil
}

// formatTradeList writes the trades with configured rates to w.
func formatTradeList(out io.Writer, resolver *productivity.Resolver) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TRADE\tITEM_TYPES")
	_, _ = fmt.Fprintln(w, "-----\t----------")
	for _, trade := range resolver.Trades() {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", trade, len(resolver.Rates(trade)))
	}
	_ = w.Flush()
}

// formatTradeRates writes one trade's hours-per-unit table to w.
func formatTradeRates(out io.Writer, trade model.Trade, rates map[string]decimal.Decimal) {
	itemTypes := make([]string, 0, len(rates))
	for itemType := range rates {
		itemTypes = append(itemTypes, itemType)
	}
	sort.Strings(itemTypes)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Trade:\t%s\n", trade)
	_, _ = fmt.Fprintln(w, "ITEM_TYPE\tHOURS_PER_UNIT")
	_, _ = fmt.Fprintln(w, "---------\t--------------")
	for _, itemType := range itemTypes {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", itemType, rates[itemType].String())
	}
	_ = w.Flush()
}
