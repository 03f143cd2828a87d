package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-build/estimator/internal/store"
)

var estimatesCmd = &cobra.Command{
	Use:   "estimates",
	Short: "Inspect saved estimates",
	Long:  "Commands for listing, viewing, and deleting saved estimate records.",
}

// -- estimates list --

var estimatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved estimates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		client, _ := cmd.Flags().GetString("client")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.EstimateFilter{
			Status: store.EstimateStatus(status),
			Client: client,
			Limit:  limit,
		}

		rows, err := st.ListEstimates(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "estimates list")
		}

		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No estimates found.")
			return nil
		}

		formatEstimatesList(os.Stdout, rows)
		return nil
	},
}

// -- estimates show --

var estimatesShowCmd = &cobra.Command{
	Use:   "show <estimate-id>",
	Short: "Show the full record of a saved estimate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		rec, err := st.GetEstimate(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "estimates show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

// -- estimates delete --

var estimatesDeleteCmd = &cobra.Command{
	Use:   "delete <estimate-id>",
	Short: "Delete a saved estimate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeleteEstimate(ctx, args[0]); err != nil {
			return eris.Wrap(err, "estimates delete")
		}

		zap.L().Info("estimate deleted", zap.String("id", args[0]))
		return nil
	},
}

// -- estimates stats --

var estimatesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate statistics over saved estimates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		rows, err := st.ListEstimates(ctx, store.EstimateFilter{Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "estimates stats")
		}

		stats := computeEstimateStats(rows)
		formatEstimateStats(os.Stdout, stats)
		return nil
	},
}

func init() {
	estimatesListCmd.Flags().String("status", "", "filter by status (draft, final, archived)")
	estimatesListCmd.Flags().String("client", "", "filter by client name")
	estimatesListCmd.Flags().Int("limit", 50, "max number of estimates to display")

	estimatesCmd.AddCommand(estimatesListCmd)
	estimatesCmd.AddCommand(estimatesShowCmd)
	estimatesCmd.AddCommand(estimatesDeleteCmd)
	estimatesCmd.AddCommand(estimatesStatsCmd)
	rootCmd.AddCommand(estimatesCmd)
}

// estimateStats holds aggregate statistics over saved estimates.
type estimateStats struct {
	Total      int
	Draft      int
	Final      int
	Archived   int
	Other      int
	TotalValue decimal.Decimal
	AvgValue   decimal.Decimal
}

// computeEstimateStats aggregates a set of estimate list rows.
func computeEstimateStats(rows []store.EstimateSummary) estimateStats {
	var s estimateStats
	s.Total = len(rows)

	for _, r := range rows {
		switch r.Status {
		case store.StatusDraft:
			s.Draft++
		case store.StatusFinal:
			s.Final++
		case store.StatusArchived:
			s.Archived++
		default:
			s.Other++
		}
		s.TotalValue = s.TotalValue.Add(r.GrandTotal)
	}

	if s.Total > 0 {
		s.AvgValue = s.TotalValue.Div(decimal.NewFromInt(int64(s.Total))).Round(2)
	}
	return s
}

// formatEstimatesList writes a tabular list of estimates to w.
func formatEstimatesList(out io.Writer, rows []store.EstimateSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCLIENT\tSTATUS\tTOTAL\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t------\t-----\t-------")

	for _, r := range rows {
		name := r.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		client := r.Client
		if len(client) > 20 {
			client = client[:17] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			name,
			client,
			r.Status,
			r.GrandTotal.StringFixed(2),
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatEstimateStats writes aggregate stats to w.
func formatEstimateStats(out io.Writer, s estimateStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total estimates:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Draft:\t%d\n", s.Draft)
	_, _ = fmt.Fprintf(w, "Final:\t%d\n", s.Final)
	_, _ = fmt.Fprintf(w, "Archived:\t%d\n", s.Archived)
	if s.Other > 0 {
		_, _ = fmt.Fprintf(w, "Other:\t%d\n", s.Other)
	}
	_, _ = fmt.Fprintf(w, "Total value:\t%s\n", s.TotalValue.StringFixed(2))
	if s.Total > 0 {
		_, _ = fmt.Fprintf(w, "Avg value:\t%s\n", s.AvgValue.StringFixed(2))
	}
	_ = w.Flush()
}

// truncateID shortens a UUID to its first 8 characters for table output.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
