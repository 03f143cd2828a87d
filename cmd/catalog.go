package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-build/estimator/internal/catalog"
	"github.com/meridian-build/estimator/internal/model"
	"github.com/meridian-build/estimator/internal/store"
)

var (
	catalogURL   string
	catalogDest  string
	catalogRates bool
	catalogSave  bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage vendor pricing catalogs",
}

// -- catalog fetch --

var catalogFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a vendor catalog drop",
	Long: `Downloads a pricing catalog (or, with --rates, a labor rates file)
from an HTTP(S) or FTP source into the configured catalog path. With
--save the downloaded file is also imported into the Postgres store's
shared pricing tables.

Examples:
  estimator catalog fetch --url ftp://vendor.example.com/drops/pricing.csv
  estimator catalog fetch --rates --url https://vendor.example.com/labor_rates.csv
  estimator catalog fetch --save`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		rawURL := catalogURL
		if rawURL == "" {
			rawURL = cfg.Catalog.SourceURL
		}
		if rawURL == "" {
			return eris.New("catalog: no source URL: pass --url or set catalog.source_url")
		}

		dest := catalogDest
		if dest == "" {
			if catalogRates {
				dest = cfg.Catalog.LaborRatesPath
			} else {
				dest = cfg.Catalog.PricingPath
			}
		}
		if dest == "" {
			return eris.New("catalog: no destination: pass --dest or configure catalog paths")
		}
		if dir := filepath.Dir(dest); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return eris.Wrapf(err, "catalog: create dir %s", dir)
			}
		}

		n, err := catalog.Fetch(ctx, rawURL, dest, catalog.FetchOptions{
			Timeout:     time.Duration(cfg.Catalog.FetchTimeoutSecs) * time.Second,
			FTPUser:     cfg.Catalog.FTPUser,
			FTPPassword: cfg.Catalog.FTPPassword,
		})
		if err != nil {
			return eris.Wrap(err, "catalog fetch")
		}

		zap.L().Info("catalog fetched",
			zap.String("url", rawURL),
			zap.String("dest", dest),
			zap.Int64("bytes", n),
		)

		if catalogSave {
			return importToStore(ctx, dest, catalogRates)
		}
		return nil
	},
}

// -- catalog stats --

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the configured catalog files",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		opts := catalog.LoadOptions{Charset: cfg.Catalog.Charset}
		entries, err := catalog.LoadEntries(ctx, cfg.Catalog.PricingPath, opts)
		if err != nil {
			return eris.Wrap(err, "catalog stats")
		}

		var rates []catalog.LaborRate
		if cfg.Catalog.LaborRatesPath != "" {
			if rates, _, err = loadRatesTolerant(ctx, opts); err != nil {
				return eris.Wrap(err, "catalog stats")
			}
		}

		formatCatalogStats(os.Stdout, computeCatalogStats(entries, rates))
		return nil
	},
}

func init() {
	catalogFetchCmd.Flags().StringVar(&catalogURL, "url", "", "source URL, http(s) or ftp (default: catalog.source_url)")
	catalogFetchCmd.Flags().StringVar(&catalogDest, "dest", "", "destination path (default: configured catalog path)")
	catalogFetchCmd.Flags().BoolVar(&catalogRates, "rates", false, "the file is a labor rates table, not a pricing catalog")
	catalogFetchCmd.Flags().BoolVar(&catalogSave, "save", false, "import the downloaded file into the Postgres store")

	catalogCmd.AddCommand(catalogFetchCmd)
	catalogCmd.AddCommand(catalogStatsCmd)
	rootCmd.AddCommand(catalogCmd)
}

// loadRatesTolerant loads labor rates but treats a missing file as empty.
func loadRatesTolerant(ctx context.Context, opts catalog.LoadOptions) ([]catalog.LaborRate, bool, error) {
	rates, err := catalog.LoadLaborRates(ctx, cfg.Catalog.LaborRatesPath, opts)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return rates, true, nil
}

// importToStore bulk-imports a downloaded catalog file into the shared
// Postgres pricing tables. Other store drivers keep their catalogs as
// files, so --save requires postgres.
func importToStore(ctx context.Context, path string, isRates bool) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	pg, ok := st.(*store.PostgresStore)
	if !ok {
		return eris.Errorf("catalog --save requires the postgres store driver, have %s", cfg.Store.Driver)
	}
	if err := pg.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}

	opts := catalog.LoadOptions{Charset: cfg.Catalog.Charset}
	var imported int64
	if isRates {
		rates, err := catalog.LoadLaborRates(ctx, path, opts)
		if err != nil {
			return eris.Wrap(err, "catalog save")
		}
		if imported, err = pg.ImportLaborRates(ctx, rates); err != nil {
			return eris.Wrap(err, "catalog save")
		}
	} else {
		entries, err := catalog.LoadEntries(ctx, path, opts)
		if err != nil {
			return eris.Wrap(err, "catalog save")
		}
		if imported, err = pg.ImportCatalog(ctx, entries); err != nil {
			return eris.Wrap(err, "catalog save")
		}
	}

	zap.L().Info("catalog imported",
		zap.String("path", path),
		zap.Bool("labor_rates", isRates),
		zap.Int64("rows", imported),
	)
	return nil
}

// catalogStats summarizes the loaded catalog files.
type catalogStats struct {
	Entries   int
	Rates     int
	ByTrade   map[model.Trade]int
	Locations []string
}

// computeCatalogStats aggregates entries per trade and the locations
// covered by labor rates.
func computeCatalogStats(entries []catalog.Entry, rates []catalog.LaborRate) catalogStats {
	s := catalogStats{
		Entries: len(entries),
		Rates:   len(rates),
		ByTrade: make(map[model.Trade]int),
	}

	for _, e := range entries {
		s.ByTrade[e.Trade]++
	}

	seen := make(map[string]bool)
	for _, r := range rates {
		if !seen[r.Location] {
			seen[r.Location] = true
			s.Locations = append(s.Locations, r.Location)
		}
	}
	sort.Strings(s.Locations)
	return s
}

// formatCatalogStats writes catalog stats to w.
func formatCatalogStats(out io.Writer, s catalogStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Catalog entries:\t%d\n", s.Entries)

	trades := make([]model.Trade, 0, len(s.ByTrade))
	for t := range s.ByTrade {
		trades = append(trades, t)
	}
	sort.Slice(trades, func(i, j int) bool { return trades[i] < trades[j] })
	for _, t := range trades {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", t, s.ByTrade[t])
	}

	_, _ = fmt.Fprintf(w, "Labor rates:\t%d\n", s.Rates)
	for _, loc := range s.Locations {
		_, _ = fmt.Fprintf(w, "  %s\n", loc)
	}
	_ = w.Flush()
}
