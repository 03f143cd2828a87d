package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/meridian-build/estimator/internal/model"
	"github.com/meridian-build/estimator/internal/qto"
	"github.com/meridian-build/estimator/internal/report"
	"github.com/meridian-build/estimator/internal/rollup"
)

var (
	reportEstimateID string
	reportTakeoff    string
	reportSetup      string
	reportSheet      string
	reportCharset    string
	reportOutput     string
	reportFormat     string
	reportBenchmarks string
	reportRanges     string
	reportBundleDir  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate cost reports",
	Long: `Builds a report from a saved estimate (--estimate) or a fresh
calculation over a takeoff and setup file (--takeoff + --setup), and
writes it in the configured format.

Examples:
  estimator report summary --estimate 1f0c2a88
  estimator report detailed --takeoff takeoff.csv --setup project.yaml --format xlsx
  estimator report bundle --estimate 1f0c2a88 --dir reports/maple-st`,
}

// reportSource is one resolved calculation: the inputs plus the per-item
// breakdowns every report builder reads.
type reportSource struct {
	Project    model.Project
	Items      []model.LineItem
	Rooms      []model.Room
	Breakdowns map[string]model.CostBreakdown
}

// loadReportSource resolves the report inputs from either a saved
// estimate or a takeoff + setup file pair, recomputing breakdowns in
// both cases so reports always reflect the current cost model.
func loadReportSource(ctx context.Context) (*reportSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if reportEstimateID != "" {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return nil, eris.Wrap(err, "migrate store")
		}

		rec, err := st.GetEstimate(ctx, reportEstimateID)
		if err != nil {
			return nil, eris.Wrap(err, "report: load estimate")
		}

		setup := &qto.Setup{
			Project:        rec.Project,
			Phases:         rec.Phases,
			Rooms:          rec.Rooms,
			LaborClasses:   rec.LaborClasses,
			Productivities: rec.Productivities,
		}
		breakdowns, _, err := computeBreakdowns(setup, rec.Items)
		if err != nil {
			return nil, eris.Wrap(err, "report: compute")
		}
		return &reportSource{
			Project:    rec.Project,
			Items:      rec.Items,
			Rooms:      rec.Rooms,
			Breakdowns: breakdowns,
		}, nil
	}

	if reportTakeoff == "" || reportSetup == "" {
		return nil, eris.New("report: either --estimate or both --takeoff and --setup are required")
	}

	items, _, err := qto.LoadItems(ctx, reportTakeoff, qto.LoadOptions{
		Sheet:   reportSheet,
		Charset: reportCharset,
	})
	if err != nil {
		return nil, eris.Wrap(err, "report: load takeoff")
	}
	setup, err := qto.LoadSetup(reportSetup)
	if err != nil {
		return nil, eris.Wrap(err, "report: load setup")
	}
	applyMarkupDefaults(&setup.Project)

	breakdowns, _, err := computeBreakdowns(setup, items)
	if err != nil {
		return nil, eris.Wrap(err, "report: compute")
	}
	return &reportSource{
		Project:    setup.Project,
		Items:      items,
		Rooms:      setup.Rooms,
		Breakdowns: breakdowns,
	}, nil
}

// reportDestination resolves the output path and format for one report
// kind: flags first, then config, then csv into the configured directory.
func reportDestination(kind string) (string, string) {
	format := reportFormat
	if format == "" {
		format = cfg.Report.Format
	}
	if format == "" {
		format = "csv"
	}

	path := reportOutput
	if path == "" {
		ext := format
		if ext == "excel" {
			ext = "xlsx"
		}
		path = filepath.Join(cfg.Report.OutputDir, kind+"."+ext)
	}
	return path, format
}

// writeReport exports one table to its destination.
func writeReport(kind string, t *report.Table) error {
	path, format := reportDestination(kind)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "report: create output dir %s", dir)
		}
	}
	if err := report.Export(t, path, format); err != nil {
		return err
	}

	zap.L().Info("report written",
		zap.String("kind", kind),
		zap.String("path", path),
		zap.Int("rows", len(t.Rows)),
	)
	return nil
}

// loadBenchmarks reads a trade -> benchmark cost YAML file.
func loadBenchmarks() (map[string]decimal.Decimal, error) {
	path := reportBenchmarks
	if path == "" {
		path = cfg.Report.BenchmarksPath
	}
	if path == "" {
		return nil, eris.New("report: no benchmarks file: pass --benchmarks or set report.benchmarks_path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read benchmarks %s", path)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "report: parse benchmarks")
	}

	benchmarks := make(map[string]decimal.Decimal, len(raw))
	for trade, v := range raw {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, eris.Wrapf(err, "report: benchmark %s", trade)
		}
		benchmarks[trade] = d
	}
	return benchmarks, nil
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Cost cascade with phase and trade shares",
	RunE: func(cmd *cobra.Command, _ []string) error {
		src, err := loadReportSource(cmd.Context())
		if err != nil {
			return err
		}
		return writeReport("summary", report.Summary(src.Breakdowns, src.Items))
	},
}

var reportDetailedCmd = &cobra.Command{
	Use:   "detailed",
	Short: "Per-item cost rows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		src, err := loadReportSource(cmd.Context())
		if err != nil {
			return err
		}
		return writeReport("detailed", report.Detailed(src.Breakdowns, src.Items))
	},
}

var reportRoomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Per-room totals with cost per square foot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		src, err := loadReportSource(cmd.Context())
		if err != nil {
			return err
		}
		return writeReport("rooms", report.Rooms(src.Breakdowns, src.Items, src.Rooms))
	},
}

var reportAnalysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Outliers, distribution, and efficiency metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		src, err := loadReportSource(cmd.Context())
		if err != nil {
			return err
		}
		return writeReport("analysis", report.Analysis(src.Breakdowns, src.Items))
	},
}

var reportClassesCmd = &cobra.Command{
	Use:   "classes",
	Short: "Items grouped into cost class bands",
	RunE: func(cmd *cobra.Command, _ []string) error {
		src, err := loadReportSource(cmd.Context())
		if err != nil {
			return err
		}

		var ranges rollup.RangeSet
		if reportRanges != "" {
			if ranges, err = rollup.LoadRanges(reportRanges); err != nil {
				return err
			}
		}
		return writeReport("classes", report.CostClasses(src.Breakdowns, ranges))
	},
}

var reportCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Trade costs against benchmark figures",
	RunE: func(cmd *cobra.Command, _ []string) error {
		src, err := loadReportSource(cmd.Context())
		if err != nil {
			return err
		}
		benchmarks, err := loadBenchmarks()
		if err != nil {
			return err
		}
		return writeReport("compare", report.Comparison(src.Breakdowns, src.Items, benchmarks))
	},
}

var reportBundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Write every report into one directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		src, err := loadReportSource(cmd.Context())
		if err != nil {
			return err
		}

		tables := map[string]*report.Table{
			"summary":  report.Summary(src.Breakdowns, src.Items),
			"detailed": report.Detailed(src.Breakdowns, src.Items),
			"rooms":    report.Rooms(src.Breakdowns, src.Items, src.Rooms),
			"analysis": report.Analysis(src.Breakdowns, src.Items),
			"classes":  report.CostClasses(src.Breakdowns, nil),
		}
		if benchmarks, err := loadBenchmarks(); err == nil {
			tables["compare"] = report.Comparison(src.Breakdowns, src.Items, benchmarks)
		} else if reportBenchmarks != "" || cfg.Report.BenchmarksPath != "" {
			zap.L().Warn("skipping compare report", zap.Error(err))
		}

		dir := reportBundleDir
		if dir == "" {
			dir = cfg.Report.OutputDir
		}
		_, format := reportDestination("bundle")
		if err := report.ExportBundle(tables, dir, format); err != nil {
			return err
		}

		zap.L().Info("report bundle written",
			zap.String("dir", dir),
			zap.Int("reports", len(tables)),
		)
		return nil
	},
}

func init() {
	reportCmd.PersistentFlags().StringVar(&reportEstimateID, "estimate", "", "saved estimate ID to report on")
	reportCmd.PersistentFlags().StringVar(&reportTakeoff, "takeoff", "", "takeoff file for a fresh calculation")
	reportCmd.PersistentFlags().StringVar(&reportSetup, "setup", "", "project setup YAML for a fresh calculation")
	reportCmd.PersistentFlags().StringVar(&reportSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	reportCmd.PersistentFlags().StringVar(&reportCharset, "charset", "", "CSV character set for legacy exports")
	reportCmd.PersistentFlags().StringVar(&reportOutput, "output", "", "output file path (default: <output_dir>/<kind>.<format>)")
	reportCmd.PersistentFlags().StringVar(&reportFormat, "format", "", "output format: csv, xlsx, or json (default from config)")

	reportClassesCmd.Flags().StringVar(&reportRanges, "ranges", "", "custom cost class ranges YAML (default: built-in bands)")
	reportCompareCmd.Flags().StringVar(&reportBenchmarks, "benchmarks", "", "trade benchmarks YAML (default from config)")
	reportBundleCmd.Flags().StringVar(&reportBenchmarks, "benchmarks", "", "trade benchmarks YAML, adds a compare report when readable")
	reportBundleCmd.Flags().StringVar(&reportBundleDir, "dir", "", "bundle output directory (default: report output_dir)")

	reportCmd.AddCommand(reportSummaryCmd)
	reportCmd.AddCommand(reportDetailedCmd)
	reportCmd.AddCommand(reportRoomsCmd)
	reportCmd.AddCommand(reportAnalysisCmd)
	reportCmd.AddCommand(reportClassesCmd)
	reportCmd.AddCommand(reportCompareCmd)
	reportCmd.AddCommand(reportBundleCmd)
	rootCmd.AddCommand(reportCmd)
}
