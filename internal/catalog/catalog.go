// Package catalog loads pricing catalog and labor rate data from vendor CSV
// drops.
package catalog

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meridian-build/estimator/internal/fetch"
	"github.com/meridian-build/estimator/internal/model"
)

// Entry is one priced catalog item.
type Entry struct {
	Description          string           `json:"item_description"`
	Trade                model.Trade      `json:"trade"`
	Unit                 string           `json:"unit"`
	MaterialUnitCost     decimal.Decimal  `json:"material_unit_cost"`
	LaborHoursPerUnit    *decimal.Decimal `json:"labor_hours_per_unit,omitempty"`
	EquipmentCostPerUnit *decimal.Decimal `json:"equipment_cost_per_unit,omitempty"`
	OverheadRate         *decimal.Decimal `json:"overhead_rate,omitempty"`
	ProfitRate           *decimal.Decimal `json:"profit_rate,omitempty"`
	Source               string           `json:"source"`
	UpdatedAt            *time.Time       `json:"date_updated,omitempty"`
	Notes                string           `json:"notes,omitempty"`
}

// LaborRate is an hourly labor rate for a trade in one location.
type LaborRate struct {
	Trade       model.Trade     `json:"trade"`
	Location    string          `json:"location"`
	RatePerHour decimal.Decimal `json:"labor_rate_per_hour"`
}

// LoadOptions configures catalog file parsing.
type LoadOptions struct {
	Charset string // source encoding for legacy vendor exports
}

// entryColumns are required in a pricing catalog file.
var entryColumns = []string{"item_description", "trade", "material_unit_cost", "unit"}

// rateColumns are required in a labor rates file.
var rateColumns = []string{"trade", "labor_rate_per_hour", "location"}

// LoadEntries reads a pricing catalog CSV. Rows with an unknown trade or an
// unparseable material cost are skipped with a warning; the rest load.
func LoadEntries(ctx context.Context, path string, opts LoadOptions) ([]Entry, error) {
	header, rows, err := readFile(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	cols, err := indexColumns(header, entryColumns)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: pricing file %s", path)
	}

	var entries []Entry
	for i, row := range rows {
		trade := model.Trade(normalizeCell(cell(row, cols["trade"])))
		if !trade.Valid() {
			zap.L().Warn("catalog: invalid trade, row skipped",
				zap.String("trade", string(trade)),
				zap.Int("row", i+2),
			)
			continue
		}

		cost, err := decimal.NewFromString(cell(row, cols["material_unit_cost"]))
		if err != nil {
			zap.L().Warn("catalog: invalid material cost, row skipped",
				zap.String("value", cell(row, cols["material_unit_cost"])),
				zap.Int("row", i+2),
			)
			continue
		}

		e := Entry{
			Description:          cell(row, cols["item_description"]),
			Trade:                trade,
			Unit:                 cell(row, cols["unit"]),
			MaterialUnitCost:     cost,
			LaborHoursPerUnit:    parseOptionalDecimal(cell(row, cols["labor_hours_per_unit"])),
			EquipmentCostPerUnit: parseOptionalDecimal(cell(row, cols["equipment_cost_per_unit"])),
			OverheadRate:         parseOptionalDecimal(cell(row, cols["overhead_rate"])),
			ProfitRate:           parseOptionalDecimal(cell(row, cols["profit_rate"])),
			Source:               cell(row, cols["source"]),
			UpdatedAt:            parseOptionalDate(cell(row, cols["date_updated"])),
			Notes:                cell(row, cols["notes"]),
		}
		if e.Source == "" {
			e.Source = "catalog"
		}

		entries = append(entries, e)
	}

	zap.L().Info("catalog: pricing entries loaded",
		zap.String("path", path),
		zap.Int("entries", len(entries)),
	)

	return entries, nil
}

// LoadLaborRates reads a labor rates CSV. Rows with an unknown trade or an
// unparseable rate are skipped with a warning.
func LoadLaborRates(ctx context.Context, path string, opts LoadOptions) ([]LaborRate, error) {
	header, rows, err := readFile(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	cols, err := indexColumns(header, rateColumns)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: labor rates file %s", path)
	}

	var rates []LaborRate
	for i, row := range rows {
		trade := model.Trade(normalizeCell(cell(row, cols["trade"])))
		if !trade.Valid() {
			zap.L().Warn("catalog: invalid trade, labor rate skipped",
				zap.String("trade", string(trade)),
				zap.Int("row", i+2),
			)
			continue
		}

		rate := parseOptionalDecimal(cell(row, cols["labor_rate_per_hour"]))
		if rate == nil {
			zap.L().Warn("catalog: invalid labor rate, row skipped",
				zap.String("value", cell(row, cols["labor_rate_per_hour"])),
				zap.Int("row", i+2),
			)
			continue
		}

		rates = append(rates, LaborRate{
			Trade:       trade,
			Location:    cell(row, cols["location"]),
			RatePerHour: *rate,
		})
	}

	zap.L().Info("catalog: labor rates loaded",
		zap.String("path", path),
		zap.Int("rates", len(rates)),
	)

	return rates, nil
}

// readFile opens a CSV file and returns its header and data rows.
func readFile(ctx context.Context, path string, opts LoadOptions) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "catalog: open %s", path)
	}
	defer f.Close()

	header, rows, err := fetch.ReadCSV(ctx, f, fetch.CSVOptions{
		HasHeader: true,
		TrimSpace: true,
		Charset:   opts.Charset,
	})
	if err != nil {
		return nil, nil, eris.Wrapf(err, "catalog: read %s", path)
	}

	return header, rows, nil
}
