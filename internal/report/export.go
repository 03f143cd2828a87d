package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// Export writes the table to path in the named format (csv, xlsx, or
// json; "excel" is accepted as an alias). An empty format is inferred
// from the file extension.
func Export(t *Table, path, format string) error {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}

	var err error
	switch strings.ToLower(format) {
	case "csv":
		err = ExportCSV(t, path)
	case "xlsx", "excel":
		err = ExportXLSX(t, path)
	case "json":
		err = ExportJSON(t, path)
	default:
		return eris.Errorf("report: unsupported format %q", format)
	}
	if err != nil {
		return err
	}

	zap.L().Info("report exported",
		zap.String("path", path),
		zap.String("format", strings.ToLower(format)),
	)
	return nil
}

// ExportCSV writes the table as a header row plus one record per row.
func ExportCSV(t *Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "report: flush csv")
}

// ExportXLSX writes the table as a single worksheet named after its title.
func ExportXLSX(t *Table, path string) error {
	title := t.Title
	if title == "" {
		title = "Report"
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(title)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %s", title)
	}

	header := sheet.AddRow()
	for _, col := range t.Columns {
		header.AddCell().SetString(col)
	}
	for _, row := range t.Rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

// ExportJSON writes the table as an indented array of row objects.
func ExportJSON(t *Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(t.records()), "report: encode json")
}

// ExportBundle writes several tables into dir, one file per table named
// after its map key.
func ExportBundle(tables map[string]*Table, dir, format string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "report: create %s", dir)
	}

	ext := strings.ToLower(format)
	if ext == "excel" {
		ext = "xlsx"
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name+"."+ext)
		if err := Export(tables[name], path, format); err != nil {
			return err
		}
	}
	return nil
}
