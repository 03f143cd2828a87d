package qto

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/meridian-build/estimator/internal/fetch"
	"github.com/meridian-build/estimator/internal/model"
)

// LoadOptions control how a takeoff file is read.
type LoadOptions struct {
	Sheet   string // XLSX sheet name; empty means the first sheet
	Charset string // CSV character set label; empty means UTF-8
}

// LoadItems reads line items from an XLSX or CSV takeoff file. Invalid rows
// come back as issues alongside the items that did parse.
func LoadItems(ctx context.Context, path string, opts LoadOptions) ([]model.LineItem, []ValidationIssue, error) {
	header, rows, err := readTable(ctx, path, opts)
	if err != nil {
		return nil, nil, err
	}
	items, issues, err := ParseItems(header, rows)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "qto: %s", path)
	}
	logLoad("takeoff items loaded", path, len(items), issues)
	return items, issues, nil
}

// LoadRooms reads the room schedule from an XLSX or CSV file.
func LoadRooms(ctx context.Context, path string, opts LoadOptions) ([]model.Room, []ValidationIssue, error) {
	header, rows, err := readTable(ctx, path, opts)
	if err != nil {
		return nil, nil, err
	}
	rooms, issues, err := ParseRooms(header, rows)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "qto: %s", path)
	}
	logLoad("room schedule loaded", path, len(rooms), issues)
	return rooms, issues, nil
}

// readTable reads the header row and data rows from path, dispatching on
// the file extension.
func readTable(ctx context.Context, path string, opts LoadOptions) ([]string, [][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		all, err := fetch.ReadXLSX(path, fetch.XLSXOptions{SheetName: opts.Sheet})
		if err != nil {
			return nil, nil, eris.Wrapf(err, "qto: read %s", path)
		}
		if len(all) == 0 {
			return nil, nil, eris.Errorf("qto: %s has no rows", path)
		}
		return all[0], all[1:], nil
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "qto: open %s", path)
		}
		defer f.Close()

		header, rows, err := fetch.ReadCSV(ctx, f, fetch.CSVOptions{
			HasHeader: true,
			TrimSpace: true,
			Charset:   opts.Charset,
		})
		if err != nil {
			return nil, nil, eris.Wrapf(err, "qto: read %s", path)
		}
		return header, rows, nil
	}
}

func logLoad(msg, path string, count int, issues []ValidationIssue) {
	fields := []zap.Field{
		zap.String("path", path),
		zap.Int("rows", count),
	}
	if len(issues) > 0 {
		fields = append(fields, zap.Int("issues", len(issues)))
	}
	zap.L().Info(msg, fields...)
}
