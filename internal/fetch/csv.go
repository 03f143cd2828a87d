// Package fetch retrieves and parses tabular source data: catalog CSV drops,
// takeoff workbooks, and FTP downloads.
package fetch

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CSVOptions tunes CSV parsing for the assorted vendor export dialects.
type CSVOptions struct {
	Delimiter  rune            // default ','
	HasHeader  bool            // if true, first row is skipped but sent to HeaderCh
	HeaderCh   chan<- []string // optional: receives the header row
	Comment    rune            // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
	Charset    string // source encoding, e.g. "latin1"; empty means UTF-8
}

// decodeReader wraps r with a charset decoder when name is non-empty.
// Vendor catalog exports frequently arrive in legacy encodings.
func decodeReader(r io.Reader, name string) (io.Reader, error) {
	if name == "" {
		return r, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: unsupported charset %q", name)
	}
	return enc.NewDecoder().Reader(r), nil
}

func newRowReader(r io.Reader, opts CSVOptions) *csv.Reader {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	// Vendor drops pad short rows; row length is the parser's problem, not ours.
	reader.FieldsPerRecord = -1
	return reader
}

func trimFields(record []string) {
	for i, field := range record {
		record[i] = strings.TrimSpace(field)
	}
}

// StreamCSV reads CSV rows and sends them to a channel. The caller must
// drain the row channel, then check the error channel. Both close once
// the input is exhausted or a read stops early.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		src, err := decodeReader(r, opts.Charset)
		if err != nil {
			errCh <- err
			return
		}
		reader := newRowReader(src, opts)

		if opts.HasHeader {
			header, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read header")
				return
			}
			if opts.TrimSpace {
				trimFields(header)
			}
			if opts.HeaderCh != nil {
				select {
				case opts.HeaderCh <- header:
				case <-ctx.Done():
					errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled sending header")
					return
				}
			}
		}

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			if opts.TrimSpace {
				trimFields(record)
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSV collects all rows from a CSV source into memory and returns the
// header separately when opts.HasHeader is set.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) (header []string, rows [][]string, err error) {
	headerCh := make(chan []string, 1)
	if opts.HasHeader {
		opts.HeaderCh = headerCh
	}

	rowCh, errCh := StreamCSV(ctx, r, opts)
	for row := range rowCh {
		rows = append(rows, row)
	}
	if streamErr := <-errCh; streamErr != nil {
		return nil, nil, streamErr
	}

	if opts.HasHeader {
		select {
		case header = <-headerCh:
		default:
		}
	}

	return header, rows, nil
}
