// Package csvimport parses delimited trade exports into canonical trades
// using a caller-supplied column mapping.
package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcwinn/traderhub/internal/domain"
)

// dateLayouts are tried in order when parsing date columns. Exports disagree
// wildly on formats, so the common ones are all accepted.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// Importer converts one tabular export into canonical trades. It holds the
// column mapping for the duration of a single import and has no side effects
// beyond returning the parsed sequence.
type Importer struct {
	mapping domain.ColumnMapping
}

// NewImporter creates an Importer for the given column mapping. The mapping
// is validated up front so a missing required column fails before any file is
// read.
func NewImporter(mapping domain.ColumnMapping) (*Importer, error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	return &Importer{mapping: mapping}, nil
}

// ImportFile decodes data as delimited text with a header row and maps every
// subsequent row into a canonical trade. The import is fail-fast: the first
// malformed row aborts the whole call with a ValueError naming the row and
// field, so a caller wanting partial imports must pre-validate.
func (im *Importer) ImportFile(data []byte) ([]domain.Trade, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, &domain.ParseError{Err: fmt.Errorf("reading header row: %w", err)}
	}

	cols, err := im.resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var trades []domain.Trade
	for rowIdx := 0; ; rowIdx++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.ParseError{Err: fmt.Errorf("reading row %d: %w", rowIdx, err)}
		}

		trade, err := im.mapRow(cols, record, rowIdx)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	return trades, nil
}

// columnIndexes holds the resolved header position of every mapped column.
// A value of -1 means the optional column is not mapped.
type columnIndexes struct {
	id, symbol, side, quantity    int
	price, entryPrice, exitPrice  int
	entryDate, exitDate           int
	pnl, fees, commission         int
	strategy, notes, tags, broker int
}

// resolveColumns looks up every mapped column in the header by name. A mapped
// column that is absent from the header is a FieldMappingError naming the
// offending column.
func (im *Importer) resolveColumns(header []string) (columnIndexes, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}

	cols := columnIndexes{}
	m := im.mapping

	required := []struct {
		field  string
		column string
		dst    *int
	}{
		{"symbol", m.Symbol, &cols.symbol},
		{"side", m.Side, &cols.side},
		{"quantity", m.Quantity, &cols.quantity},
		{"exitDate", m.ExitDate, &cols.exitDate},
	}
	for _, r := range required {
		i, ok := pos[r.column]
		if !ok {
			return cols, &domain.FieldMappingError{Field: r.field, Column: r.column}
		}
		*r.dst = i
	}

	optional := []struct {
		field  string
		column string
		dst    *int
	}{
		{"id", m.ID, &cols.id},
		{"price", m.Price, &cols.price},
		{"entryPrice", m.EntryPrice, &cols.entryPrice},
		{"exitPrice", m.ExitPrice, &cols.exitPrice},
		{"entryDate", m.EntryDate, &cols.entryDate},
		{"pnl", m.Pnl, &cols.pnl},
		{"fees", m.Fees, &cols.fees},
		{"commission", m.Commission, &cols.commission},
		{"strategy", m.Strategy, &cols.strategy},
		{"notes", m.Notes, &cols.notes},
		{"tags", m.Tags, &cols.tags},
		{"broker", m.Broker, &cols.broker},
	}
	for _, o := range optional {
		*o.dst = -1
		if o.column == "" {
			continue
		}
		i, ok := pos[o.column]
		if !ok {
			return cols, &domain.FieldMappingError{Field: o.field, Column: o.column}
		}
		*o.dst = i
	}

	// Price columns were validated as a group by the mapping, but the file
	// itself must carry at least one usable source for both sides.
	if cols.price == -1 && (cols.entryPrice == -1 || cols.exitPrice == -1) {
		return cols, &domain.FieldMappingError{Field: "price", Column: m.Price}
	}

	return cols, nil
}

// mapRow converts one data row into a canonical trade.
func (im *Importer) mapRow(cols columnIndexes, record []string, rowIdx int) (domain.Trade, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var trade domain.Trade

	trade.Symbol = strings.ToUpper(cell(cols.symbol))

	side, err := domain.ParseSide(cell(cols.side))
	if err != nil {
		return trade, &domain.ValueError{Row: rowIdx, Field: "side", Value: cell(cols.side), Err: err}
	}
	trade.Side = side

	trade.Quantity, err = parseFloat(cell(cols.quantity))
	if err != nil {
		return trade, &domain.ValueError{Row: rowIdx, Field: "quantity", Value: cell(cols.quantity), Err: err}
	}

	// A single price column populates both entry and exit: single-leg
	// execution exports carry one fill price per row.
	if cols.price >= 0 {
		price, err := parseFloat(cell(cols.price))
		if err != nil {
			return trade, &domain.ValueError{Row: rowIdx, Field: "price", Value: cell(cols.price), Err: err}
		}
		trade.EntryPrice = price
		exit := price
		trade.ExitPrice = &exit
	} else {
		trade.EntryPrice, err = parseFloat(cell(cols.entryPrice))
		if err != nil {
			return trade, &domain.ValueError{Row: rowIdx, Field: "entryPrice", Value: cell(cols.entryPrice), Err: err}
		}
		exit, err := parseFloat(cell(cols.exitPrice))
		if err != nil {
			return trade, &domain.ValueError{Row: rowIdx, Field: "exitPrice", Value: cell(cols.exitPrice), Err: err}
		}
		trade.ExitPrice = &exit
	}

	trade.ExitDate, err = parseDate(cell(cols.exitDate))
	if err != nil {
		return trade, &domain.ValueError{Row: rowIdx, Field: "exitDate", Value: cell(cols.exitDate), Err: err}
	}

	trade.EntryDate = trade.ExitDate
	if cols.entryDate >= 0 && cell(cols.entryDate) != "" {
		trade.EntryDate, err = parseDate(cell(cols.entryDate))
		if err != nil {
			return trade, &domain.ValueError{Row: rowIdx, Field: "entryDate", Value: cell(cols.entryDate), Err: err}
		}
	}

	if cols.pnl >= 0 && cell(cols.pnl) != "" {
		trade.Pnl, err = parseFloat(cell(cols.pnl))
		if err != nil {
			return trade, &domain.ValueError{Row: rowIdx, Field: "pnl", Value: cell(cols.pnl), Err: err}
		}
	}
	if cols.fees >= 0 && cell(cols.fees) != "" {
		trade.Fees, err = parseFloat(cell(cols.fees))
		if err != nil {
			return trade, &domain.ValueError{Row: rowIdx, Field: "fees", Value: cell(cols.fees), Err: err}
		}
	}
	if cols.commission >= 0 && cell(cols.commission) != "" {
		trade.Commission, err = parseFloat(cell(cols.commission))
		if err != nil {
			return trade, &domain.ValueError{Row: rowIdx, Field: "commission", Value: cell(cols.commission), Err: err}
		}
	}

	trade.ID = cell(cols.id)
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}

	trade.Strategy = cell(cols.strategy)
	trade.Broker = cell(cols.broker)
	trade.Notes = cell(cols.notes)
	if cols.tags >= 0 {
		trade.Tags = domain.NormalizeTags(strings.Split(cell(cols.tags), ","))
	}

	return trade, nil
}

func parseFloat(s string) (float64, error) {
	// Tolerate thousands separators and a leading currency sign.
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	return strconv.ParseFloat(s, 64)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}
