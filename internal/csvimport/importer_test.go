package csvimport

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcwinn/traderhub/internal/domain"
)

func testMapping() domain.ColumnMapping {
	return domain.ColumnMapping{
		Symbol:   "Symbol",
		Side:     "Side",
		Quantity: "Qty",
		Price:    "Price",
		ExitDate: "Date",
		Pnl:      "PnL",
		Fees:     "Fees",
		Strategy: "Strategy",
		Tags:     "Tags",
		Broker:   "Broker",
		Notes:    "Notes",
	}
}

func TestImportFile(t *testing.T) {
	im, err := NewImporter(testMapping())
	require.NoError(t, err)

	csvData := strings.Join([]string{
		"Symbol,Side,Qty,Price,Date,PnL,Fees,Strategy,Tags,Broker,Notes",
		"aapl,long,100,174.32,2024-03-01,464,1.5,Breakout,\"momentum, gap\",tradezero,held through lunch",
		"TSLA,Short position,50,243.08,2024-03-02,-231.5,,,,,",
	}, "\n")

	trades, err := im.ImportFile([]byte(csvData))
	require.NoError(t, err)
	require.Len(t, trades, 2)

	first := trades[0]
	require.Equal(t, "AAPL", first.Symbol)
	require.Equal(t, domain.SideLong, first.Side)
	require.Equal(t, 100.0, first.Quantity)
	require.Equal(t, 174.32, first.EntryPrice)
	require.NotNil(t, first.ExitPrice)
	// A single price column populates both entry and exit.
	require.Equal(t, 174.32, *first.ExitPrice)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first.ExitDate)
	require.Equal(t, 464.0, first.Pnl)
	require.Equal(t, 1.5, first.Fees)
	require.Equal(t, "Breakout", first.Strategy)
	require.Equal(t, []string{"gap", "momentum"}, first.Tags)
	require.NotEmpty(t, first.ID)

	second := trades[1]
	require.Equal(t, domain.SideShort, second.Side)
	require.Equal(t, -231.5, second.Pnl)
}

func TestImportFile_HeaderReordered(t *testing.T) {
	// Columns are resolved by header name, never by position.
	im, err := NewImporter(testMapping())
	require.NoError(t, err)

	csvData := strings.Join([]string{
		"Date,PnL,Symbol,Fees,Side,Qty,Price,Strategy,Tags,Broker,Notes",
		"2024-03-01,464,AAPL,0,buy,100,174.32,,,,",
	}, "\n")

	trades, err := im.ImportFile([]byte(csvData))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, "AAPL", trades[0].Symbol)
	require.Equal(t, 464.0, trades[0].Pnl)
}

func TestImportFile_SideNormalization(t *testing.T) {
	im, err := NewImporter(domain.ColumnMapping{
		Symbol: "Symbol", Side: "Side", Quantity: "Qty", Price: "Price", ExitDate: "Date",
	})
	require.NoError(t, err)

	row := func(side string) []byte {
		return []byte(fmt.Sprintf("Symbol,Side,Qty,Price,Date\nAAPL,%s,10,5,2024-03-01\n", side))
	}

	trades, err := im.ImportFile(row("L"))
	require.NoError(t, err)
	require.Equal(t, domain.SideLong, trades[0].Side)

	trades, err = im.ImportFile(row("Short position"))
	require.NoError(t, err)
	require.Equal(t, domain.SideShort, trades[0].Side)

	// "sideways" contains neither recognized substring unambiguously and is
	// rejected, not guessed.
	_, err = im.ImportFile(row("sideways"))
	var ve *domain.ValueError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, 0, ve.Row)
	require.Equal(t, "side", ve.Field)
	require.Equal(t, "sideways", ve.Value)
}

func TestImportFile_MissingMappedColumn(t *testing.T) {
	im, err := NewImporter(testMapping())
	require.NoError(t, err)

	csvData := "Symbol,Side,Qty,Price\nAAPL,long,100,174.32\n"
	_, err = im.ImportFile([]byte(csvData))

	var fe *domain.FieldMappingError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "Date", fe.Column)
}

func TestImportFile_FailFast(t *testing.T) {
	im, err := NewImporter(domain.ColumnMapping{
		Symbol: "Symbol", Side: "Side", Quantity: "Qty", Price: "Price", ExitDate: "Date",
	})
	require.NoError(t, err)

	// Row 1 carries a malformed quantity; the whole import aborts even
	// though row 0 and row 2 are fine.
	csvData := strings.Join([]string{
		"Symbol,Side,Qty,Price,Date",
		"AAPL,long,100,10,2024-03-01",
		"TSLA,long,not-a-number,10,2024-03-01",
		"MSFT,long,5,10,2024-03-01",
	}, "\n")

	_, err = im.ImportFile([]byte(csvData))
	var ve *domain.ValueError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, 1, ve.Row)
	require.Equal(t, "quantity", ve.Field)
	require.Equal(t, "not-a-number", ve.Value)
}

func TestImportFile_BadDate(t *testing.T) {
	im, err := NewImporter(domain.ColumnMapping{
		Symbol: "Symbol", Side: "Side", Quantity: "Qty", Price: "Price", ExitDate: "Date",
	})
	require.NoError(t, err)

	_, err = im.ImportFile([]byte("Symbol,Side,Qty,Price,Date\nAAPL,long,10,5,yesterday\n"))
	var ve *domain.ValueError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "exitDate", ve.Field)
}

func TestImportFile_NotDelimitedText(t *testing.T) {
	im, err := NewImporter(testMapping())
	require.NoError(t, err)

	// Unbalanced quotes cannot be decoded as delimited text.
	_, err = im.ImportFile([]byte("Symbol,Side,\"Qty\nAAPL"))
	var pe *domain.ParseError
	require.True(t, errors.As(err, &pe))
}

func TestNewImporter_IncompleteMapping(t *testing.T) {
	_, err := NewImporter(domain.ColumnMapping{Symbol: "Symbol"})
	var fe *domain.FieldMappingError
	require.True(t, errors.As(err, &fe))
}

func TestImportFile_RoundTrip(t *testing.T) {
	// Exporting a canonical trade through the mapping's columns and
	// re-importing yields a record equal in all required fields.
	mapping := domain.ColumnMapping{
		Symbol: "Symbol", Side: "Side", Quantity: "Qty", Price: "Price", ExitDate: "Date", Pnl: "PnL",
	}
	im, err := NewImporter(mapping)
	require.NoError(t, err)

	exitPrice := 178.96
	want := domain.Trade{
		Symbol:     "AAPL",
		Side:       domain.SideLong,
		Quantity:   100,
		EntryPrice: 178.96,
		ExitPrice:  &exitPrice,
		EntryDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ExitDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Pnl:        464,
	}

	csvData := fmt.Sprintf("Symbol,Side,Qty,Price,Date,PnL\n%s,%s,%g,%g,%s,%g\n",
		want.Symbol, want.Side, want.Quantity, *want.ExitPrice,
		want.ExitDate.Format("2006-01-02"), want.Pnl)

	trades, err := im.ImportFile([]byte(csvData))
	require.NoError(t, err)
	require.Len(t, trades, 1)

	got := trades[0]
	require.Equal(t, want.Symbol, got.Symbol)
	require.Equal(t, want.Side, got.Side)
	require.Equal(t, want.Quantity, got.Quantity)
	require.Equal(t, want.EntryPrice, got.EntryPrice)
	require.Equal(t, *want.ExitPrice, *got.ExitPrice)
	require.Equal(t, want.ExitDate, got.ExitDate)
	require.Equal(t, want.Pnl, got.Pnl)
	// The id was not supplied, so a fresh one is generated.
	require.NotEmpty(t, got.ID)
}
