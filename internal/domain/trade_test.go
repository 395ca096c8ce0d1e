package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseSide(t *testing.T) {
	cases := []struct {
		in      string
		want    Side
		wantErr bool
	}{
		{"buy", SideLong, false},
		{"BUY", SideLong, false},
		{"b", SideLong, false},
		{"long", SideLong, false},
		{"L", SideLong, false},
		{"Long position", SideLong, false},
		{"sell", SideShort, false},
		{"short", SideShort, false},
		{"Short position", SideShort, false},
		{"s", SideShort, false},
		{"S", SideShort, false},
		{"sideways", "", true},
		{"", "", true},
		{"hold", "", true},
	}
	for _, tc := range cases {
		got, err := ParseSide(tc.in)
		if tc.wantErr {
			require.Error(t, err, "input %q", tc.in)
			var iv *InvariantViolation
			require.True(t, errors.As(err, &iv), "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func validTrade() Trade {
	exit := 105.0
	return Trade{
		ID:         "t-1",
		Symbol:     "AAPL",
		Side:       SideLong,
		Quantity:   100,
		EntryPrice: 100,
		ExitPrice:  &exit,
		EntryDate:  time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		ExitDate:   time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC),
		Pnl:        500,
	}
}

func TestTradeValidate(t *testing.T) {
	tr := validTrade()
	require.NoError(t, tr.Validate())

	t.Run("empty symbol", func(t *testing.T) {
		tr := validTrade()
		tr.Symbol = "  "
		requireViolation(t, tr.Validate(), "symbol")
	})

	t.Run("zero quantity", func(t *testing.T) {
		tr := validTrade()
		tr.Quantity = 0
		requireViolation(t, tr.Validate(), "quantity")
	})

	t.Run("negative quantity", func(t *testing.T) {
		tr := validTrade()
		tr.Quantity = -5
		requireViolation(t, tr.Validate(), "quantity")
	})

	t.Run("exit before entry", func(t *testing.T) {
		tr := validTrade()
		tr.ExitDate = tr.EntryDate.Add(-time.Hour)
		requireViolation(t, tr.Validate(), "exitDate")
	})

	t.Run("bad side", func(t *testing.T) {
		tr := validTrade()
		tr.Side = "diagonal"
		requireViolation(t, tr.Validate(), "side")
	})

	t.Run("negative fees", func(t *testing.T) {
		tr := validTrade()
		tr.Fees = -1
		requireViolation(t, tr.Validate(), "fees")
	})

	t.Run("open trade needs no exit", func(t *testing.T) {
		tr := validTrade()
		tr.ExitPrice = nil
		tr.ExitDate = time.Time{}
		require.NoError(t, tr.Validate())
		require.False(t, tr.Closed())
	})
}

func requireViolation(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	var iv *InvariantViolation
	require.True(t, errors.As(err, &iv))
	require.Equal(t, field, iv.Field)
}

func TestNormalizeTags(t *testing.T) {
	require.Equal(t, []string{"gap", "momentum"}, NormalizeTags([]string{" momentum", "gap", "momentum ", ""}))
	require.Nil(t, NormalizeTags(nil))
	require.Nil(t, NormalizeTags([]string{"", "  "}))
}
