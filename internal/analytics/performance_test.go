package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcwinn/traderhub/internal/domain"
)

func closed(id, strategy string, pnl float64, exit time.Time) domain.Trade {
	price := 100.0
	return domain.Trade{
		ID:         id,
		Symbol:     "ES",
		Side:       domain.SideLong,
		Quantity:   1,
		EntryPrice: price,
		ExitPrice:  &price,
		EntryDate:  exit.Add(-time.Hour),
		ExitDate:   exit,
		Pnl:        pnl,
		Strategy:   strategy,
	}
}

func open(id string) domain.Trade {
	return domain.Trade{
		ID:         id,
		Symbol:     "ES",
		Side:       domain.SideLong,
		Quantity:   1,
		EntryPrice: 100,
		EntryDate:  time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC),
	}
}

func TestPerformance(t *testing.T) {
	trades := []domain.Trade{
		closed("a", "breakout", 550, time.Date(2025, 8, 4, 15, 0, 0, 0, time.UTC)),
		closed("b", "breakout", -250, time.Date(2025, 8, 5, 15, 0, 0, 0, time.UTC)),
		closed("c", "reversal", 350, time.Date(2025, 8, 6, 15, 0, 0, 0, time.UTC)),
	}

	s := Performance(trades)
	require.Equal(t, 3, s.TotalTrades)
	require.Equal(t, 2, s.ProfitableTrades)
	require.Equal(t, 1, s.UnprofitableTrades)
	require.InDelta(t, 66.67, s.WinRate, 0.01)
	require.InDelta(t, 3.6, s.ProfitFactor, 1e-9)
	require.Equal(t, 450.0, s.AverageWin)
	require.Equal(t, 250.0, s.AverageLoss)
	require.Equal(t, 550.0, s.LargestWin)
	require.Equal(t, 250.0, s.LargestLoss)
	require.Equal(t, 900.0, s.GrossProfit)
	require.Equal(t, 250.0, s.GrossLoss)
	require.Equal(t, 650.0, s.NetPnl)
}

func TestPerformance_Empty(t *testing.T) {
	s := Performance(nil)
	require.Zero(t, s.TotalTrades)
	require.Zero(t, s.WinRate)
	require.Zero(t, s.ProfitFactor)
	require.Zero(t, s.NetPnl)
}

func TestPerformance_NoLosses(t *testing.T) {
	trades := []domain.Trade{
		closed("a", "", 100, time.Date(2025, 8, 4, 15, 0, 0, 0, time.UTC)),
		closed("b", "", 200, time.Date(2025, 8, 5, 15, 0, 0, 0, time.UTC)),
	}

	s := Performance(trades)
	require.Equal(t, 100.0, s.WinRate)
	// With an empty loss bucket the factor degrades to the gross profit.
	require.Equal(t, 300.0, s.ProfitFactor)
	require.Zero(t, s.AverageLoss)
}

func TestPerformance_ZeroPnlCountsTotalOnly(t *testing.T) {
	trades := []domain.Trade{
		closed("a", "", 100, time.Date(2025, 8, 4, 15, 0, 0, 0, time.UTC)),
		closed("b", "", 0, time.Date(2025, 8, 5, 15, 0, 0, 0, time.UTC)),
	}

	s := Performance(trades)
	require.Equal(t, 2, s.TotalTrades)
	require.Equal(t, 1, s.ProfitableTrades)
	require.Equal(t, 0, s.UnprofitableTrades)
	require.Equal(t, 50.0, s.WinRate)
}

func TestPerformance_SkipsOpenTrades(t *testing.T) {
	trades := []domain.Trade{
		closed("a", "", 100, time.Date(2025, 8, 4, 15, 0, 0, 0, time.UTC)),
		open("b"),
	}

	s := Performance(trades)
	require.Equal(t, 1, s.TotalTrades)
	require.Equal(t, 100.0, s.NetPnl)
}

func TestStrategySummaries(t *testing.T) {
	trades := []domain.Trade{
		closed("a", "breakout", 550, time.Date(2025, 8, 4, 15, 0, 0, 0, time.UTC)),
		closed("b", "breakout", -250, time.Date(2025, 8, 5, 15, 0, 0, 0, time.UTC)),
		closed("c", "reversal", 350, time.Date(2025, 8, 6, 15, 0, 0, 0, time.UTC)),
		closed("d", "", 10, time.Date(2025, 8, 7, 15, 0, 0, 0, time.UTC)),
	}

	summaries := StrategySummaries(trades)
	require.Len(t, summaries, 3)
	// Sorted by label; the unlabeled trade lands under the default.
	require.Equal(t, domain.DefaultStrategy, summaries[0].Strategy)
	require.Equal(t, "breakout", summaries[1].Strategy)
	require.Equal(t, "reversal", summaries[2].Strategy)

	breakout := summaries[1]
	require.Equal(t, 2, breakout.TotalTrades)
	require.Equal(t, 1, breakout.WinningTrades)
	require.Equal(t, 1, breakout.LosingTrades)
	require.Equal(t, 50.0, breakout.WinRate)
	require.Equal(t, 300.0, breakout.TotalPnl)
	require.Equal(t, 150.0, breakout.AveragePnl)
}

func TestStrategySummary_Absent(t *testing.T) {
	s := StrategySummary(nil, "breakout")
	require.Equal(t, "breakout", s.Strategy)
	require.Zero(t, s.TotalTrades)
	require.Zero(t, s.WinRate)
}
