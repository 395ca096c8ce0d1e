package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcwinn/traderhub/internal/domain"
)

func TestRunningPnl(t *testing.T) {
	trades := []domain.Trade{
		// Deliberately out of order.
		closed("c", "", 350, time.Date(2025, 8, 6, 15, 0, 0, 0, time.UTC)),
		closed("a", "", 550, time.Date(2025, 8, 4, 15, 0, 0, 0, time.UTC)),
		closed("b", "", -250, time.Date(2025, 8, 5, 15, 0, 0, 0, time.UTC)),
		open("x"),
	}

	points := RunningPnl(trades)
	require.Len(t, points, 3)

	require.Equal(t, 550.0, points[0].CumulativePnl)
	require.Equal(t, 300.0, points[1].CumulativePnl)
	require.Equal(t, 650.0, points[2].CumulativePnl)

	// The series ends at the set's net profit.
	require.Equal(t, Performance(trades).NetPnl, points[2].CumulativePnl)

	require.True(t, points[0].Date.Before(points[1].Date))
	require.True(t, points[1].Date.Before(points[2].Date))
}

func TestRunningPnl_Empty(t *testing.T) {
	require.Empty(t, RunningPnl(nil))
}

func TestDailyPnl(t *testing.T) {
	trades := []domain.Trade{
		closed("a", "", 550, time.Date(2025, 8, 4, 15, 0, 0, 0, time.UTC)),
		closed("b", "", -250, time.Date(2025, 8, 5, 15, 0, 0, 0, time.UTC)),
		closed("c", "", 350, time.Date(2025, 8, 6, 10, 0, 0, 0, time.UTC)),
		closed("d", "", -50, time.Date(2025, 8, 6, 15, 30, 0, 0, time.UTC)),
	}

	from := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC)

	days := DailyPnl(trades, from, to)
	require.Len(t, days, 5)

	require.Equal(t, 550.0, days[0].Pnl)
	require.Equal(t, -250.0, days[1].Pnl)
	require.Equal(t, 300.0, days[2].Pnl)
	// Empty days are present with zero, not absent.
	require.Equal(t, 0.0, days[3].Pnl)
	require.Equal(t, 0.0, days[4].Pnl)

	require.Equal(t, time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC), days[0].Date)
	require.Equal(t, time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC), days[4].Date)
}

func TestDailyPnl_IgnoresOutOfRange(t *testing.T) {
	trades := []domain.Trade{
		closed("a", "", 100, time.Date(2025, 7, 31, 15, 0, 0, 0, time.UTC)),
		closed("b", "", 200, time.Date(2025, 8, 1, 15, 0, 0, 0, time.UTC)),
	}

	days := DailyPnl(trades,
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, days, 1)
	require.Equal(t, 200.0, days[0].Pnl)
}

func TestDailyPnl_InvertedRange(t *testing.T) {
	days := DailyPnl(nil,
		time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	require.Nil(t, days)
}

func TestWeeklyPnl(t *testing.T) {
	trades := []domain.Trade{
		// Week of Mon Aug 4.
		closed("a", "", 550, time.Date(2025, 8, 4, 15, 0, 0, 0, time.UTC)),
		closed("b", "", -250, time.Date(2025, 8, 8, 15, 0, 0, 0, time.UTC)),
		// Week of Mon Aug 11.
		closed("c", "", 350, time.Date(2025, 8, 13, 15, 0, 0, 0, time.UTC)),
	}

	from := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 24, 0, 0, 0, 0, time.UTC)

	weeks := WeeklyPnl(trades, from, to, time.Monday)
	require.Len(t, weeks, 3)

	require.Equal(t, time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC), weeks[0].Start)
	require.Equal(t, 300.0, weeks[0].Pnl)
	require.Equal(t, time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC), weeks[1].Start)
	require.Equal(t, 350.0, weeks[1].Pnl)
	require.Equal(t, time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC), weeks[2].Start)
	require.Equal(t, 0.0, weeks[2].Pnl)
}

func TestWeeklyPnl_SundayStart(t *testing.T) {
	trades := []domain.Trade{
		closed("a", "", 100, time.Date(2025, 8, 4, 15, 0, 0, 0, time.UTC)), // Monday
	}

	weeks := WeeklyPnl(trades,
		time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC),
		time.Sunday)
	require.Len(t, weeks, 1)
	// A Sunday-anchored week containing Monday Aug 4 starts Sunday Aug 3.
	require.Equal(t, time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC), weeks[0].Start)
	require.Equal(t, 100.0, weeks[0].Pnl)
}
