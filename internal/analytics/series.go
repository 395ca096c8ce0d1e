package analytics

import (
	"sort"
	"time"

	"github.com/marcwinn/traderhub/internal/domain"
)

// RunningPnl computes the cumulative profit-and-loss series of a trade set,
// ordered by exit date. Open trades are excluded. Ties on exit date keep
// their input order. The final point's cumulative value equals the net
// profit of the set.
func RunningPnl(trades []domain.Trade) []domain.PnlPoint {
	closed := make([]domain.Trade, 0, len(trades))
	for _, trade := range trades {
		if trade.Closed() {
			closed = append(closed, trade)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].ExitDate.Before(closed[j].ExitDate)
	})

	points := make([]domain.PnlPoint, 0, len(closed))
	var running float64
	for _, trade := range closed {
		running += trade.Pnl
		points = append(points, domain.PnlPoint{
			Date:          trade.ExitDate,
			CumulativePnl: running,
		})
	}
	return points
}

// DailyPnl buckets realized profit-and-loss by calendar day over the
// inclusive [from, to] range. Every day in the range is present; days with
// no trades carry a zero. Trades exiting outside the range are ignored.
func DailyPnl(trades []domain.Trade, from, to time.Time) []domain.DayPnl {
	start := truncateDay(from)
	end := truncateDay(to)
	if end.Before(start) {
		return nil
	}

	totals := make(map[time.Time]float64)
	for _, trade := range trades {
		if !trade.Closed() {
			continue
		}
		day := truncateDay(trade.ExitDate)
		if day.Before(start) || day.After(end) {
			continue
		}
		totals[day] += trade.Pnl
	}

	var days []domain.DayPnl
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, domain.DayPnl{Date: day, Pnl: totals[day]})
	}
	return days
}

// WeeklyPnl buckets realized profit-and-loss by calendar week over the
// inclusive [from, to] range. weekStart names the weekday weeks begin on.
// The first week starts on or before from; every week in the range is
// present, zero-filled when empty.
func WeeklyPnl(trades []domain.Trade, from, to time.Time, weekStart time.Weekday) []domain.WeekPnl {
	start := truncateWeek(from, weekStart)
	end := truncateWeek(to, weekStart)
	if end.Before(start) {
		return nil
	}

	rangeStart := truncateDay(from)
	rangeEnd := truncateDay(to)

	totals := make(map[time.Time]float64)
	for _, trade := range trades {
		if !trade.Closed() {
			continue
		}
		// Range membership is day-granular, matching DailyPnl, even when the
		// trade's week bucket starts before the range.
		day := truncateDay(trade.ExitDate)
		if day.Before(rangeStart) || day.After(rangeEnd) {
			continue
		}
		totals[truncateWeek(trade.ExitDate, weekStart)] += trade.Pnl
	}

	var weeks []domain.WeekPnl
	for week := start; !week.After(end); week = week.AddDate(0, 0, 7) {
		weeks = append(weeks, domain.WeekPnl{Start: week, Pnl: totals[week]})
	}
	return weeks
}

// truncateDay maps a time to midnight UTC of its calendar day.
func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// truncateWeek maps a time to midnight UTC of the most recent weekStart.
func truncateWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := truncateDay(t)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}
