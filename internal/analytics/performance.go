// Package analytics derives aggregate statistics and time series from trade
// sets. Everything here is a pure function of its inputs; callers pass the
// reference time range explicitly, nothing reads the wall clock.
package analytics

import (
	"sort"

	"github.com/marcwinn/traderhub/internal/domain"
)

// Performance computes the aggregate statistics for a trade set. Open trades
// are excluded. Trades with exactly zero net profit count toward the total
// but toward neither the profitable nor the unprofitable bucket, so the two
// buckets need not sum to the total.
func Performance(trades []domain.Trade) domain.PerformanceSummary {
	var s domain.PerformanceSummary

	var winSum, lossSum float64
	for _, trade := range trades {
		if !trade.Closed() {
			continue
		}
		s.TotalTrades++
		s.NetPnl += trade.Pnl

		switch {
		case trade.Pnl > 0:
			s.ProfitableTrades++
			winSum += trade.Pnl
			if trade.Pnl > s.LargestWin {
				s.LargestWin = trade.Pnl
			}
		case trade.Pnl < 0:
			s.UnprofitableTrades++
			lossSum += -trade.Pnl
			if -trade.Pnl > s.LargestLoss {
				s.LargestLoss = -trade.Pnl
			}
		}
	}

	s.GrossProfit = winSum
	s.GrossLoss = lossSum

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.ProfitableTrades) / float64(s.TotalTrades) * 100
	}
	if s.ProfitableTrades > 0 {
		s.AverageWin = winSum / float64(s.ProfitableTrades)
	}
	if s.UnprofitableTrades > 0 {
		s.AverageLoss = lossSum / float64(s.UnprofitableTrades)
	}
	if lossSum > 0 {
		s.ProfitFactor = winSum / lossSum
	} else {
		// No losses: report the gross profit itself rather than a division
		// by zero artifact.
		s.ProfitFactor = winSum
	}

	return s
}

// StrategySummary computes per-strategy statistics for one strategy label.
// Trades with an empty strategy are attributed to the default label first,
// so lookups by "Unknown" find them.
func StrategySummary(trades []domain.Trade, strategy string) domain.StrategySummary {
	s := domain.StrategySummary{Strategy: strategy}

	for _, trade := range trades {
		if !trade.Closed() || strategyLabel(trade) != strategy {
			continue
		}
		s.TotalTrades++
		s.TotalPnl += trade.Pnl
		switch {
		case trade.Pnl > 0:
			s.WinningTrades++
		case trade.Pnl < 0:
			s.LosingTrades++
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
		s.AveragePnl = s.TotalPnl / float64(s.TotalTrades)
	}

	return s
}

// StrategySummaries computes one summary per distinct strategy label present
// in the trade set, sorted by label.
func StrategySummaries(trades []domain.Trade) []domain.StrategySummary {
	seen := make(map[string]bool)
	var labels []string
	for _, trade := range trades {
		if !trade.Closed() {
			continue
		}
		label := strategyLabel(trade)
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)

	summaries := make([]domain.StrategySummary, 0, len(labels))
	for _, label := range labels {
		summaries = append(summaries, StrategySummary(trades, label))
	}
	return summaries
}

func strategyLabel(trade domain.Trade) string {
	if trade.Strategy == "" {
		return domain.DefaultStrategy
	}
	return trade.Strategy
}
