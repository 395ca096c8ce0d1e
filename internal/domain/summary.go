package domain

import "time"

// PerformanceSummary holds aggregate statistics derived from a trade set.
// It is never persisted; it is recomputed on demand as a pure function of the
// current working set.
type PerformanceSummary struct {
	TotalTrades        int     `json:"totalTrades"`
	ProfitableTrades   int     `json:"profitableTrades"`
	UnprofitableTrades int     `json:"unprofitableTrades"`
	WinRate            float64 `json:"winRate"` // percent, 0 when no trades
	// ProfitFactor is gross profit divided by the absolute gross loss. When
	// the loss bucket is empty it is reported as the gross profit unchanged.
	ProfitFactor float64 `json:"profitFactor"`
	AverageWin   float64 `json:"averageWin"`
	AverageLoss  float64 `json:"averageLoss"` // reported as a positive magnitude
	LargestWin   float64 `json:"largestWin"`
	LargestLoss  float64 `json:"largestLoss"` // reported as a positive magnitude
	GrossProfit  float64 `json:"grossProfit"`
	GrossLoss    float64 `json:"grossLoss"` // reported as a positive magnitude
	NetPnl       float64 `json:"netPnl"`
}

// StrategySummary holds per-strategy statistics for one distinct strategy
// label. Derived on demand, never persisted.
type StrategySummary struct {
	Strategy      string  `json:"strategy"`
	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
	WinRate       float64 `json:"winRate"` // percent
	TotalPnl      float64 `json:"totalPnl"`
	AveragePnl    float64 `json:"averagePnl"`
}

// PnlPoint is one step of a cumulative profit-and-loss series: the trade's
// exit date paired with the running total after that trade.
type PnlPoint struct {
	Date          time.Time `json:"date"`
	CumulativePnl float64   `json:"cumulativePnl"`
}

// DayPnl is the realized profit-and-loss of one calendar day. Days inside a
// requested range with no trades are present with a zero Pnl, not absent.
type DayPnl struct {
	Date time.Time `json:"date"` // truncated to midnight UTC
	Pnl  float64   `json:"pnl"`
}

// WeekPnl is the realized profit-and-loss of the seven calendar days
// starting at Start.
type WeekPnl struct {
	Start time.Time `json:"start"` // first day of the week, truncated to midnight UTC
	Pnl   float64   `json:"pnl"`
}
