package calculator

import "CryptoTracker/internal/model"

// HistoryStats summarizes a history window for the chart view.
type HistoryStats struct {
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Average   float64 `json:"average"`
	Position  float64 `json:"position"`   // latest price within [low, high]
	ChangePct float64 `json:"change_pct"` // first to last point
	RSI       float64 `json:"rsi"`
}

// Summarize computes HistoryStats. It returns nil for an empty window.
func Summarize(points []model.HistoryPoint) *HistoryStats {
	if len(points) == 0 {
		return nil
	}
	band, _ := CalculateRange(points)
	avg, _ := CalculateAverage(points)
	change, _ := CalculateChange(points)
	rsi, _ := CalculateRSI(extractPrices(points), DefaultRSIPeriod)
	return &HistoryStats{
		High:      band.High,
		Low:       band.Low,
		Average:   avg,
		Position:  band.Position(points[len(points)-1].Price),
		ChangePct: change,
		RSI:       rsi,
	}
}
