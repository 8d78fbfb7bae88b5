package calculator

import "CryptoTracker/internal/model"

// CalculateAverage returns the mean price of the history window.
func CalculateAverage(points []model.HistoryPoint) (float64, error) {
	if len(points) == 0 {
		return 0, errNoPoints
	}
	var sum float64
	for _, p := range points {
		sum += p.Price
	}
	return sum / float64(len(points)), nil
}

func extractPrices(points []model.HistoryPoint) []float64 {
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	return prices
}
