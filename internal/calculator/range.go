package calculator

import (
	"errors"
	"math"

	"CryptoTracker/internal/model"
)

var errNoPoints = errors.New("no history points provided")

// PriceRange is the high/low band of a history window.
type PriceRange struct {
	High float64
	Low  float64
}

// CalculateRange returns the highest and lowest price in the window.
func CalculateRange(points []model.HistoryPoint) (PriceRange, error) {
	if len(points) == 0 {
		return PriceRange{}, errNoPoints
	}
	r := PriceRange{High: points[0].Price, Low: points[0].Price}
	for _, p := range points[1:] {
		r.High = math.Max(r.High, p.Price)
		r.Low = math.Min(r.Low, p.Price)
	}
	return r, nil
}

// Position places price in the band: 0 at Low, 1 at High, 0.5 for a flat band.
func (r PriceRange) Position(price float64) float64 {
	width := r.High - r.Low
	if width <= 0 {
		return 0.5
	}
	return math.Min(1, math.Max(0, (price-r.Low)/width))
}

// CalculateChange returns the percent change from the first to the last point.
func CalculateChange(points []model.HistoryPoint) (float64, error) {
	if len(points) == 0 {
		return 0, errNoPoints
	}
	first := points[0].Price
	if first == 0 {
		return 0, nil
	}
	return (points[len(points)-1].Price - first) / first * 100, nil
}
