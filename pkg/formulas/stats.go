// Package formulas provides the numeric building blocks used by portfolio evaluation.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily series.
const TradingDaysPerYear = 252

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// CalculateReturns converts prices to fractional returns
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// TotalReturnPercent returns the percentage change from first to last.
// Returns nil when first is not strictly positive.
func TotalReturnPercent(first, last float64) *float64 {
	if first <= 0 {
		return nil
	}
	pct := (last - first) / first * 100
	return &pct
}

// Normalize divides every value by base, so a series starting at base starts at exactly 1.
// Returns nil when base is not strictly positive.
func Normalize(values []float64, base float64) []float64 {
	if base <= 0 {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / base
	}
	return out
}

// WeightedSum returns Σ values[i] × weights[i]. Both slices must have equal length.
func WeightedSum(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}
	return floats.Dot(values, weights)
}
