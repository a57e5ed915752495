package formulas

// DrawdownMetrics represents drawdown analysis results
type DrawdownMetrics struct {
	MaxDrawdown     float64 `json:"max_drawdown"`     // Maximum drawdown as a positive fraction (0.25 = 25%)
	CurrentDrawdown float64 `json:"current_drawdown"` // Current drawdown from peak
	DaysInDrawdown  int     `json:"days_in_drawdown"` // Observations since peak
	PeakValue       float64 `json:"peak_value"`
	CurrentValue    float64 `json:"current_value"`
}

// DrawdownPercent returns the percentage decline from reference to current.
//
//	Drawdown % = (Reference - Current) × 100 / Reference
//
// A price rise yields a negative value. Returns nil when reference is not
// strictly positive, because the ratio is undefined there.
func DrawdownPercent(reference, current float64) *float64 {
	if reference <= 0 {
		return nil
	}
	pct := (reference - current) * 100 / reference
	return &pct
}

// CalculateMaxDrawdown calculates the maximum drawdown from a value series
//
// Drawdown Formula:
//
//	Drawdown = (Peak Value - Current Value) / Peak Value
//	Max Drawdown = Maximum of all drawdowns
//
// Returns the maximum drawdown as a positive fraction, or nil for fewer than two values.
func CalculateMaxDrawdown(values []float64) *float64 {
	metrics := CalculateDrawdownMetrics(values)
	if metrics == nil {
		return nil
	}
	return &metrics.MaxDrawdown
}

// CalculateDrawdownMetrics calculates comprehensive drawdown metrics
// including current drawdown, days in drawdown, and peak values
func CalculateDrawdownMetrics(values []float64) *DrawdownMetrics {
	if len(values) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := values[0]
	peakIndex := 0
	currentValue := values[len(values)-1]

	for i, v := range values {
		if v > peak {
			peak = v
			peakIndex = i
		}

		if peak > 0 {
			drawdown := (peak - v) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	currentDrawdown := 0.0
	if peak > 0 {
		currentDrawdown = (peak - currentValue) / peak
	}

	return &DrawdownMetrics{
		MaxDrawdown:     maxDrawdown,
		CurrentDrawdown: currentDrawdown,
		DaysInDrawdown:  len(values) - 1 - peakIndex,
		PeakValue:       peak,
		CurrentValue:    currentValue,
	}
}
