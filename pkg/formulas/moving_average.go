package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMASeries returns the moving average for every index from length-1 on,
// so element i of the result belongs to values[i+length-1]. Returns nil
// when there are fewer than length values.
func SMASeries(values []float64, length int) []float64 {
	if length < 1 || len(values) < length {
		return nil
	}

	sma := talib.Sma(values, length)
	out := make([]float64, 0, len(values)-length+1)
	for _, v := range sma[length-1:] {
		if math.IsNaN(v) {
			return nil
		}
		out = append(out, v)
	}
	return out
}
