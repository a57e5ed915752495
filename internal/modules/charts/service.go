// Package charts renders evaluation results as PNG charts.
package charts

import (
	"bytes"
	"fmt"
	"time"

	"github.com/aristath/portfolio-monitor/internal/domain"
	"github.com/aristath/portfolio-monitor/internal/modules/evaluation"
	"github.com/aristath/portfolio-monitor/pkg/formulas"
	"github.com/rs/zerolog"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// DefaultSMAPeriod is the moving average window drawn over the value series.
const DefaultSMAPeriod = 20

// pieColors cycles through allocation slices.
var pieColors = []string{
	"2563eb", "16a34a", "f59e0b", "dc2626", "7c3aed", "0891b2", "db2777", "65a30d", "ea580c", "475569",
}

// Service renders charts
type Service struct {
	smaPeriod int
	log       zerolog.Logger
}

// NewService creates a new charts service
func NewService(smaPeriod int, log zerolog.Logger) *Service {
	if smaPeriod < 2 {
		smaPeriod = DefaultSMAPeriod
	}
	return &Service{
		smaPeriod: smaPeriod,
		log:       log.With().Str("service", "charts").Logger(),
	}
}

// RenderValueChart draws the portfolio value line, the invested baseline
// and, when the series is long enough, a simple moving average.
func (s *Service) RenderValueChart(points []evaluation.ValuePoint, invested float64) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	xValues := make([]time.Time, len(points))
	valueY := make([]float64, len(points))
	investedY := make([]float64, len(points))

	for i, p := range points {
		xValues[i] = p.Date
		valueY[i] = p.Value
		investedY[i] = invested
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name: "Portfolio Value",
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
				StrokeWidth: 2.5,
			},
			XValues: xValues,
			YValues: valueY,
		},
		chart.TimeSeries{
			Name: "Invested",
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: xValues,
			YValues: investedY,
		},
	}

	if sma := formulas.SMASeries(valueY, s.smaPeriod); sma != nil {
		series = append(series, chart.TimeSeries{
			Name: fmt.Sprintf("SMA %d", s.smaPeriod),
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("f59e0b"), // amber-500
				StrokeWidth: 1.5,
			},
			XValues: xValues[s.smaPeriod-1:],
			YValues: sma,
		})
	}

	graph := chart.Chart{
		Title:  "Portfolio Value",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1fk", f/1000)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	s.log.Debug().Int("points", len(points)).Int("bytes", buf.Len()).Msg("Rendered value chart")
	return buf.Bytes(), nil
}

// RenderAllocationChart draws a pie of invested amounts labelled with
// each holding's share. Zero allocations are left out.
func (s *Service) RenderAllocationChart(portfolio domain.Portfolio) ([]byte, error) {
	total := portfolio.TotalInvested()
	if total <= 0 {
		return nil, fmt.Errorf("portfolio has no invested amount")
	}

	values := make([]chart.Value, 0, len(portfolio))
	for i, a := range portfolio {
		if a.InvestedAmount <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: AllocationLabel(a.Ticker, a.InvestedAmount, total),
			Value: a.InvestedAmount,
			Style: chart.Style{
				FillColor: drawing.ColorFromHex(pieColors[i%len(pieColors)]),
			},
		})
	}

	pie := chart.PieChart{
		Title:  "Allocation",
		Width:  512,
		Height: 512,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	s.log.Debug().Int("slices", len(values)).Int("bytes", buf.Len()).Msg("Rendered allocation chart")
	return buf.Bytes(), nil
}

// AllocationLabel formats a pie slice label such as "AAPL 20.0%".
func AllocationLabel(ticker string, amount, total float64) string {
	return fmt.Sprintf("%s %.1f%%", ticker, amount/total*100)
}
