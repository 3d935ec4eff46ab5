package server

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"scanguard/internal/dashboard"
	"scanguard/internal/models"
	"scanguard/internal/monitoring"
)

const chartFetchTimeout = 10 * time.Second

// handleReadingsChart renders the latest readings as a top-down scatter
// (polar -> XY, centimetres) using go-echarts.
func (s *Server) handleReadingsChart(w http.ResponseWriter, r *http.Request) {
	if s.readings == nil {
		http.NotFound(w, r)
		return
	}
	limit := parseLimit(r, s.readingsLimit)

	ctx, cancel := context.WithTimeout(r.Context(), chartFetchTimeout)
	defer cancel()
	page, err := s.readings.Readings(ctx, limit)
	if err != nil {
		monitoring.Logf("readings chart: %v", err)
		http.Error(w, "readings unavailable", http.StatusBadGateway)
		return
	}

	scatter := buildReadingsScatter(page.Readings, s.maxRangeCM)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := scatter.Render(w); err != nil {
		monitoring.Logf("render readings chart: %v", err)
	}
}

func buildReadingsScatter(readings []models.Reading, maxRangeCM float64) *charts.Scatter {
	clearPts, detectedPts := readingPoints(readings, maxRangeCM)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "ScanGuard Readings", Theme: "dark", Width: "900px", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: "Recent Readings", Subtitle: fmt.Sprintf("count=%d range=%gcm", len(readings), maxRangeCM)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -maxRangeCM, Max: maxRangeCM, Name: "X (cm)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: maxRangeCM, Name: "Y (cm)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("clear", clearPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	scatter.AddSeries("detected", detectedPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))
	return scatter
}

// readingPoints projects readings onto the sweep plane, splitting them by
// detection flag. Distances are clamped to the display range.
func readingPoints(readings []models.Reading, maxRangeCM float64) (clearPts, detected []opts.ScatterData) {
	clearPts = make([]opts.ScatterData, 0, len(readings))
	detected = make([]opts.ScatterData, 0, len(readings))
	for _, rd := range readings {
		dist := math.Max(0, math.Min(rd.Distance, maxRangeCM))
		theta := math.Max(0, math.Min(rd.Angle, 180)) * math.Pi / 180
		x := round2(dist * math.Cos(theta))
		y := round2(dist * math.Sin(theta))

		pt := opts.ScatterData{
			Name:  dashboard.WithUnit(rd.Angle, "°") + " / " + dashboard.WithUnit(rd.Distance, "cm"),
			Value: []interface{}{x, y},
		}
		if rd.ObjectDetected {
			detected = append(detected, pt)
		} else {
			clearPts = append(clearPts, pt)
		}
	}
	return clearPts, detected
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
