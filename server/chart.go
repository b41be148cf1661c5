package server

import (
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/cristian-franco-ml/Hotel-v2/forecast"
)

// priceChart draws real and predicted prices as two lines over one date
// axis. A day belongs to exactly one series; the other gets a gap.
func priceChart(series forecast.Series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: series.Hotel, Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: series.Hotel, Subtitle: "Daily average price"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	dates := make([]string, len(series.Points))
	actual := make([]opts.LineData, len(series.Points))
	predicted := make([]opts.LineData, len(series.Points))
	for i, p := range series.Points {
		dates[i] = p.Date
		actual[i] = opts.LineData{Value: "-"}
		predicted[i] = opts.LineData{Value: "-"}
		if p.Kind == forecast.KindReal {
			actual[i] = opts.LineData{Value: p.Price}
		} else {
			predicted[i] = opts.LineData{Value: p.Price}
		}
	}

	line.SetXAxis(dates).
		AddSeries("real", actual).
		AddSeries("predicted", predicted,
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
	return line
}

func (s *Server) chart(w http.ResponseWriter, r *http.Request) {
	series, status, err := s.series(r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := priceChart(series).Render(w); err != nil {
		s.logger.Error("render chart", "error", err)
	}
}
