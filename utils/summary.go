package utils

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/cristian-franco-ml/Hotel-v2/models"
)

// RenderSummary prints a per-date table followed by the aggregate stats.
func RenderSummary(out io.Writer, result models.ScrapeResult, stats SummaryStats) {
	days := table.NewWriter()
	days.SetOutputMirror(out)
	days.SetTitle(result.Property.Name)
	days.AppendHeader(table.Row{"Check-in", "Rooms", "Cheapest", "Room types"})
	for _, day := range result.Days {
		cheapest := "-"
		var best float64
		types := make([]string, 0, len(day.Rooms))
		for _, q := range day.Rooms {
			types = append(types, q.RoomType)
			if v, ok := ParsePrice(q.Price); ok && (cheapest == "-" || v < best) {
				best, cheapest = v, q.Price
			}
		}
		days.AppendRow(table.Row{day.Date, len(day.Rooms), cheapest, Truncate(strings.Join(types, ", "), 60)})
	}
	days.SetStyle(table.StyleRounded)
	days.Render()

	totals := table.NewWriter()
	totals.SetOutputMirror(out)
	totals.AppendRows([]table.Row{
		{"Dates sampled", stats.Days},
		{"Dates with rooms", stats.DaysWithRooms},
		{"Quotes", stats.TotalQuotes},
		{"Average price", fmt.Sprintf("%.2f", stats.AveragePrice)},
		{"Minimum price", fmt.Sprintf("%.2f (%s, %s)", stats.MinimumPrice, stats.Cheapest.Date, stats.Cheapest.Quote.RoomType)},
		{"Maximum price", fmt.Sprintf("%.2f (%s, %s)", stats.MaximumPrice, stats.MostExpensive.Date, stats.MostExpensive.Quote.RoomType)},
	})
	for _, rc := range stats.QuotesPerRoom {
		totals.AppendRow(table.Row{"  " + Truncate(rc.RoomType, 40), rc.Count})
	}
	totals.SetStyle(table.StyleRounded)
	totals.Render()
}

func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
