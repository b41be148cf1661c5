package scraper

import (
	"sort"

	"github.com/cristian-franco-ml/Hotel-v2/models"
)

// Partition splits n dates into k contiguous ranges with no gaps or overlaps.
// k is clamped to [1, n]; the first n%k ranges get one extra date.
func Partition(n, k int) []models.SubRange {
	if n <= 0 {
		return nil
	}
	k = max(1, min(k, n))

	size, extra := n/k, n%k
	ranges := make([]models.SubRange, 0, k)
	start := 0
	for i := 0; i < k; i++ {
		end := start + size
		if i < extra {
			end++
		}
		ranges = append(ranges, models.SubRange{StartOffset: start, EndOffset: end})
		start = end
	}
	return ranges
}

// Normalize merges range results into one DayResult per window date, in date
// order. Dates no range delivered get an empty room list; arrival order of the
// results does not matter.
func Normalize(window models.DateWindow, results []models.RangeResult) []models.DayResult {
	byDate := make(map[string][]models.RoomQuote)
	for _, r := range results {
		for _, d := range r.Days {
			byDate[d.Date] = append(byDate[d.Date], d.Rooms...)
		}
	}

	dates := window.Dates()
	sort.Strings(dates)

	days := make([]models.DayResult, 0, len(dates))
	for _, date := range dates {
		days = append(days, models.DayResult{Date: date, Rooms: Dedup(byDate[date])})
	}
	return days
}
