package utils

import (
	"sort"

	"github.com/cristian-franco-ml/Hotel-v2/models"
)

type RoomTypeCount struct {
	RoomType string
	Count    int
}

// PricedQuote is a quote with its check-in date and parsed amount.
type PricedQuote struct {
	Date   string
	Quote  models.RoomQuote
	Amount float64
}

type SummaryStats struct {
	Days          int
	DaysWithRooms int
	TotalQuotes   int
	Unparsed      int
	AveragePrice  float64
	MinimumPrice  float64
	MaximumPrice  float64
	Cheapest      PricedQuote
	MostExpensive PricedQuote
	QuotesPerRoom []RoomTypeCount
	DailyAverage  map[string]float64
}

func BuildSummaryStats(result models.ScrapeResult) SummaryStats {
	stats := SummaryStats{Days: len(result.Days), DailyAverage: make(map[string]float64)}
	roomCounts := make(map[string]int)
	var priced []PricedQuote

	for _, day := range result.Days {
		if len(day.Rooms) > 0 {
			stats.DaysWithRooms++
		}
		var dayTotal float64
		dayCount := 0
		for _, q := range day.Rooms {
			stats.TotalQuotes++
			roomCounts[q.RoomType]++
			amount, ok := ParsePrice(q.Price)
			if !ok {
				stats.Unparsed++
				continue
			}
			priced = append(priced, PricedQuote{Date: day.Date, Quote: q, Amount: amount})
			dayTotal += amount
			dayCount++
		}
		if dayCount > 0 {
			stats.DailyAverage[day.Date] = dayTotal / float64(dayCount)
		}
	}

	if len(priced) > 0 {
		cheapest, priciest := priced[0], priced[0]
		var total float64
		for _, p := range priced {
			total += p.Amount
			if p.Amount < cheapest.Amount {
				cheapest = p
			}
			if p.Amount > priciest.Amount {
				priciest = p
			}
		}
		stats.AveragePrice = total / float64(len(priced))
		stats.MinimumPrice = cheapest.Amount
		stats.MaximumPrice = priciest.Amount
		stats.Cheapest = cheapest
		stats.MostExpensive = priciest
	}

	perRoom := make([]RoomTypeCount, 0, len(roomCounts))
	for room, count := range roomCounts {
		perRoom = append(perRoom, RoomTypeCount{RoomType: room, Count: count})
	}
	sort.Slice(perRoom, func(i, j int) bool {
		if perRoom[i].Count == perRoom[j].Count {
			return perRoom[i].RoomType < perRoom[j].RoomType
		}
		return perRoom[i].Count > perRoom[j].Count
	})
	stats.QuotesPerRoom = perRoom

	return stats
}
