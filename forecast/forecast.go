// Package forecast fills the gaps in a hotel's price calendar with a Holt
// linear-trend projection over the daily average price.
package forecast

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/cristian-franco-ml/Hotel-v2/models"
	"github.com/cristian-franco-ml/Hotel-v2/utils"
)

const (
	Alpha = 0.5
	Beta  = 0.3

	KindReal      = "real"
	KindPredicted = "predicted"
)

// ErrNotEnoughData is returned when fewer than two priced days exist.
var ErrNotEnoughData = errors.New("forecast needs at least two priced days")

// Point is one calendar day of the series.
type Point struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
	Kind  string  `json:"kind"`
}

// Series is the combined real and predicted calendar for one hotel.
type Series struct {
	Hotel   string  `json:"hotel"`
	Average float64 `json:"average"`
	Nights  int     `json:"nights"`
	Points  []Point `json:"points"`
}

// Observation is the mean parsed price for one check-in date.
type Observation struct {
	Date  time.Time
	Price float64
}

// DailyAverages groups records by check-in date and averages every price
// that parses. Dates without a parseable price are omitted.
func DailyAverages(records []models.RoomPriceRecord) []Observation {
	type acc struct {
		sum float64
		n   int
	}
	byDate := map[string]*acc{}
	for _, r := range records {
		v, ok := utils.ParsePrice(r.Price)
		if !ok {
			continue
		}
		a := byDate[r.CheckinDate]
		if a == nil {
			a = &acc{}
			byDate[r.CheckinDate] = a
		}
		a.sum += v
		a.n++
	}

	out := make([]Observation, 0, len(byDate))
	for date, a := range byDate {
		d, err := time.Parse(models.DateLayout, date)
		if err != nil {
			continue
		}
		out = append(out, Observation{Date: d, Price: a.sum / float64(a.n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Holt runs double exponential smoothing over an evenly spaced series and
// returns the final level and trend.
func Holt(values []float64, alpha, beta float64) (level, trend float64) {
	if len(values) == 0 {
		return 0, 0
	}
	level = values[0]
	if len(values) > 1 {
		trend = values[1] - values[0]
	}
	for _, y := range values[1:] {
		prev := level
		level = alpha*y + (1-alpha)*(level+trend)
		trend = beta*(level-prev) + (1-beta)*trend
	}
	return level, trend
}

// EndOfNextMonth is the last calendar day of the month after today's.
func EndOfNextMonth(today time.Time) time.Time {
	y, m, _ := today.Date()
	return time.Date(y, m+2, 0, 0, 0, 0, 0, time.UTC)
}

// Build combines the observed daily averages with predictions for every day
// from today through the end of next month that has no observation. Gaps
// inside the observed span are filled by linear interpolation; days after
// the last observation follow the Holt trend.
func Build(hotel string, records []models.RoomPriceRecord, today time.Time) (Series, error) {
	obs := DailyAverages(records)
	if len(obs) < 2 {
		return Series{Hotel: hotel}, ErrNotEnoughData
	}

	first, last := obs[0].Date, obs[len(obs)-1].Date
	span := int(last.Sub(first).Hours()/24) + 1
	daily := make([]float64, span)
	observed := make(map[string]float64, len(obs))
	sum := 0.0
	for i, o := range obs {
		observed[o.Date.Format(models.DateLayout)] = o.Price
		sum += o.Price
		if i == 0 {
			continue
		}
		prev := obs[i-1]
		from := int(prev.Date.Sub(first).Hours() / 24)
		to := int(o.Date.Sub(first).Hours() / 24)
		for d := from; d <= to; d++ {
			frac := float64(d-from) / float64(to-from)
			daily[d] = prev.Price + frac*(o.Price-prev.Price)
		}
	}
	level, trend := Holt(daily, Alpha, Beta)

	day := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	start := day(today)
	end := EndOfNextMonth(start)

	points := make([]Point, 0, len(obs)+int(end.Sub(start).Hours()/24)+1)
	for _, o := range obs {
		points = append(points, Point{Date: o.Date.Format(models.DateLayout), Price: round2(o.Price), Kind: KindReal})
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(models.DateLayout)
		if _, ok := observed[key]; ok {
			continue
		}
		var v float64
		if d.After(last) {
			h := d.Sub(last).Hours() / 24
			v = level + h*trend
		} else if !d.Before(first) {
			v = daily[int(d.Sub(first).Hours()/24)]
		} else {
			v = obs[0].Price
		}
		points = append(points, Point{Date: key, Price: round2(math.Max(0, v)), Kind: KindPredicted})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })

	return Series{
		Hotel:   hotel,
		Average: round2(sum / float64(len(obs))),
		Nights:  len(obs),
		Points:  points,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
