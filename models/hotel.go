package models

import "time"

// DateLayout is the layout used for every check-in date that leaves the scraper.
const DateLayout = "2006-01-02"

// SearchQuery is the immutable input to one navigation run.
type SearchQuery struct {
	PropertyName string `json:"property_name"`
	Locale       string `json:"locale"`
	Currency     string `json:"currency"`
}

// DateWindow is the set of check-in dates sampled for a property.
type DateWindow struct {
	Start       time.Time `json:"start_date"`
	HorizonDays int       `json:"horizon_days"`
}

// Date returns the check-in date at the given offset from Start.
func (w DateWindow) Date(offset int) time.Time {
	return w.Start.AddDate(0, 0, offset)
}

// Dates lists every date of the window in increasing order.
func (w DateWindow) Dates() []string {
	out := make([]string, 0, max(w.HorizonDays, 0))
	for i := 0; i < w.HorizonDays; i++ {
		out = append(out, w.Date(i).Format(DateLayout))
	}
	return out
}

// SubRange is a half-open slice [StartOffset, EndOffset) of a DateWindow.
type SubRange struct {
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`
}

func (r SubRange) Len() int {
	return r.EndOffset - r.StartOffset
}

// RoomQuote keeps the price exactly as it was displayed.
type RoomQuote struct {
	RoomType string `json:"room_type"`
	Price    string `json:"price"`
}

// DayResult holds the rooms extracted for one check-in date. An empty Rooms
// slice means the date was attempted and nothing was extracted.
type DayResult struct {
	Date  string      `json:"date"`
	Rooms []RoomQuote `json:"rooms"`
}

// Property describes the resolved detail page.
type Property struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Address string `json:"address,omitempty"`
	Stars   int    `json:"stars,omitempty"`
}

// ScrapeResult is the date-indexed output of one scrape.
type ScrapeResult struct {
	Query    SearchQuery `json:"query"`
	Property Property    `json:"property"`
	Days     []DayResult `json:"days"`
}

// RoomCount returns the number of quotes across all days.
func (r ScrapeResult) RoomCount() int {
	n := 0
	for _, d := range r.Days {
		n += len(d.Rooms)
	}
	return n
}

// RangeResult is sent back from each range worker.
type RangeResult struct {
	Index int // position in the partition, keeps merge order stable
	Range SubRange
	Days  []DayResult
	Err   error
}
