package models

// Event is a nearby event stored next to a user's hotel. JSON names follow
// the events table.
type Event struct {
	Name       string  `json:"nombre"`
	Date       string  `json:"fecha"`
	Time       string  `json:"hora,omitempty"`
	Venue      string  `json:"lugar"`
	URL        string  `json:"enlace"`
	Genre      string  `json:"genero,omitempty"`
	PriceRange string  `json:"rango_precio,omitempty"`
	HotelRef   string  `json:"hotel_referencia"`
	CreatedBy  string  `json:"created_by"`
	Source     string  `json:"fuente,omitempty"`
	Latitude   float64 `json:"-"`
	Longitude  float64 `json:"-"`
	HasGeo     bool    `json:"-"`
}

// Key identifies an event for de-duplication and upserts.
func (e Event) Key() string {
	return e.Name + "|" + e.Date
}
