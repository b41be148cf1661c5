package models

// RoomPriceRecord is one persisted (user, hotel, date, room type) price row.
type RoomPriceRecord struct {
	ID          string `json:"id,omitempty"`
	UserID      string `json:"user_id"`
	HotelName   string `json:"hotel_name"`
	ScrapeDate  string `json:"scrape_date"`
	CheckinDate string `json:"checkin_date"`
	RoomType    string `json:"room_type"`
	Price       string `json:"price"`
}

// JobRequest is what the front door and the scheduler hand to the hotel job.
type JobRequest struct {
	UserID       string `json:"user_id"`
	PropertyName string `json:"hotel_name"`
	StartDate    string `json:"start_date,omitempty"`
	HorizonDays  int    `json:"horizon_days,omitempty"`
	Ranges       int    `json:"ranges,omitempty"`
	Concurrency  int    `json:"concurrency,omitempty"`
	Headless     *bool  `json:"headless,omitempty"`
	CallerToken  string `json:"jwt,omitempty"`
}

// EventsRequest drives one nearby-events refresh.
type EventsRequest struct {
	UserID      string  `json:"user_id"`
	HotelName   string  `json:"hotel_name"`
	City        string  `json:"city,omitempty"`
	RadiusKm    float64 `json:"radius_km,omitempty"`
	Days        int     `json:"days,omitempty"`
	CallerToken string  `json:"-"`
}

// JobReport summarises one finished job.
type JobReport struct {
	Job           string `json:"job"`
	OK            bool   `json:"ok"`
	Days          int    `json:"days,omitempty"`
	DaysWithRooms int    `json:"days_with_rooms,omitempty"`
	Rooms         int    `json:"rooms,omitempty"`
	Events        int    `json:"events,omitempty"`
	Saved         int    `json:"saved"`
	Error         string `json:"error,omitempty"`
}
