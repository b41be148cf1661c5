package utils

import (
	"encoding/csv"
	"encoding/json"
	"os"

	"github.com/cristian-franco-ml/Hotel-v2/models"
)

// WriteJSON writes v as indented JSON to filename.
func WriteJSON(filename string, v any) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCSV writes one row per room quote and returns the number of rows.
// Dates without rooms get a single row with empty room and price so the
// file still shows every sampled date.
func WriteCSV(filename string, result models.ScrapeResult) (int, error) {
	f, err := os.Create(filename)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"hotel", "checkin_date", "room_type", "price"}); err != nil {
		return 0, err
	}

	total := 0
	for _, day := range result.Days {
		if len(day.Rooms) == 0 {
			if err := w.Write([]string{result.Property.Name, day.Date, "", ""}); err != nil {
				return total, err
			}
			continue
		}
		for _, q := range day.Rooms {
			if err := w.Write([]string{result.Property.Name, day.Date, q.RoomType, q.Price}); err != nil {
				return total, err
			}
			total++
		}
	}
	w.Flush()
	return total, w.Error()
}
