package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/cristian-franco-ml/Hotel-v2/models"
	"github.com/cristian-franco-ml/Hotel-v2/utils"
)

// DiscoveryQuery narrows a Ticketmaster Discovery search.
type DiscoveryQuery struct {
	Center      Point
	RadiusKm    float64
	From        time.Time
	Days        int
	Size        int
	CountryCode string
}

// Ticketmaster is a rate-limited Discovery API v2 client.
type Ticketmaster struct {
	client  *resty.Client
	apiKey  string
	limiter *rate.Limiter
}

func NewTicketmaster(baseURL, apiKey string, logger *slog.Logger) *Ticketmaster {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetLogger(utils.PrintfLogger{Logger: logger.With("component", "ticketmaster")}).
		SetBaseURL(baseURL).
		SetTimeout(20 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})
	return &Ticketmaster{
		client:  client,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

type discoveryResponse struct {
	Embedded struct {
		Events []struct {
			Name  string `json:"name"`
			URL   string `json:"url"`
			Dates struct {
				Start struct {
					LocalDate string `json:"localDate"`
					LocalTime string `json:"localTime"`
				} `json:"start"`
			} `json:"dates"`
			Classifications []struct {
				Genre struct {
					Name string `json:"name"`
				} `json:"genre"`
			} `json:"classifications"`
			PriceRanges []struct {
				Min      float64 `json:"min"`
				Max      float64 `json:"max"`
				Currency string  `json:"currency"`
			} `json:"priceRanges"`
			Embedded struct {
				Venues []struct {
					Name     string `json:"name"`
					Location struct {
						Latitude  string `json:"latitude"`
						Longitude string `json:"longitude"`
					} `json:"location"`
				} `json:"venues"`
			} `json:"_embedded"`
		} `json:"events"`
	} `json:"_embedded"`
}

// Discover lists events around q.Center sorted by date.
func (t *Ticketmaster) Discover(ctx context.Context, q DiscoveryQuery) ([]models.Event, error) {
	if t.apiKey == "" {
		return nil, errors.New("ticketmaster api key not configured")
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	const layout = "2006-01-02T15:04:05Z"
	from := q.From.UTC()
	params := map[string]string{
		"apikey":        t.apiKey,
		"latlong":       fmt.Sprintf("%.4f,%.4f", q.Center.Lat, q.Center.Lon),
		"radius":        strconv.Itoa(max(1, int(q.RadiusKm+0.5))),
		"unit":          "km",
		"startDateTime": from.Format(layout),
		"endDateTime":   from.AddDate(0, 0, q.Days).Format(layout),
		"sort":          "date,asc",
		"size":          strconv.Itoa(max(1, q.Size)),
	}
	// The API rejects an empty countryCode.
	if q.CountryCode != "" {
		params["countryCode"] = q.CountryCode
	}

	var body discoveryResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&body).
		Get("/discovery/v2/events.json")
	if err != nil {
		return nil, fmt.Errorf("ticketmaster request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ticketmaster: %s", resp.Status())
	}

	out := make([]models.Event, 0, len(body.Embedded.Events))
	for _, e := range body.Embedded.Events {
		ev := models.Event{
			Name:   e.Name,
			URL:    e.URL,
			Date:   e.Dates.Start.LocalDate,
			Time:   e.Dates.Start.LocalTime,
			Source: "ticketmaster",
		}
		if len(e.Embedded.Venues) > 0 {
			v := e.Embedded.Venues[0]
			ev.Venue = v.Name
			lat, errLat := strconv.ParseFloat(v.Location.Latitude, 64)
			lon, errLon := strconv.ParseFloat(v.Location.Longitude, 64)
			if errLat == nil && errLon == nil {
				ev.Latitude, ev.Longitude, ev.HasGeo = lat, lon, true
			}
		}
		if len(e.Classifications) > 0 {
			ev.Genre = e.Classifications[0].Genre.Name
		}
		if len(e.PriceRanges) > 0 {
			p := e.PriceRanges[0]
			ev.PriceRange = fmt.Sprintf("%.2f - %.2f %s", p.Min, p.Max, p.Currency)
		}
		out = append(out, ev)
	}
	return out, nil
}
