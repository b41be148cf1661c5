package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/cristian-franco-ml/Hotel-v2/models"
)

// MetroQuery selects events from a metro-area listing near Center.
type MetroQuery struct {
	URL      string
	Center   Point
	RadiusKm float64
	From     time.Time
	Days     int
}

// Songkick scrapes metro-area listing pages.
type Songkick struct {
	userAgent string
	logger    *slog.Logger
}

func NewSongkick(userAgent string, logger *slog.Logger) *Songkick {
	if logger == nil {
		logger = slog.Default()
	}
	return &Songkick{userAgent: userAgent, logger: logger}
}

type ldEvent struct {
	Location struct {
		Geo struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"geo"`
	} `json:"location"`
}

// parseGeo reads the first geo pair from a JSON-LD blob holding either an
// object or an array of objects.
func parseGeo(raw string) (Point, bool) {
	raw = strings.TrimSpace(raw)
	var list []ldEvent
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		var one ldEvent
		if err := json.Unmarshal([]byte(raw), &one); err != nil {
			return Point{}, false
		}
		list = []ldEvent{one}
	}
	for _, e := range list {
		g := e.Location.Geo
		if g.Latitude != 0 || g.Longitude != 0 {
			return Point{Lat: g.Latitude, Lon: g.Longitude}, true
		}
	}
	return Point{}, false
}

// Metro returns listed events inside the date window. Events outside the
// radius are dropped; events without coordinates are kept.
func (s *Songkick) Metro(ctx context.Context, q MetroQuery) ([]models.Event, error) {
	c := colly.NewCollector()
	if s.userAgent != "" {
		c.UserAgent = s.userAgent
	}
	c.SetRequestTimeout(30 * time.Second)

	start := q.From.Format(models.DateLayout)
	end := q.From.AddDate(0, 0, q.Days).Format(models.DateLayout)

	var (
		found   []models.Event
		dropped int
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		s.logger.Debug("visiting metro area", "url", r.URL.String())
	})

	c.OnHTML("li.event-listings-element", func(e *colly.HTMLElement) {
		date := e.ChildAttr("time", "datetime")
		if len(date) >= 10 {
			date = date[:10]
		}
		if date == "" || date < start || date > end {
			return
		}

		ev := models.Event{
			Name:   strings.Join(strings.Fields(e.ChildText("strong")), " "),
			Date:   date,
			Venue:  strings.Join(strings.Fields(e.ChildText("a.venue-link")), " "),
			URL:    e.Request.AbsoluteURL(e.ChildAttr("a.event-link", "href")),
			Source: "songkick",
		}
		if ev.Name == "" {
			return
		}
		if p, ok := parseGeo(e.ChildText("div.microformat script")); ok {
			ev.Latitude, ev.Longitude, ev.HasGeo = p.Lat, p.Lon, true
			if DistanceKm(q.Center, p) > q.RadiusKm {
				dropped++
				return
			}
		}
		found = append(found, ev)
	})

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("songkick %s: status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	if err := c.Visit(q.URL); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if visitErr != nil {
			return nil, visitErr
		}
		return nil, fmt.Errorf("songkick visit: %w", err)
	}
	c.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if visitErr != nil {
		return nil, visitErr
	}

	s.logger.Info("metro area scraped", "url", q.URL, "events", len(found), "outside_radius", dropped)
	return found, nil
}
