package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cristian-franco-ml/Hotel-v2/config"
	"github.com/cristian-franco-ml/Hotel-v2/models"
)

// ErrNoSource means neither the API nor a metro-area page could be used.
var ErrNoSource = errors.New("no event source available for request")

type discoverer interface {
	Discover(ctx context.Context, q DiscoveryQuery) ([]models.Event, error)
}

type metroScraper interface {
	Metro(ctx context.Context, q MetroQuery) ([]models.Event, error)
}

// Collector gathers nearby events from every configured source.
type Collector struct {
	api    discoverer
	metro  metroScraper
	cfg    config.Config
	logger *slog.Logger
	now    func() time.Time
}

func NewCollector(cfg config.Config, logger *slog.Logger) *Collector {
	c := &Collector{
		metro:  NewSongkick(firstOr(cfg.UserAgents, ""), logger),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	if cfg.TicketmasterKey != "" {
		c.api = NewTicketmaster(cfg.TicketmasterBaseURL, cfg.TicketmasterKey, logger)
	}
	return c
}

func firstOr(list []string, def string) string {
	if len(list) == 0 {
		return def
	}
	return list[0]
}

// Collect resolves the hotel position, queries each source, and returns the
// merged events tagged with the hotel and the owning user. A source failure
// is logged and only fatal when every source failed.
func (c *Collector) Collect(ctx context.Context, req models.EventsRequest) ([]models.Event, error) {
	radius := req.RadiusKm
	if radius == 0 {
		radius = c.cfg.EventRadiusKm
	}
	if err := ValidateRadius(radius); err != nil {
		return nil, err
	}
	days := req.Days
	if days <= 0 {
		days = c.cfg.EventDays
	}

	center, known := HotelCoordinates(req.HotelName)
	if !known {
		c.logger.Warn("hotel not in coordinate table, using city center", "hotel", req.HotelName)
	}
	from := c.now()

	var (
		merged  []models.Event
		errs    []error
		skipped []error
		sources int
	)
	if c.api != nil {
		sources++
		found, err := c.api.Discover(ctx, DiscoveryQuery{
			Center:      center,
			RadiusKm:    radius,
			From:        from,
			Days:        days,
			Size:        c.cfg.EventLimit,
			CountryCode: c.cfg.CountryCode,
		})
		if err != nil {
			c.logger.Warn("ticketmaster failed", "error", err)
			errs = append(errs, err)
		}
		merged = append(merged, found...)
	}
	if req.City != "" && c.metro != nil {
		url, ok := MetroAreaURL(req.City)
		if !ok {
			c.logger.Warn("no metro area for city, skipping songkick", "city", req.City)
			skipped = append(skipped, fmt.Errorf("unsupported city %q", req.City))
		} else {
			sources++
			found, err := c.metro.Metro(ctx, MetroQuery{URL: url, Center: center, RadiusKm: radius, From: from, Days: days})
			if err != nil {
				c.logger.Warn("songkick failed", "city", req.City, "error", err)
				errs = append(errs, err)
			}
			merged = append(merged, found...)
		}
	}
	if sources == 0 {
		return nil, errors.Join(append([]error{ErrNoSource}, skipped...)...)
	}
	if len(errs) >= sources && len(merged) == 0 {
		return nil, errors.Join(errs...)
	}

	out := Dedup(merged)
	for i := range out {
		out[i].HotelRef = req.HotelName
		out[i].CreatedBy = req.UserID
	}
	return out, nil
}

// Dedup drops repeated name/date pairs keeping the first, then sorts by date.
func Dedup(list []models.Event) []models.Event {
	seen := make(map[string]bool, len(list))
	out := make([]models.Event, 0, len(list))
	for _, e := range list {
		if seen[e.Key()] {
			continue
		}
		seen[e.Key()] = true
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
