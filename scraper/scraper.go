package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cristian-franco-ml/Hotel-v2/config"
	"github.com/cristian-franco-ml/Hotel-v2/models"
	"github.com/cristian-franco-ml/Hotel-v2/utils"
)

// Scraper extracts date-indexed room prices for one property at a time.
// It holds no per-run state and may be shared by concurrent callers.
type Scraper struct {
	browser Browser
	cfg     config.Config
	logger  *slog.Logger
	now     func() time.Time
}

func New(browser Browser, cfg config.Config, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		browser: browser,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Scrape resolves the property, then samples every date of window. Apart
// from ErrPropertyNotFound and ErrNoPricingData, failures only empty out the
// affected days.
func (s *Scraper) Scrape(ctx context.Context, q models.SearchQuery, window models.DateWindow) (models.ScrapeResult, error) {
	result := models.ScrapeResult{Query: q}

	prop, err := s.ResolveProperty(ctx, q)
	if err != nil {
		return result, err
	}
	result.Property = prop
	result.Days = s.ScrapeWindow(ctx, prop.URL, window)
	return result, nil
}

// ScrapeWindow fans the window out over at most cfg.Concurrency tabs, one per
// sub-range, and merges their days.
func (s *Scraper) ScrapeWindow(ctx context.Context, propertyURL string, window models.DateWindow) []models.DayResult {
	ranges := Partition(window.HorizonDays, s.cfg.Ranges)
	results := make([]models.RangeResult, len(ranges))

	var g errgroup.Group
	g.SetLimit(max(1, s.cfg.Concurrency))

	start := time.Now()
	for i, r := range ranges {
		g.Go(func() error {
			results[i] = s.runRange(ctx, i, r, propertyURL, window)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Info("window scraped",
		"dates", window.HorizonDays, "ranges", len(ranges), "failed_ranges", failed,
		"elapsed", time.Since(start).Round(time.Second))

	return Normalize(window, results)
}

// runRange owns one tab for the whole sub-range and walks its dates in order.
func (s *Scraper) runRange(ctx context.Context, index int, r models.SubRange, propertyURL string, window models.DateWindow) (res models.RangeResult) {
	from := window.Date(r.StartOffset).Format(models.DateLayout)
	to := window.Date(r.EndOffset - 1).Format(models.DateLayout)
	logger := s.logger.With("range", index, "from", from, "to", to)
	res = models.RangeResult{Index: index, Range: r}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("range worker panicked", "panic", p, "stack", string(debug.Stack()))
			res.Err = &RangeError{Range: r, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	page, err := s.browser.NewPage(ctx, s.pickUserAgent())
	if err != nil {
		logger.Error("open tab", "err", err)
		res.Err = &RangeError{Range: r, Err: err}
		return res
	}
	defer page.Close()

	suppressor := StartSuppressor(ctx, page, PopupSelectors, s.cfg.PopupInterval, logger)
	defer suppressor.Stop()

	logger.Info("starting")
	for offset := r.StartOffset; offset < r.EndOffset; offset++ {
		if err := ctx.Err(); err != nil {
			res.Err = &RangeError{Range: r, Err: err}
			logger.Warn("range stopped early", "err", err, "done", len(res.Days))
			return res
		}

		day, err := s.ExtractDay(ctx, page, propertyURL, window.Date(offset))
		if err != nil {
			logger.Warn("no rooms for date", "err", err)
		} else {
			logger.Debug("date extracted", "date", day.Date, "rooms", len(day.Rooms))
		}
		res.Days = append(res.Days, day)
	}

	logger.Info("range done", "dates", len(res.Days))
	return res
}

func (s *Scraper) pickUserAgent() string {
	return utils.PickUserAgent(s.cfg.UserAgents)
}
