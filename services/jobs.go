package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cristian-franco-ml/Hotel-v2/config"
	"github.com/cristian-franco-ml/Hotel-v2/models"
	"github.com/cristian-franco-ml/Hotel-v2/scraper"
	"github.com/cristian-franco-ml/Hotel-v2/storage"
)

// ErrInvalidRequest marks caller mistakes (bad user id, missing hotel name,
// malformed dates). The HTTP layer answers these with 400.
var ErrInvalidRequest = errors.New("invalid request")

// HotelScraper is the part of scraper.Scraper the jobs depend on.
type HotelScraper interface {
	Scrape(ctx context.Context, q models.SearchQuery, window models.DateWindow) (models.ScrapeResult, error)
}

// EventCollector is the part of events.Collector the jobs depend on.
type EventCollector interface {
	Collect(ctx context.Context, req models.EventsRequest) ([]models.Event, error)
}

// Jobs runs the hotel and events pipelines and persists their output.
type Jobs struct {
	newScraper func(cfg config.Config) HotelScraper
	events     EventCollector
	store      storage.Store
	users      storage.UserDirectory
	cfg        config.Config
	logger     *slog.Logger
	now        func() time.Time
}

// NewJobs wires the jobs onto a shared browser. users may be nil, in which
// case run-all requests must name the hotel themselves.
func NewJobs(browser scraper.Browser, events EventCollector, store storage.Store, users storage.UserDirectory, cfg config.Config, logger *slog.Logger) *Jobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Jobs{
		newScraper: func(c config.Config) HotelScraper { return scraper.New(browser, c, logger) },
		events:     events,
		store:      store,
		users:      users,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func validateUser(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return invalid("user_id %q is not a UUID", id)
	}
	return nil
}

// window turns the request's optional start and horizon into a DateWindow
// starting today (UTC) by default.
func (j *Jobs) window(req models.JobRequest) (models.DateWindow, error) {
	start := j.now().UTC().Truncate(24 * time.Hour)
	if req.StartDate != "" {
		d, err := time.Parse(models.DateLayout, req.StartDate)
		if err != nil {
			return models.DateWindow{}, invalid("start_date %q: want YYYY-MM-DD", req.StartDate)
		}
		start = d
	}
	horizon := j.cfg.HorizonDays
	if req.HorizonDays != 0 {
		horizon = req.HorizonDays
	}
	if horizon < 1 || horizon > 366 {
		return models.DateWindow{}, invalid("horizon_days %d outside [1, 366]", horizon)
	}
	return models.DateWindow{Start: start, HorizonDays: horizon}, nil
}

// saveContext keeps ctx's values but not its deadline or cancellation, so
// collected rows still reach the store after the job timed out or the caller
// went away.
func (j *Jobs) saveContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if j.cfg.SaveTimeout <= 0 {
		return context.WithCancel(context.WithoutCancel(ctx))
	}
	return context.WithTimeout(context.WithoutCancel(ctx), j.cfg.SaveTimeout)
}

// Hotel scrapes the user's property and saves one row per date and room type.
// The report is filled in even when an error is returned.
func (j *Jobs) Hotel(ctx context.Context, req models.JobRequest) (models.ScrapeResult, models.JobReport, error) {
	report := models.JobReport{Job: "hotel"}
	fail := func(err error) (models.ScrapeResult, models.JobReport, error) {
		report.Error = err.Error()
		return models.ScrapeResult{}, report, err
	}

	if err := validateUser(req.UserID); err != nil {
		return fail(err)
	}
	req.PropertyName = strings.TrimSpace(req.PropertyName)
	if req.PropertyName == "" {
		return fail(invalid("hotel_name is required"))
	}
	window, err := j.window(req)
	if err != nil {
		return fail(err)
	}

	cfg := j.cfg
	if req.Ranges > 0 {
		cfg.Ranges = req.Ranges
	}
	if req.Concurrency > 0 {
		cfg.Concurrency = req.Concurrency
	}

	logger := j.logger.With("user_id", req.UserID, "hotel", req.PropertyName)
	if req.Headless != nil && *req.Headless != cfg.Headless {
		logger.Warn("headless override ignored; the shared browser is already running", "requested", *req.Headless)
	}
	ctx = storage.WithCallerToken(ctx, req.CallerToken)
	scrapeCtx := ctx
	if cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		scrapeCtx, cancel = context.WithTimeout(ctx, cfg.JobTimeout)
		defer cancel()
	}

	started := j.now()
	logger.Info("hotel job started", "start", window.Start.Format(models.DateLayout), "days", window.HorizonDays)

	q := models.SearchQuery{PropertyName: req.PropertyName, Locale: cfg.Locale, Currency: cfg.Currency}
	result, err := j.newScraper(cfg).Scrape(scrapeCtx, q, window)
	if err != nil {
		logger.Error("hotel job failed", "error", err)
		report.Error = err.Error()
		return result, report, err
	}

	report.Days = len(result.Days)
	report.Rooms = result.RoomCount()
	for _, d := range result.Days {
		if len(d.Rooms) > 0 {
			report.DaysWithRooms++
		}
	}

	if scrapeCtx.Err() != nil {
		logger.Warn("scrape cut short, saving partial window", "days", report.Days, "error", scrapeCtx.Err())
	}

	saveCtx, cancelSave := j.saveContext(ctx)
	defer cancelSave()
	records := storage.RoomPriceRecords(req.UserID, req.PropertyName, started, result.Days)
	saved, err := j.store.SaveRoomPrices(saveCtx, records)
	report.Saved = saved
	if err != nil {
		logger.Warn("some room prices were not saved", "saved", saved, "total", len(records), "error", err)
		report.Error = err.Error()
	}
	report.OK = err == nil
	logger.Info("hotel job finished",
		"days", report.Days, "days_with_rooms", report.DaysWithRooms,
		"rooms", report.Rooms, "saved", saved, "elapsed", j.now().Sub(started).Round(time.Second))
	return result, report, err
}

// Events refreshes the user's nearby events, replacing what was stored.
func (j *Jobs) Events(ctx context.Context, req models.EventsRequest) ([]models.Event, models.JobReport, error) {
	report := models.JobReport{Job: "events"}
	fail := func(err error) ([]models.Event, models.JobReport, error) {
		report.Error = err.Error()
		return nil, report, err
	}

	if err := validateUser(req.UserID); err != nil {
		return fail(err)
	}
	req.HotelName = strings.TrimSpace(req.HotelName)
	if req.HotelName == "" {
		return fail(invalid("hotel_name is required"))
	}
	if j.events == nil {
		return fail(errors.New("events collector not configured"))
	}

	logger := j.logger.With("user_id", req.UserID, "hotel", req.HotelName)
	ctx = storage.WithCallerToken(ctx, req.CallerToken)

	list, err := j.events.Collect(ctx, req)
	if err != nil {
		logger.Error("events job failed", "error", err)
		return fail(err)
	}
	report.Events = len(list)

	saveCtx, cancelSave := j.saveContext(ctx)
	defer cancelSave()
	saved, err := j.store.ReplaceEvents(saveCtx, req.UserID, list)
	report.Saved = saved
	if err != nil {
		logger.Warn("events not fully saved", "saved", saved, "error", err)
		report.Error = err.Error()
	}
	report.OK = err == nil
	logger.Info("events job finished", "events", len(list), "saved", saved)
	return list, report, err
}

// AllRequest asks for both jobs for one user.
type AllRequest struct {
	UserID      string  `json:"user_id"`
	HotelName   string  `json:"hotel_name,omitempty"`
	City        string  `json:"city,omitempty"`
	RadiusKm    float64 `json:"radius_km,omitempty"`
	CallerToken string  `json:"jwt,omitempty"`
}

// All runs the hotel and events jobs side by side. A missing hotel name is
// looked up in the user directory first.
func (j *Jobs) All(ctx context.Context, req AllRequest) ([]models.JobReport, error) {
	if err := validateUser(req.UserID); err != nil {
		return nil, err
	}
	hotel := strings.TrimSpace(req.HotelName)
	if hotel == "" {
		if j.users == nil {
			return nil, invalid("hotel_name is required")
		}
		name, err := j.users.HotelNameFor(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("resolve hotel for %s: %w", req.UserID, err)
		}
		hotel = name
	}

	tasks := []Task{
		{Name: "hotel", Run: func(ctx context.Context) models.JobReport {
			_, r, _ := j.Hotel(ctx, models.JobRequest{UserID: req.UserID, PropertyName: hotel, CallerToken: req.CallerToken})
			return r
		}},
		{Name: "events", Run: func(ctx context.Context) models.JobReport {
			_, r, _ := j.Events(ctx, models.EventsRequest{
				UserID: req.UserID, HotelName: hotel, City: req.City, RadiusKm: req.RadiusKm, CallerToken: req.CallerToken,
			})
			return r
		}},
	}
	return RunAll(ctx, tasks, j.cfg.Workers, j.logger), nil
}

// Scheduled runs the hotel job for every configured target.
func (j *Jobs) Scheduled(ctx context.Context) []models.JobReport {
	tasks := make([]Task, 0, len(j.cfg.Targets))
	for _, t := range j.cfg.Targets {
		tasks = append(tasks, Task{
			Name: t.HotelName,
			Run: func(ctx context.Context) models.JobReport {
				_, r, _ := j.Hotel(ctx, models.JobRequest{UserID: t.UserID, PropertyName: t.HotelName})
				return r
			},
		})
	}
	return RunAll(ctx, tasks, j.cfg.Workers, j.logger)
}
