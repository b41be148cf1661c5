package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/cristian-franco-ml/Hotel-v2/config"
	"github.com/cristian-franco-ml/Hotel-v2/models"
	"github.com/cristian-franco-ml/Hotel-v2/scraper"
	"github.com/cristian-franco-ml/Hotel-v2/storage"
)

const userID = "6f1c1f7e-3b7a-4e39-9a55-0d6f1d2b8c11"

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeScraper struct {
	mu     sync.Mutex
	cfg    config.Config
	query  models.SearchQuery
	window models.DateWindow
	result models.ScrapeResult
	err    error
}

func (f *fakeScraper) Scrape(_ context.Context, q models.SearchQuery, w models.DateWindow) (models.ScrapeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query, f.window = q, w
	return f.result, f.err
}

type fakeStore struct {
	mu      sync.Mutex
	records []models.RoomPriceRecord
	events  []models.Event
	tokens  []string
	ctxErrs []error
	saveErr error
}

func (s *fakeStore) SaveRoomPrices(ctx context.Context, records []models.RoomPriceRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, _ := storage.CallerToken(ctx)
	s.tokens = append(s.tokens, tok)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	s.records = append(s.records, records...)
	if s.saveErr != nil {
		return len(records) - 1, s.saveErr
	}
	return len(records), nil
}

func (s *fakeStore) ListRoomPrices(context.Context, string) ([]models.RoomPriceRecord, error) {
	return s.records, nil
}

func (s *fakeStore) ReplaceEvents(ctx context.Context, _ string, events []models.Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, _ := storage.CallerToken(ctx)
	s.tokens = append(s.tokens, tok)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	s.events = events
	return len(events), nil
}

func (s *fakeStore) ListEvents(context.Context, string) ([]models.Event, error) { return s.events, nil }
func (s *fakeStore) Close() error                                              { return nil }

type fakeCollector struct {
	list []models.Event
	err  error
	got  models.EventsRequest
}

func (f *fakeCollector) Collect(_ context.Context, req models.EventsRequest) ([]models.Event, error) {
	f.got = req
	return f.list, f.err
}

type fakeUsers map[string]string

func (u fakeUsers) HotelNameFor(_ context.Context, id string) (string, error) {
	if name, ok := u[id]; ok {
		return name, nil
	}
	return "", errors.New("no such user")
}

func newTestJobs(sc *fakeScraper, store *fakeStore, ev *fakeCollector, users storage.UserDirectory) *Jobs {
	cfg := config.Default()
	cfg.Workers = 2
	j := &Jobs{
		events: ev,
		store:  store,
		users:  users,
		cfg:    cfg,
		logger: quiet,
		now:    func() time.Time { return time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC) },
	}
	j.newScraper = func(c config.Config) HotelScraper {
		sc.cfg = c
		return sc
	}
	return j
}

func sampleResult() models.ScrapeResult {
	return models.ScrapeResult{
		Property: models.Property{Name: "Hotel Ticuan", URL: "https://example.test/hotel"},
		Days: []models.DayResult{
			{Date: "2024-05-10", Rooms: []models.RoomQuote{{RoomType: "Deluxe King Room", Price: "MXN 1,250"}}},
			{Date: "2024-05-11", Rooms: []models.RoomQuote{}},
			{Date: "2024-05-12", Rooms: []models.RoomQuote{
				{RoomType: "Deluxe King Room", Price: "MXN 1,300"},
				{RoomType: "Junior Suite", Price: "MXN 2,100"},
			}},
		},
	}
}

func TestHotelJob(t *testing.T) {
	sc := &fakeScraper{result: sampleResult()}
	store := &fakeStore{}
	j := newTestJobs(sc, store, nil, nil)

	_, report, err := j.Hotel(context.Background(), models.JobRequest{
		UserID: userID, PropertyName: " Hotel Ticuan ", HorizonDays: 3, Ranges: 2, Concurrency: 1, CallerToken: "Bearer jwt-1",
	})
	require.NoError(t, err)

	want := models.JobReport{Job: "hotel", OK: true, Days: 3, DaysWithRooms: 2, Rooms: 3, Saved: 3}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "Hotel Ticuan", sc.query.PropertyName)
	require.Equal(t, "2024-05-10", sc.window.Start.Format(models.DateLayout))
	require.Equal(t, 3, sc.window.HorizonDays)
	require.Equal(t, 2, sc.cfg.Ranges)
	require.Equal(t, 1, sc.cfg.Concurrency)

	require.Len(t, store.records, 3)
	require.Equal(t, "2024-05-10", store.records[0].ScrapeDate)
	require.Equal(t, []string{"jwt-1"}, store.tokens)
}

// stallingScraper holds the tab until the job context ends and then hands
// back what it had, the way ScrapeWindow does on a deadline.
type stallingScraper struct{ partial models.ScrapeResult }

func (s stallingScraper) Scrape(ctx context.Context, _ models.SearchQuery, _ models.DateWindow) (models.ScrapeResult, error) {
	<-ctx.Done()
	return s.partial, nil
}

func TestHotelJobSavesPartialResultAfterDeadline(t *testing.T) {
	store := &fakeStore{}
	j := newTestJobs(&fakeScraper{}, store, nil, nil)
	j.cfg.JobTimeout = 20 * time.Millisecond
	j.newScraper = func(config.Config) HotelScraper { return stallingScraper{partial: sampleResult()} }

	_, report, err := j.Hotel(context.Background(), models.JobRequest{UserID: userID, PropertyName: "Hotel Ticuan", CallerToken: "jwt-2"})
	require.NoError(t, err)
	require.True(t, report.OK)
	require.Equal(t, 3, report.Saved)
	require.Len(t, store.records, 3)
	require.Equal(t, []error{nil}, store.ctxErrs)
	require.Equal(t, []string{"jwt-2"}, store.tokens)
}

func TestJobsSaveAfterCallerLeft(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{}
	ev := &fakeCollector{list: []models.Event{{Name: "Expo", Date: "2024-05-20"}}}
	j := newTestJobs(&fakeScraper{result: sampleResult()}, store, ev, nil)

	_, report, err := j.Hotel(ctx, models.JobRequest{UserID: userID, PropertyName: "Hotel Ticuan"})
	require.NoError(t, err)
	require.Equal(t, 3, report.Saved)

	_, report, err = j.Events(ctx, models.EventsRequest{UserID: userID, HotelName: "Hotel Ticuan"})
	require.NoError(t, err)
	require.Equal(t, 1, report.Saved)
	require.Equal(t, []error{nil, nil}, store.ctxErrs)
}

func TestHotelJobValidation(t *testing.T) {
	j := newTestJobs(&fakeScraper{}, &fakeStore{}, nil, nil)
	cases := []models.JobRequest{
		{UserID: "not-a-uuid", PropertyName: "h"},
		{UserID: userID, PropertyName: "   "},
		{UserID: userID, PropertyName: "h", StartDate: "10/05/2024"},
		{UserID: userID, PropertyName: "h", HorizonDays: 400},
	}
	for _, req := range cases {
		_, report, err := j.Hotel(context.Background(), req)
		require.ErrorIs(t, err, ErrInvalidRequest)
		require.False(t, report.OK)
		require.NotEmpty(t, report.Error)
	}
}

func TestHotelJobPropagatesScrapeErrors(t *testing.T) {
	store := &fakeStore{}
	j := newTestJobs(&fakeScraper{err: scraper.ErrPropertyNotFound}, store, nil, nil)

	_, report, err := j.Hotel(context.Background(), models.JobRequest{UserID: userID, PropertyName: "Nowhere Inn"})
	require.ErrorIs(t, err, scraper.ErrPropertyNotFound)
	require.False(t, report.OK)
	require.Empty(t, store.records)
}

func TestHotelJobReportsPartialSave(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("batch 2 rejected")}
	j := newTestJobs(&fakeScraper{result: sampleResult()}, store, nil, nil)

	_, report, err := j.Hotel(context.Background(), models.JobRequest{UserID: userID, PropertyName: "Hotel Ticuan"})
	require.Error(t, err)
	require.False(t, report.OK)
	require.Equal(t, 2, report.Saved)
	require.Equal(t, 3, report.Rooms)
}

func TestEventsJob(t *testing.T) {
	store := &fakeStore{}
	ev := &fakeCollector{list: []models.Event{{Name: "Expo", Date: "2024-05-20"}}}
	j := newTestJobs(&fakeScraper{}, store, ev, nil)

	list, report, err := j.Events(context.Background(), models.EventsRequest{
		UserID: userID, HotelName: "Hotel Lucerna", City: "Tijuana", CallerToken: "tok",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, models.JobReport{Job: "events", OK: true, Events: 1, Saved: 1}, report)
	require.Equal(t, "Tijuana", ev.got.City)
	require.Equal(t, []string{"tok"}, store.tokens)
}

func TestAllResolvesHotelAndKeepsOrder(t *testing.T) {
	sc := &fakeScraper{result: sampleResult()}
	ev := &fakeCollector{}
	j := newTestJobs(sc, &fakeStore{}, ev, fakeUsers{userID: "Hotel Real del Río"})

	reports, err := j.All(context.Background(), AllRequest{UserID: userID, City: "Tijuana"})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	require.Equal(t, "hotel", reports[0].Job)
	require.Equal(t, "events", reports[1].Job)
	require.Equal(t, "Hotel Real del Río", sc.query.PropertyName)
	require.Equal(t, "Hotel Real del Río", ev.got.HotelName)

	_, err = newTestJobs(sc, &fakeStore{}, ev, nil).All(context.Background(), AllRequest{UserID: userID})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRunAllOrderAndBound(t *testing.T) {
	var running, peak atomic.Int32
	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = Task{Name: string(rune('a' + i)), Run: func(context.Context) models.JobReport {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Duration(6-i) * 5 * time.Millisecond)
			running.Add(-1)
			return models.JobReport{Job: string(rune('a' + i)), OK: true}
		}}
	}

	reports := RunAll(context.Background(), tasks, 2, quiet)
	got := make([]string, len(reports))
	for i, r := range reports {
		got[i] = r.Job
	}
	require.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, got)
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunAllRecoversPanics(t *testing.T) {
	reports := RunAll(context.Background(), []Task{
		{Name: "boom", Run: func(context.Context) models.JobReport { panic("kaput") }},
		{Name: "fine", Run: func(context.Context) models.JobReport { return models.JobReport{Job: "fine", OK: true} }},
	}, 1, quiet)
	require.Equal(t, "boom", reports[0].Job)
	require.Contains(t, reports[0].Error, "kaput")
	require.True(t, reports[1].OK)
}

func TestRunAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reports := RunAll(ctx, []Task{
		{Name: "x", Run: func(context.Context) models.JobReport { return models.JobReport{Job: "x", OK: true} }},
		{Name: "y", Run: func(context.Context) models.JobReport { return models.JobReport{Job: "y", OK: true} }},
	}, 1, quiet)
	require.Len(t, reports, 2)
	for _, r := range reports {
		require.NotEmpty(t, r.Job)
	}
}

func TestScheduler(t *testing.T) {
	_, err := NewScheduler("Mars/Olympus", quiet)
	require.Error(t, err)

	s, err := NewScheduler("America/Tijuana", quiet)
	require.NoError(t, err)
	require.Error(t, s.Add(context.Background(), "not a cron line", func(context.Context) {}))
	require.NoError(t, s.Add(context.Background(), "0 6 * * *", func(context.Context) {}))

	s.Start()
	next, ok := s.Next()
	require.True(t, ok)
	require.Equal(t, 6, next.Hour())
	require.Equal(t, "America/Tijuana", next.Location().String())
	s.Stop(context.Background())
}
