package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cristian-franco-ml/Hotel-v2/config"
	"github.com/cristian-franco-ml/Hotel-v2/models"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type capturedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   []byte
}

type recorder struct {
	mu       sync.Mutex
	requests []capturedRequest
	respond  func(w http.ResponseWriter, r *http.Request, n int)
}

func (rec *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rec.mu.Lock()
	n := len(rec.requests)
	rec.requests = append(rec.requests, capturedRequest{
		Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Header: r.Header.Clone(), Body: body,
	})
	rec.mu.Unlock()
	if rec.respond != nil {
		rec.respond(w, r, n)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func newTestStore(t *testing.T, rec *recorder) *RESTStore {
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	return newRESTStore(srv.URL, "anon-key", "service-key", quiet)
}

func TestRoomPriceRecords(t *testing.T) {
	days := []models.DayResult{
		{Date: "2024-01-01", Rooms: []models.RoomQuote{
			{RoomType: "King Room", Price: "MXN 1,000"},
			{RoomType: "King Room", Price: "MXN 1,100"},
			{RoomType: "Suite", Price: "MXN 2,000"},
		}},
		{Date: "2024-01-02", Rooms: []models.RoomQuote{}},
		{Date: "2024-01-03", Rooms: []models.RoomQuote{{RoomType: "King Room", Price: "MXN 900"}}},
	}
	scraped := time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)

	records := RoomPriceRecords("user-1", "Hotel Ticuan", scraped, days)
	require.Len(t, records, 3)
	for _, r := range records {
		_, err := uuid.Parse(r.ID)
		require.NoError(t, err)
		require.Equal(t, "2023-12-31", r.ScrapeDate)
		require.Equal(t, "user-1", r.UserID)
		require.Equal(t, "Hotel Ticuan", r.HotelName)
	}
	require.Equal(t, "MXN 1,000", records[0].Price)
	require.Equal(t, "2024-01-03", records[2].CheckinDate)
}

func TestCallerToken(t *testing.T) {
	_, ok := CallerToken(context.Background())
	require.False(t, ok)

	ctx := WithCallerToken(context.Background(), "Bearer abc.def")
	token, ok := CallerToken(ctx)
	require.True(t, ok)
	require.Equal(t, "abc.def", token)

	_, ok = CallerToken(WithCallerToken(context.Background(), "  "))
	require.False(t, ok)
}

func TestSaveRoomPricesBatchesAndUsesConfiguredKey(t *testing.T) {
	rec := &recorder{}
	store := newTestStore(t, rec)

	records := make([]models.RoomPriceRecord, 250)
	for i := range records {
		records[i] = models.RoomPriceRecord{UserID: "u", HotelName: "h", CheckinDate: "2024-01-01", RoomType: fmt.Sprint(i), Price: "$1"}
	}

	saved, err := store.SaveRoomPrices(context.Background(), records)
	require.NoError(t, err)
	require.Equal(t, 250, saved)

	require.Len(t, rec.requests, 3)
	sizes := []int{}
	for _, r := range rec.requests {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rest/v1/hotel_usuario", r.Path)
		require.Equal(t, []string{"user_id,hotel_name,checkin_date,room_type"}, r.Query["on_conflict"])
		require.Equal(t, "resolution=merge-duplicates,return=minimal", r.Header.Get("Prefer"))
		require.Equal(t, "anon-key", r.Header.Get("apikey"))
		require.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		var batch []models.RoomPriceRecord
		require.NoError(t, json.Unmarshal(r.Body, &batch))
		sizes = append(sizes, len(batch))
	}
	require.Equal(t, []int{100, 100, 50}, sizes)
}

func TestSaveRoomPricesForwardsCallerToken(t *testing.T) {
	rec := &recorder{}
	store := newTestStore(t, rec)

	ctx := WithCallerToken(context.Background(), "user-jwt")
	_, err := store.SaveRoomPrices(ctx, []models.RoomPriceRecord{{UserID: "u"}})
	require.NoError(t, err)
	require.Equal(t, "Bearer user-jwt", rec.requests[0].Header.Get("Authorization"))
	require.Equal(t, "anon-key", rec.requests[0].Header.Get("apikey"))
}

func TestSaveRoomPricesIsBestEffort(t *testing.T) {
	rec := &recorder{respond: func(w http.ResponseWriter, r *http.Request, n int) {
		if n == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"bad row"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	}}
	store := newTestStore(t, rec)
	store.batchSize = 2

	records := make([]models.RoomPriceRecord, 5)
	saved, err := store.SaveRoomPrices(context.Background(), records)
	require.Equal(t, 3, saved)
	require.ErrorContains(t, err, "bad row")
	require.Len(t, rec.requests, 3)
}

func TestReplaceEventsDeletesThenUpserts(t *testing.T) {
	rec := &recorder{}
	store := newTestStore(t, rec)

	n, err := store.ReplaceEvents(context.Background(), "user-9", []models.Event{
		{Name: "Festival del Mar", Date: "2024-02-10", Venue: "Playas", CreatedBy: "user-9"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.Len(t, rec.requests, 2)
	require.Equal(t, http.MethodDelete, rec.requests[0].Method)
	require.Equal(t, []string{"eq.user-9"}, rec.requests[0].Query["created_by"])
	require.Equal(t, http.MethodPost, rec.requests[1].Method)
	require.Equal(t, []string{"nombre,fecha,created_by"}, rec.requests[1].Query["on_conflict"])

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.requests[1].Body, &rows))
	require.Equal(t, "Festival del Mar", rows[0]["nombre"])
	require.Equal(t, "2024-02-10", rows[0]["fecha"])
}

func TestListRoomPrices(t *testing.T) {
	rec := &recorder{respond: func(w http.ResponseWriter, r *http.Request, _ int) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"user_id":"u1","hotel_name":"Hotel Lucerna","checkin_date":"2024-01-01","room_type":"Suite","price":"MXN 2,000"}]`))
	}}
	store := newTestStore(t, rec)

	rows, err := store.ListRoomPrices(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, []models.RoomPriceRecord{{UserID: "u1", HotelName: "Hotel Lucerna", CheckinDate: "2024-01-01", RoomType: "Suite", Price: "MXN 2,000"}}, rows)
	require.Equal(t, []string{"eq.u1"}, rec.requests[0].Query["user_id"])
}

func TestHotelNameFor(t *testing.T) {
	rec := &recorder{respond: func(w http.ResponseWriter, r *http.Request, _ int) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","user_metadata":{"hotel_name":"Hotel Real del Río"}}`))
	}}
	store := newTestStore(t, rec)

	name, err := store.HotelNameFor(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "Hotel Real del Río", name)
	require.Equal(t, "/auth/v1/admin/users/u1", rec.requests[0].Path)
	require.Equal(t, "Bearer service-key", rec.requests[0].Header.Get("Authorization"))
	require.Equal(t, "service-key", rec.requests[0].Header.Get("apikey"))
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.StoreBackend = "mongo"
	_, err := Open(cfg, quiet)
	require.ErrorContains(t, err, "unknown store backend")

	cfg.StoreBackend = "rest"
	cfg.SupabaseURL = ""
	_, err = Open(cfg, quiet)
	require.Error(t, err)
}

func TestRESTStoreLogsThroughSlog(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := newRESTStore(srv.URL, "anon-key", "", logger)
	s.client.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)

	_, err := s.ListRoomPrices(context.Background(), "u")
	require.Error(t, err)
	require.Contains(t, buf.String(), "level=WARN")
	require.Contains(t, buf.String(), "component=store")
}
