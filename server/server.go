// Package server exposes the jobs and stored data over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cristian-franco-ml/Hotel-v2/forecast"
	"github.com/cristian-franco-ml/Hotel-v2/models"
	"github.com/cristian-franco-ml/Hotel-v2/scraper"
	"github.com/cristian-franco-ml/Hotel-v2/services"
	"github.com/cristian-franco-ml/Hotel-v2/storage"
)

// JobRunner is implemented by services.Jobs.
type JobRunner interface {
	Hotel(ctx context.Context, req models.JobRequest) (models.ScrapeResult, models.JobReport, error)
	Events(ctx context.Context, req models.EventsRequest) ([]models.Event, models.JobReport, error)
	All(ctx context.Context, req services.AllRequest) ([]models.JobReport, error)
}

type Server struct {
	jobs   JobRunner
	store  storage.Store
	logger *slog.Logger
	now    func() time.Time
}

func New(jobs JobRunner, store storage.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{jobs: jobs, store: store, logger: logger, now: time.Now}
}

// Handler returns the routed mux wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.health)
	mux.HandleFunc("POST /run-scrape-hotel-propio", s.runHotel)
	mux.HandleFunc("POST /run-scrapeo-geo", s.runEvents)
	mux.HandleFunc("POST /run-all-scrapings", s.runAll)
	mux.HandleFunc("GET /api/hotels", s.listHotels)
	mux.HandleFunc("POST /api/hotels", s.saveHotels)
	mux.HandleFunc("GET /api/events", s.listEvents)
	mux.HandleFunc("POST /api/events", s.saveEvents)
	mux.HandleFunc("GET /api/forecast", s.getForecast)
	mux.HandleFunc("GET /api/hotels/chart", s.chart)
	return s.logRequests(mux)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("http request",
			"method", r.Method, "path", r.URL.Path, "status", sw.status,
			"elapsed", time.Since(start).Round(time.Millisecond))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps job errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, scraper.ErrPropertyNotFound):
		return http.StatusNotFound
	case errors.Is(err, scraper.ErrNoPricingData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: body: %v", services.ErrInvalidRequest, err)
	}
	return nil
}

// bearer pulls the caller token from the Authorization header.
func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

func userParam(r *http.Request) (string, error) {
	id := r.URL.Query().Get("user_id")
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: user_id %q is not a UUID", services.ErrInvalidRequest, id)
	}
	return id, nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) runHotel(w http.ResponseWriter, r *http.Request) {
	var req models.JobRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.CallerToken == "" {
		req.CallerToken = bearer(r)
	}

	result, report, err := s.jobs.Hotel(r.Context(), req)
	if err != nil && result.Days == nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error(), "report": report})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report, "result": result})
}

func (s *Server) runEvents(w http.ResponseWriter, r *http.Request) {
	var req models.EventsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.CallerToken = strings.TrimSpace(r.Header.Get("x-user-jwt"))
	if req.CallerToken == "" {
		req.CallerToken = bearer(r)
	}

	list, report, err := s.jobs.Events(r.Context(), req)
	if err != nil && list == nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error(), "report": report})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report, "events": list})
}

func (s *Server) runAll(w http.ResponseWriter, r *http.Request) {
	var req services.AllRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.CallerToken == "" {
		req.CallerToken = bearer(r)
	}

	reports, err := s.jobs.All(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	ok := true
	for _, rep := range reports {
		ok = ok && rep.OK
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": ok, "reports": reports})
}

func (s *Server) listHotels(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx := storage.WithCallerToken(r.Context(), bearer(r))
	rows, err := s.store.ListRoomPrices(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if hotel := r.URL.Query().Get("hotel"); hotel != "" {
		rows = filterHotel(rows, hotel)
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) saveHotels(w http.ResponseWriter, r *http.Request) {
	var rows []models.RoomPriceRecord
	if err := decode(w, r, &rows); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	today := s.now().UTC().Format(models.DateLayout)
	for i := range rows {
		if _, err := uuid.Parse(rows[i].UserID); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("row %d: user_id %q is not a UUID", i, rows[i].UserID))
			return
		}
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if rows[i].ScrapeDate == "" {
			rows[i].ScrapeDate = today
		}
	}

	ctx := storage.WithCallerToken(r.Context(), bearer(r))
	saved, err := s.store.SaveRoomPrices(ctx, rows)
	resp := map[string]any{"saved": saved}
	if err != nil {
		resp["error"] = err.Error()
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx := storage.WithCallerToken(r.Context(), bearer(r))
	list, err := s.store.ListEvents(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) saveEvents(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string         `json:"user_id"`
		Events []models.Event `json:"events"`
	}
	if err := decode(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := uuid.Parse(body.UserID); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("user_id %q is not a UUID", body.UserID))
		return
	}
	for i := range body.Events {
		body.Events[i].CreatedBy = body.UserID
	}

	ctx := storage.WithCallerToken(r.Context(), bearer(r))
	saved, err := s.store.ReplaceEvents(ctx, body.UserID, body.Events)
	resp := map[string]any{"saved": saved}
	if err != nil {
		resp["error"] = err.Error()
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) series(r *http.Request) (forecast.Series, int, error) {
	userID, err := userParam(r)
	if err != nil {
		return forecast.Series{}, http.StatusBadRequest, err
	}
	hotel := r.URL.Query().Get("hotel")

	ctx := storage.WithCallerToken(r.Context(), bearer(r))
	rows, err := s.store.ListRoomPrices(ctx, userID)
	if err != nil {
		return forecast.Series{}, http.StatusInternalServerError, err
	}
	if hotel != "" {
		rows = filterHotel(rows, hotel)
	} else if len(rows) > 0 {
		hotel = rows[0].HotelName
		rows = filterHotel(rows, hotel)
	}

	series, err := forecast.Build(hotel, rows, s.now())
	if errors.Is(err, forecast.ErrNotEnoughData) {
		return series, http.StatusNotFound, err
	}
	return series, http.StatusOK, err
}

func (s *Server) getForecast(w http.ResponseWriter, r *http.Request) {
	series, status, err := s.series(r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func filterHotel(rows []models.RoomPriceRecord, hotel string) []models.RoomPriceRecord {
	out := rows[:0:0]
	for _, row := range rows {
		if strings.EqualFold(row.HotelName, hotel) {
			out = append(out, row)
		}
	}
	return out
}
