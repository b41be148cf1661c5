package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cristian-franco-ml/Hotel-v2/config"
	"github.com/cristian-franco-ml/Hotel-v2/models"
	"github.com/cristian-franco-ml/Hotel-v2/utils"
)

const (
	roomPricesPath = "/rest/v1/hotel_usuario"
	eventsPath     = "/rest/v1/events"
	adminUsersPath = "/auth/v1/admin/users/{id}"

	roomPricesConflict = "user_id,hotel_name,checkin_date,room_type"
	eventsConflict     = "nombre,fecha,created_by"

	upsertPrefer = "resolution=merge-duplicates,return=minimal"
	batchSize    = 100
)

// RESTStore talks to a PostgREST (Supabase) endpoint.
type RESTStore struct {
	client     *resty.Client
	key        string
	serviceKey string
	batchSize  int
}

func NewRESTStore(cfg config.Config, logger *slog.Logger) (*RESTStore, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, errors.New("rest store: SUPABASE_URL and SUPABASE_KEY must be set")
	}
	return newRESTStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseServiceKey, logger), nil
}

func newRESTStore(baseURL, key, serviceKey string, logger *slog.Logger) *RESTStore {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")
	client := resty.New().
		SetLogger(utils.PrintfLogger{Logger: logger}).
		SetBaseURL(baseURL).
		SetHeader("apikey", key).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(400 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	client.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
		logger.Debug("store request",
			"method", r.Request.Method,
			"url", r.Request.URL,
			"status", r.StatusCode(),
			"elapsed", r.Time(),
		)
		return nil
	})

	return &RESTStore{client: client, key: key, serviceKey: serviceKey, batchSize: batchSize}
}

// request prefers the caller's token over the configured key.
func (s *RESTStore) request(ctx context.Context) *resty.Request {
	token := s.key
	if t, ok := CallerToken(ctx); ok {
		token = t
	}
	return s.client.R().SetContext(ctx).SetAuthToken(token)
}

func (s *RESTStore) SaveRoomPrices(ctx context.Context, records []models.RoomPriceRecord) (int, error) {
	return upsertBatches(ctx, s, roomPricesPath, roomPricesConflict, records)
}

func (s *RESTStore) ListRoomPrices(ctx context.Context, userID string) ([]models.RoomPriceRecord, error) {
	var rows []models.RoomPriceRecord
	resp, err := s.request(ctx).
		SetQueryParams(map[string]string{
			"user_id": "eq." + userID,
			"order":   "checkin_date.asc",
		}).
		SetResult(&rows).
		Get(roomPricesPath)
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("list room prices: %w", err)
	}
	return rows, nil
}

func (s *RESTStore) ReplaceEvents(ctx context.Context, createdBy string, events []models.Event) (int, error) {
	resp, err := s.request(ctx).
		SetQueryParam("created_by", "eq."+createdBy).
		Delete(eventsPath)
	if err := checkResponse(resp, err); err != nil {
		return 0, fmt.Errorf("delete previous events: %w", err)
	}
	return upsertBatches(ctx, s, eventsPath, eventsConflict, events)
}

func (s *RESTStore) ListEvents(ctx context.Context, createdBy string) ([]models.Event, error) {
	var rows []models.Event
	resp, err := s.request(ctx).
		SetQueryParams(map[string]string{
			"created_by": "eq." + createdBy,
			"order":      "fecha.asc",
		}).
		SetResult(&rows).
		Get(eventsPath)
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return rows, nil
}

// HotelNameFor reads user_metadata.hotel_name through the admin API.
func (s *RESTStore) HotelNameFor(ctx context.Context, userID string) (string, error) {
	if s.serviceKey == "" {
		return "", errors.New("hotel lookup needs SUPABASE_SERVICE_ROLE_KEY")
	}
	var user struct {
		UserMetadata struct {
			HotelName string `json:"hotel_name"`
		} `json:"user_metadata"`
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("apikey", s.serviceKey).
		SetAuthToken(s.serviceKey).
		SetPathParam("id", userID).
		SetResult(&user).
		Get(adminUsersPath)
	if err := checkResponse(resp, err); err != nil {
		return "", fmt.Errorf("fetch user %s: %w", userID, err)
	}
	if user.UserMetadata.HotelName == "" {
		return "", fmt.Errorf("user %s has no hotel_name in metadata", userID)
	}
	return user.UserMetadata.HotelName, nil
}

func (s *RESTStore) Close() error { return nil }

func upsertBatches[T any](ctx context.Context, s *RESTStore, path, conflict string, rows []T) (int, error) {
	saved := 0
	var errs []error
	for start := 0; start < len(rows); start += s.batchSize {
		batch := rows[start:min(start+s.batchSize, len(rows))]
		resp, err := s.request(ctx).
			SetHeader("Prefer", upsertPrefer).
			SetQueryParam("on_conflict", conflict).
			SetBody(batch).
			Post(path)
		if err := checkResponse(resp, err); err != nil {
			errs = append(errs, fmt.Errorf("upsert %s rows %d-%d: %w", path, start, start+len(batch)-1, err))
			continue
		}
		saved += len(batch)
	}
	return saved, errors.Join(errs...)
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		body := resp.String()
		if len(body) > 200 {
			body = body[:200]
		}
		return fmt.Errorf("%s: %s", resp.Status(), body)
	}
	return nil
}
