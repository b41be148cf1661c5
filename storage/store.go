package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cristian-franco-ml/Hotel-v2/config"
	"github.com/cristian-franco-ml/Hotel-v2/models"
)

// Store persists room prices and events. Writes are best-effort upserts: a
// failed batch is reported but does not stop the remaining batches.
type Store interface {
	SaveRoomPrices(ctx context.Context, records []models.RoomPriceRecord) (int, error)
	ListRoomPrices(ctx context.Context, userID string) ([]models.RoomPriceRecord, error)
	ReplaceEvents(ctx context.Context, createdBy string, events []models.Event) (int, error)
	ListEvents(ctx context.Context, createdBy string) ([]models.Event, error)
	Close() error
}

// UserDirectory resolves the hotel registered for a user.
type UserDirectory interface {
	HotelNameFor(ctx context.Context, userID string) (string, error)
}

// Open returns the store selected by cfg.StoreBackend.
func Open(cfg config.Config, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(cfg.StoreBackend) {
	case "", "rest":
		return NewRESTStore(cfg, logger)
	case "postgres":
		return NewPostgresStore(cfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// RoomPriceRecords flattens a scrape into one record per
// (user, hotel, check-in date, room type). When a room type shows several
// prices on one date the first one wins.
func RoomPriceRecords(userID, hotel string, scrapedAt time.Time, days []models.DayResult) []models.RoomPriceRecord {
	scrapeDate := scrapedAt.Format(models.DateLayout)
	seen := make(map[string]struct{})
	var out []models.RoomPriceRecord

	for _, day := range days {
		for _, q := range day.Rooms {
			key := day.Date + "|" + q.RoomType
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, models.RoomPriceRecord{
				ID:          uuid.NewString(),
				UserID:      userID,
				HotelName:   hotel,
				ScrapeDate:  scrapeDate,
				CheckinDate: day.Date,
				RoomType:    q.RoomType,
				Price:       q.Price,
			})
		}
	}
	return out
}

type callerTokenKey struct{}

// WithCallerToken attaches a caller-supplied bearer token to ctx. Stores use
// it in preference to their own configured credential.
func WithCallerToken(ctx context.Context, token string) context.Context {
	if token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer ")); token == "" {
		return ctx
	}
	return context.WithValue(ctx, callerTokenKey{}, token)
}

// CallerToken returns the token stored by WithCallerToken, if any.
func CallerToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(callerTokenKey{}).(string)
	return token, ok && token != ""
}
