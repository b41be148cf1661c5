package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/cristian-franco-ml/Hotel-v2/config"
	"github.com/cristian-franco-ml/Hotel-v2/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(cfg config.Config) (*PostgresStore, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) SaveRoomPrices(ctx context.Context, records []models.RoomPriceRecord) (saved int, err error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO hotel_usuario (id, user_id, hotel_name, scrape_date, checkin_date, room_type, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, hotel_name, checkin_date, room_type) DO UPDATE
		SET
			scrape_date = EXCLUDED.scrape_date,
			price = EXCLUDED.price,
			updated_at = NOW()`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err = stmt.ExecContext(ctx,
			r.ID,
			r.UserID,
			r.HotelName,
			r.ScrapeDate,
			r.CheckinDate,
			r.RoomType,
			r.Price,
		); err != nil {
			return 0, fmt.Errorf("upsert %s %s %q: %w", r.HotelName, r.CheckinDate, r.RoomType, err)
		}
		saved++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return saved, nil
}

func (s *PostgresStore) ListRoomPrices(ctx context.Context, userID string) ([]models.RoomPriceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, hotel_name, scrape_date::text, checkin_date::text, room_type, price
		FROM hotel_usuario
		WHERE user_id = $1
		ORDER BY checkin_date, room_type`, userID)
	if err != nil {
		return nil, fmt.Errorf("query room prices: %w", err)
	}
	defer rows.Close()

	var out []models.RoomPriceRecord
	for rows.Next() {
		var r models.RoomPriceRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.HotelName, &r.ScrapeDate, &r.CheckinDate, &r.RoomType, &r.Price); err != nil {
			return nil, fmt.Errorf("scan room price: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ReplaceEvents(ctx context.Context, createdBy string, events []models.Event) (saved int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM events WHERE created_by = $1`, createdBy); err != nil {
		return 0, fmt.Errorf("delete previous events: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (nombre, fecha, hora, lugar, enlace, genero, rango_precio, hotel_referencia, created_by, fuente)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (nombre, fecha, created_by) DO UPDATE
		SET
			hora = EXCLUDED.hora,
			lugar = EXCLUDED.lugar,
			enlace = EXCLUDED.enlace,
			genero = EXCLUDED.genero,
			rango_precio = EXCLUDED.rango_precio,
			hotel_referencia = EXCLUDED.hotel_referencia,
			fuente = EXCLUDED.fuente`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err = stmt.ExecContext(ctx,
			e.Name, e.Date, e.Time, e.Venue, e.URL, e.Genre, e.PriceRange, e.HotelRef, createdBy, e.Source,
		); err != nil {
			return 0, fmt.Errorf("insert event %q: %w", e.Name, err)
		}
		saved++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return saved, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, createdBy string) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT nombre, fecha::text, hora, lugar, enlace, genero, rango_precio, hotel_referencia, created_by, fuente
		FROM events
		WHERE created_by = $1
		ORDER BY fecha, nombre`, createdBy)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.Name, &e.Date, &e.Time, &e.Venue, &e.URL, &e.Genre, &e.PriceRange, &e.HotelRef, &e.CreatedBy, &e.Source); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS hotel_usuario (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			hotel_name TEXT NOT NULL,
			scrape_date DATE NOT NULL,
			checkin_date DATE NOT NULL,
			room_type TEXT NOT NULL,
			price TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, hotel_name, checkin_date, room_type)
		);
		CREATE INDEX IF NOT EXISTS idx_hotel_usuario_user ON hotel_usuario(user_id);

		CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			nombre TEXT NOT NULL,
			fecha DATE NOT NULL,
			hora TEXT NOT NULL DEFAULT '',
			lugar TEXT NOT NULL DEFAULT '',
			enlace TEXT NOT NULL DEFAULT '',
			genero TEXT NOT NULL DEFAULT '',
			rango_precio TEXT NOT NULL DEFAULT '',
			hotel_referencia TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			fuente TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (nombre, fecha, created_by)
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
