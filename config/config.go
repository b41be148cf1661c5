package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Target is a scheduled (user, hotel) pair.
type Target struct {
	UserID    string `json:"user_id"`
	HotelName string `json:"hotel_name"`
}

// Config holds all runtime configuration for the scraper and its service.
type Config struct {
	// Search
	SearchURL   string   `json:"search_url"`
	Locale      string   `json:"locale"`
	Currency    string   `json:"currency"`
	HorizonDays int      `json:"horizon_days"`
	Ranges      int      `json:"ranges"`
	Concurrency int      `json:"concurrency"`
	Headless    bool     `json:"headless"`
	UserAgents  []string `json:"user_agents"`

	// Timing
	SuggestionTimeout  time.Duration `json:"-"`
	ResultsTimeout     time.Duration `json:"-"`
	NewTabTimeout      time.Duration `json:"-"`
	NetworkIdleTimeout time.Duration `json:"-"`
	SettleDelay        time.Duration `json:"-"`
	PopupInterval      time.Duration `json:"-"`
	TableTimeout       time.Duration `json:"-"`
	ClickTimeout       time.Duration `json:"-"`
	JobTimeout         time.Duration `json:"-"`
	SaveTimeout        time.Duration `json:"-"`

	// Data store
	StoreBackend       string `json:"store_backend"`
	SupabaseURL        string `json:"supabase_url"`
	SupabaseKey        string `json:"-"`
	SupabaseServiceKey string `json:"-"`

	// PostgreSQL
	DBHost     string `json:"db_host"`
	DBPort     int    `json:"db_port"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"-"`
	DBName     string `json:"db_name"`
	DBSSLMode  string `json:"db_sslmode"`

	// Events
	TicketmasterKey     string  `json:"-"`
	TicketmasterBaseURL string  `json:"ticketmaster_base_url"`
	EventDays           int     `json:"event_days"`
	EventLimit          int     `json:"event_limit"`
	EventRadiusKm       float64 `json:"event_radius_km"`
	CountryCode         string  `json:"country_code"`

	// Service
	HTTPAddr string   `json:"http_addr"`
	Workers  int      `json:"workers"`
	Schedule string   `json:"schedule"`
	Timezone string   `json:"timezone"`
	Targets  []Target `json:"targets"`
	LogLevel string   `json:"log_level"`
}

// DefaultUserAgents is the identity pool a fresh tab picks from.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

// Default returns a Config populated with sensible defaults, overridden by
// environment variables where set.
func Default() Config {
	return Config{
		SearchURL:   getEnv("SEARCH_URL", "https://www.booking.com/searchresults.html"),
		Locale:      getEnv("SCRAPER_LOCALE", "en-us"),
		Currency:    getEnv("SCRAPER_CURRENCY", "MXN"),
		HorizonDays: getEnvInt("SCRAPER_HORIZON_DAYS", 90),
		Ranges:      getEnvInt("SCRAPER_RANGES", 3),
		Concurrency: getEnvInt("SCRAPER_CONCURRENCY", 5),
		Headless:    getEnvBool("HEADLESS", true),
		UserAgents:  getEnvList("SCRAPER_USER_AGENTS", DefaultUserAgents),

		SuggestionTimeout:  5 * time.Second,
		ResultsTimeout:     15 * time.Second,
		NewTabTimeout:      10 * time.Second,
		NetworkIdleTimeout: 10 * time.Second,
		SettleDelay:        getEnvDuration("SCRAPER_SETTLE_DELAY", 3*time.Second),
		PopupInterval:      2 * time.Second,
		TableTimeout:       10 * time.Second,
		ClickTimeout:       5 * time.Second,
		JobTimeout:         getEnvDuration("SCRAPER_JOB_TIMEOUT", 30*time.Minute),
		SaveTimeout:        getEnvDuration("STORE_SAVE_TIMEOUT", 30*time.Second),

		StoreBackend:       getEnv("STORE_BACKEND", "rest"),
		SupabaseURL:        strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey:        getEnv("SUPABASE_KEY", getEnv("SUPABASE_ANON_KEY", "")),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "hotel"),
		DBPassword: getEnv("DB_PASSWORD", "hotel"),
		DBName:     getEnv("DB_NAME", "hotel_prices"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		TicketmasterKey:     getEnv("TICKETMASTER_API_KEY", ""),
		TicketmasterBaseURL: getEnv("TICKETMASTER_BASE_URL", "https://app.ticketmaster.com"),
		EventDays:           getEnvInt("EVENT_DAYS", 90),
		EventLimit:          getEnvInt("EVENT_LIMIT", 20),
		EventRadiusKm:       10,
		CountryCode:         getEnv("EVENT_COUNTRY_CODE", "MX"),

		HTTPAddr: getEnv("HTTP_ADDR", ":5000"),
		Workers:  getEnvInt("WORKERS", 2),
		Schedule: getEnv("SCRAPE_SCHEDULE", "0 6 * * *"),
		Timezone: getEnv("TZ_NAME", "America/Tijuana"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvList splits a "|" separated list; user agents contain commas.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(v, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
