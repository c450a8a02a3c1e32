package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned by Load when OPENWEATHER_API_KEY is not set.
var ErrMissingAPIKey = errors.New("OPENWEATHER_API_KEY is required")

var validate = validator.New()

type AppConfig struct {
	AppName  string
	LogLevel string
	Port     string

	OpenWeatherAPIKey  string `validate:"required"`
	OpenWeatherBaseURL string `validate:"omitempty,url"`

	// HTTPTimeout bounds a whole provider request.
	HTTPTimeout time.Duration `validate:"gte=0"`

	// RefreshInterval re-runs the current-location fetch; 0 disables it.
	RefreshInterval time.Duration `validate:"gte=0"`

	Location LocationConfig

	// Fetch journal retention.
	JournalMaxHistory int           // max number of entries (0 = unlimited)
	JournalMaxAge     time.Duration // max age of entries (0 = unlimited)
}

// LocationConfig describes where "current location" comes from.
type LocationConfig struct {
	PermissionGranted bool
	Latitude          *float64 `validate:"omitempty,latitude"`
	Longitude         *float64 `validate:"omitempty,longitude"`

	// City/Country are geocoded when no coordinates are configured.
	City           string
	Country        string
	GeocoderAPIKey string
}

// HasCoordinates reports whether both latitude and longitude are configured.
func (l LocationConfig) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Load reads configuration from the environment (and .env, if present) with
// sensible defaults. It fails fast when the API key is absent.
func Load() (*AppConfig, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.AppName = getenvDefault("APP_NAME", "clima")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.OpenWeatherAPIKey = strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY"))
	if cfg.OpenWeatherAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg.OpenWeatherBaseURL = os.Getenv("OPENWEATHER_BASE_URL")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "0"); err != nil {
		return nil, err
	}

	cfg.JournalMaxHistory = getenvInt("JOURNAL_MAX_HISTORY", 100)
	if cfg.JournalMaxAge, err = getenvDuration("JOURNAL_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	loc, err := loadLocation()
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadLocation() (LocationConfig, error) {
	loc := LocationConfig{
		City:           os.Getenv("LOCATION_CITY"),
		Country:        os.Getenv("LOCATION_COUNTRY"),
		GeocoderAPIKey: os.Getenv("GEOCODER_API_KEY"),
	}

	switch strings.ToLower(getenvDefault("LOCATION_PERMISSION", "granted")) {
	case "granted":
		loc.PermissionGranted = true
	case "denied":
		loc.PermissionGranted = false
	default:
		return loc, fmt.Errorf("invalid LOCATION_PERMISSION: want granted or denied")
	}

	lat, err := getenvFloat("LOCATION_LAT")
	if err != nil {
		return loc, err
	}
	lon, err := getenvFloat("LOCATION_LON")
	if err != nil {
		return loc, err
	}
	if (lat == nil) != (lon == nil) {
		return loc, fmt.Errorf("LOCATION_LAT and LOCATION_LON must be set together")
	}
	loc.Latitude, loc.Longitude = lat, lon

	return loc, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvFloat(key string) (*float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &f, nil
}
