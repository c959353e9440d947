package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/rendis/mealspin/internal/model"
)

// Config captures runtime configuration for discovery and the providers.
type Config struct {
	Discovery  Discovery
	Kakao      Kakao
	Yogiyo     Yogiyo
	Nominatim  string // geocoder base URL
	ListenAddr string
	LogLevel   string
}

// Discovery holds the tunables of a discovery run.
type Discovery struct {
	SectorCount       int
	RingCount         int
	MaxPagesPerRegion int
	PoolCap           int
	InterRequestDelay time.Duration
	RegionTimeout     time.Duration
	DeliveryTimeout   time.Duration
	DeliveryPages     int
	Concurrency       int
	ExcludedCategory  model.Category
	ReviewThreshold   float64
}

// Kakao configures the map POI provider.
type Kakao struct {
	BaseURL string
	APIKey  string
}

// Yogiyo configures the delivery catalog provider.
type Yogiyo struct {
	BaseURL    string
	Auth       string
	APIKey     string
	APISecret  string
	BrowserTLS bool
	ProxyURL   string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Discovery: Discovery{
			SectorCount:       8,
			RingCount:         2,
			MaxPagesPerRegion: 2,
			PoolCap:           500,
			InterRequestDelay: 300 * time.Millisecond,
			RegionTimeout:     10 * time.Second,
			DeliveryTimeout:   30 * time.Second,
			DeliveryPages:     1,
			Concurrency:       4,
			ExcludedCategory:  model.CategoryCafe,
			ReviewThreshold:   4.7,
		},
		Kakao: Kakao{
			BaseURL: "https://dapi.kakao.com",
		},
		Yogiyo: Yogiyo{
			BaseURL:    "https://www.yogiyo.co.kr",
			BrowserTLS: true,
		},
		Nominatim:  "https://nominatim.openstreetmap.org",
		ListenAddr: ":8080",
		LogLevel:   "info",
	}
}

// FromEnv creates a configuration instance sourced from environment variables.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	d := &cfg.Discovery

	cfg.Kakao.BaseURL = getEnv("KAKAO_BASE_URL", cfg.Kakao.BaseURL)
	cfg.Kakao.APIKey = getEnv("KAKAO_REST_API_KEY", "")
	cfg.Yogiyo.BaseURL = getEnv("YOGIYO_BASE_URL", cfg.Yogiyo.BaseURL)
	cfg.Yogiyo.Auth = getEnv("YOGIYO_AUTH", "")
	cfg.Yogiyo.APIKey = getEnv("YOGIYO_API_KEY", "")
	cfg.Yogiyo.APISecret = getEnv("YOGIYO_API_SECRET", "")
	cfg.Yogiyo.ProxyURL = getEnv("MEALSPIN_PROXY", "")
	cfg.Nominatim = getEnv("MEALSPIN_NOMINATIM_URL", cfg.Nominatim)
	cfg.ListenAddr = getEnv("MEALSPIN_LISTEN_ADDR", cfg.ListenAddr)
	cfg.LogLevel = getEnv("MEALSPIN_LOG_LEVEL", cfg.LogLevel)

	ints := []struct {
		key string
		dst *int
	}{
		{"MEALSPIN_SECTORS", &d.SectorCount},
		{"MEALSPIN_RINGS", &d.RingCount},
		{"MEALSPIN_MAX_PAGES", &d.MaxPagesPerRegion},
		{"MEALSPIN_POOL_CAP", &d.PoolCap},
		{"MEALSPIN_DELIVERY_PAGES", &d.DeliveryPages},
		{"MEALSPIN_CONCURRENCY", &d.Concurrency},
	}
	for _, v := range ints {
		if raw := os.Getenv(v.key); raw != "" {
			if _, err := fmt.Sscanf(raw, "%d", v.dst); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", v.key, err)
			}
		}
	}

	if ms := os.Getenv("MEALSPIN_REQUEST_DELAY_MS"); ms != "" {
		var n int
		if _, err := fmt.Sscanf(ms, "%d", &n); err != nil {
			return Config{}, fmt.Errorf("parse MEALSPIN_REQUEST_DELAY_MS: %w", err)
		}
		d.InterRequestDelay = time.Duration(n) * time.Millisecond
	}

	if ms := os.Getenv("MEALSPIN_REGION_TIMEOUT_MS"); ms != "" {
		var n int
		if _, err := fmt.Sscanf(ms, "%d", &n); err != nil {
			return Config{}, fmt.Errorf("parse MEALSPIN_REGION_TIMEOUT_MS: %w", err)
		}
		d.RegionTimeout = time.Duration(n) * time.Millisecond
	}

	if ex, ok := os.LookupEnv("MEALSPIN_EXCLUDED_CATEGORY"); ok {
		d.ExcludedCategory = model.Category(ex)
	}

	if tls := os.Getenv("YOGIYO_BROWSER_TLS"); tls != "" {
		cfg.Yogiyo.BrowserTLS = tls == "1" || tls == "true"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the discovery engine cannot work with.
func (c Config) Validate() error {
	d := c.Discovery
	switch {
	case d.SectorCount <= 0:
		return errors.New("sector count must be positive")
	case d.RingCount <= 0:
		return errors.New("ring count must be positive")
	case d.MaxPagesPerRegion <= 0:
		return errors.New("max pages per region must be positive")
	case d.PoolCap <= 0:
		return errors.New("pool cap must be positive")
	case d.Concurrency <= 0:
		return errors.New("concurrency must be positive")
	case d.InterRequestDelay < 0:
		return errors.New("request delay cannot be negative")
	case d.RegionTimeout <= 0:
		return errors.New("region timeout must be positive")
	case d.DeliveryTimeout <= 0:
		return errors.New("delivery timeout must be positive")
	}
	if d.ExcludedCategory != "" && !d.ExcludedCategory.Valid() {
		return fmt.Errorf("unknown excluded category %q", d.ExcludedCategory)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
