package config

import (
	"strconv"
	"strings"

	"finndex/pkg/logger"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	SentryDSN string `envconfig:"SENTRY_DSN"`

	HTTPPort    int    `envconfig:"HTTP_PORT" default:"9200"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	RedisURL    string `envconfig:"REDIS_URL"`

	// WidgetAPIBaseURL is where the widget sends its sentiment and price
	// requests. Empty means the server's own history API.
	WidgetAPIBaseURL      string `envconfig:"WIDGET_API_BASE_URL"`
	WidgetHTTPTimeoutSecs int    `envconfig:"WIDGET_HTTP_TIMEOUT_SECS" default:"30"`
	WidgetWindowDays      int    `envconfig:"WIDGET_WINDOW_DAYS" default:"365"`
	WidgetStartOffsetDays int    `envconfig:"WIDGET_START_OFFSET_DAYS" default:"10"`

	HistoryPollSecs     int `envconfig:"HISTORY_POLL_SECS" default:"3600"`
	HistoryBackfillDays int `envconfig:"HISTORY_BACKFILL_DAYS" default:"30"`
	SeriesCacheTTLSecs  int `envconfig:"SERIES_CACHE_TTL_SECS" default:"900"`

	// HistoryRefreshCron, when set, replaces HISTORY_POLL_SECS with a cron spec.
	HistoryRefreshCron string `envconfig:"HISTORY_REFRESH_CRON"`

	SSHPort        int    `envconfig:"SSH_PORT" default:"2222"`
	SSHHostKeyPath string `envconfig:"SSH_HOST_KEY_PATH" default:".ssh/finndex_ed25519"`
}

var processEnv = envconfig.Process

// Load reads the environment. Invalid values fall back to defaults with a
// warning rather than aborting startup.
func Load() *Config {
	log := logger.Get()

	cfg := &Config{}
	if err := processEnv("", cfg); err != nil {
		log.Warnf("invalid configuration, using defaults: %v", err)
		cfg = defaults()
	}

	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, history store disabled")
	}
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	cfg.WidgetAPIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.WidgetAPIBaseURL), "/")
	if cfg.WidgetAPIBaseURL == "" {
		cfg.WidgetAPIBaseURL = "http://localhost:" + strconv.Itoa(cfg.HTTPPort)
	}

	if cfg.WidgetHTTPTimeoutSecs <= 0 {
		cfg.WidgetHTTPTimeoutSecs = 30
	}
	if cfg.WidgetWindowDays <= 0 {
		cfg.WidgetWindowDays = 365
	}
	if cfg.WidgetStartOffsetDays < 0 {
		cfg.WidgetStartOffsetDays = 10
	}
	if cfg.HistoryPollSecs <= 0 {
		cfg.HistoryPollSecs = 3600
	}
	if cfg.HistoryBackfillDays <= 0 {
		cfg.HistoryBackfillDays = 30
	}
	if cfg.SeriesCacheTTLSecs <= 0 {
		cfg.SeriesCacheTTLSecs = 900
	}

	return cfg
}

func defaults() *Config {
	return &Config{
		AppEnv:                "development",
		LogLevel:              "info",
		HTTPPort:              9200,
		WidgetHTTPTimeoutSecs: 30,
		WidgetWindowDays:      365,
		WidgetStartOffsetDays: 10,
		HistoryPollSecs:       3600,
		HistoryBackfillDays:   30,
		SeriesCacheTTLSecs:    900,
		SSHPort:               2222,
		SSHHostKeyPath:        ".ssh/finndex_ed25519",
	}
}
