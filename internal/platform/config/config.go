package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the panel service reads from the environment.
type Config struct {
	// Addr is the listen address of the panel HTTP surface.
	Addr string
	// RecordStoreURL is the base URL of the remote patient record store.
	RecordStoreURL string
	// RequestTimeout bounds a single round trip to the record store.
	RequestTimeout time.Duration
	// StaleAfter is how long a fetched patient list is considered fresh.
	StaleAfter time.Duration
	// RetryAttempts is how many times a failed list fetch is retried before
	// the error is surfaced. Mutations are never retried automatically.
	RetryAttempts int
	// RetryBaseDelay and RetryMaxDelay bound the exponential backoff between
	// automatic list-fetch retries.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	// RedisURL, when set, enables the redis snapshot store so a restarted
	// process can serve the last known patient list immediately.
	RedisURL string
	// NotificationDisplay is how long a notification stays on screen before
	// it starts exiting; NotificationExit is the exit-animation delay before
	// it is dropped from the active set.
	NotificationDisplay time.Duration
	NotificationExit    time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
// Unset or malformed values fall back to the defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:                ":8080",
		RecordStoreURL:      "https://63bedcf7f5cfc0949b634fc8.mockapi.io",
		RequestTimeout:      10 * time.Second,
		StaleAfter:          5 * time.Minute,
		RetryAttempts:       3,
		RetryBaseDelay:      time.Second,
		RetryMaxDelay:       30 * time.Second,
		NotificationDisplay: 4 * time.Second,
		NotificationExit:    300 * time.Millisecond,
	}

	if v := os.Getenv("PANEL_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("RECORD_STORE_URL"); v != "" {
		cfg.RecordStoreURL = v
	}
	durationEnv("RECORD_STORE_TIMEOUT", &cfg.RequestTimeout)
	durationEnv("PANEL_STALE_AFTER", &cfg.StaleAfter)
	intEnv("PANEL_RETRY_ATTEMPTS", &cfg.RetryAttempts)
	durationEnv("PANEL_RETRY_BASE_DELAY", &cfg.RetryBaseDelay)
	durationEnv("PANEL_RETRY_MAX_DELAY", &cfg.RetryMaxDelay)
	durationEnv("PANEL_NOTIFY_DISPLAY", &cfg.NotificationDisplay)
	durationEnv("PANEL_NOTIFY_EXIT", &cfg.NotificationExit)
	cfg.RedisURL = os.Getenv("REDIS_URL")

	return cfg
}

func durationEnv(name string, dst *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func intEnv(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			*dst = n
		}
	}
}
