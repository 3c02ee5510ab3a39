package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	DBPath          string
	ScanRoot        string
	LogLevel        string
	SnippetMaxLines int
	BurstWindow     time.Duration
	SessionTTL      time.Duration
	LiveTick        time.Duration
	HistoryLimit    int
	ScanWorkerCount int
	ScanQueueSize   int
	MaxFileSize     int64
	WatchDebounce   time.Duration
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:            envOr("ADDR", ":8080"),
		DBPath:          envOr("DB_PATH", "file:typespeed.db"),
		ScanRoot:        envOr("SCAN_ROOT", "."),
		LogLevel:        envOr("LOG_LEVEL", "INFO"),
		SnippetMaxLines: envIntOr("SNIPPET_MAX_LINES", 20),
		BurstWindow:     envDurOr("BURST_WINDOW", 10*time.Second),
		SessionTTL:      envDurOr("SESSION_TTL", 30*time.Minute),
		LiveTick:        envDurOr("LIVE_TICK", 500*time.Millisecond),
		HistoryLimit:    envIntOr("HISTORY_LIMIT", 500),
		ScanWorkerCount: envIntOr("SCAN_WORKER_COUNT", 1),
		ScanQueueSize:   envIntOr("SCAN_QUEUE_SIZE", 16),
		MaxFileSize:     int64(envIntOr("MAX_FILE_SIZE", 256*1024)),
		WatchDebounce:   envDurOr("WATCH_DEBOUNCE", 2*time.Second),
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SnippetMaxLines <= 0 {
		return fmt.Errorf("SNIPPET_MAX_LINES must be positive")
	}
	if c.BurstWindow <= 0 {
		return fmt.Errorf("BURST_WINDOW must be positive")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive")
	}
	if c.ScanWorkerCount <= 0 {
		return fmt.Errorf("SCAN_WORKER_COUNT must be positive")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
