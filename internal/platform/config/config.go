package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	errInvalidPort           = errors.New("config: invalid PORT number")
	errConcurrencyOutOfRange = errors.New("config: CHECK_CONCURRENCY must be 1-100")
	errMaxPagesOutOfRange    = errors.New("config: MAX_PAGES must be at least 1")
)

// Config holds all application configuration loaded from environment
// variables.
type Config struct {
	Port             string
	LogLevel         string
	ResultsFile      string
	DomainsFile      string
	CheckConcurrency int
	MaxPages         int
	WikipediaBaseURL string
	ArticleDelay     time.Duration
}

// Load reads configuration from environment variables with sensible
// defaults. The two file paths are where dead-link results and
// available domains are checkpointed; CHECK_CONCURRENCY bounds the
// per-article liveness worker pool.
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "ERROR"),
		ResultsFile:      getEnv("RESULTS_FILE", "wikipedia_dead_links.json"),
		DomainsFile:      getEnv("DOMAINS_FILE", "available_domains.json"),
		CheckConcurrency: getEnvAsInt("CHECK_CONCURRENCY", 10),
		MaxPages:         getEnvAsInt("MAX_PAGES", 10),
		WikipediaBaseURL: getEnv("WIKIPEDIA_BASE_URL", "https://en.wikipedia.org"),
		ArticleDelay:     getEnvAsDuration("ARTICLE_DELAY", time.Second),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.CheckConcurrency < 1 || c.CheckConcurrency > 100 {
		return fmt.Errorf("%w: got %d", errConcurrencyOutOfRange, c.CheckConcurrency)
	}

	if c.MaxPages < 1 {
		return fmt.Errorf("%w: got %d", errMaxPagesOutOfRange, c.MaxPages)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return v
}
