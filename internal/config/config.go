// Package config reads estoque settings from the environment once at start.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const defaultAPIURL = "http://localhost:8080/api"

// Config is immutable after Load.
type Config struct {
	APIURL string

	// Home holds the cookie file and the default log file.
	Home       string
	CookieFile string

	LogFile  string
	LogLevel string

	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables
	RateBurst int

	MetricsAddr string
}

// Load reads the ESTOQUE_* variables and applies defaults.
func Load() (*Config, error) {
	home := os.Getenv("ESTOQUE_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		home = filepath.Join(userHome, ".estoque")
	}

	cfg := &Config{
		APIURL:      strings.TrimRight(getEnvString("ESTOQUE_API_URL", defaultAPIURL), "/"),
		Home:        home,
		CookieFile:  filepath.Join(home, "cookies.json"),
		LogFile:     getEnvString("ESTOQUE_LOG_FILE", filepath.Join(home, "estoque.log")),
		LogLevel:    getEnvString("ESTOQUE_LOG_LEVEL", "info"),
		Timeout:     getEnvDuration("ESTOQUE_TIMEOUT", 30*time.Second),
		RateLimit:   getEnvFloat("ESTOQUE_RATE_LIMIT", 0),
		RateBurst:   getEnvInt("ESTOQUE_RATE_BURST", 10),
		MetricsAddr: getEnvString("ESTOQUE_METRICS_ADDR", ""),
	}

	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return nil, fmt.Errorf("ESTOQUE_API_URL must be an http(s) URL, got %q", cfg.APIURL)
	}
	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
