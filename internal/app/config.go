package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/connector"
)

// Config holds application configuration from env
type Config struct {
	Exchanges    []string
	Credentials  map[string]connector.Credentials
	FetchTimeout time.Duration
	LogLevel     string // debug | info | warn | error
	HTTPAddr     string
	DataDir      string
	SaveFormat   string // csv | json | parquet
	WatchSymbols []string
	StreamEvery  time.Duration
}

// LoadConfig reads config from environment (.env honored when present).
// Per-exchange credentials come from <EXCHANGE>_API_KEY, _API_SECRET and
// _PASSPHRASE variables.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Exchanges:    splitList(getEnv("EXCHANGES", "binance,kucoin")),
		FetchTimeout: 10 * time.Second,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		DataDir:      getEnv("DATA_DIR", "data"),
		WatchSymbols: splitList(getEnv("WATCH_SYMBOLS", "BTC/USDT,ETH/USDT")),
		StreamEvery:  2 * time.Second,
	}
	cfg.SaveFormat = getSaveFormat()
	if ms := os.Getenv("FETCH_TIMEOUT_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			cfg.FetchTimeout = time.Duration(v) * time.Millisecond
		}
	}
	if ms := os.Getenv("STREAM_INTERVAL_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			cfg.StreamEvery = time.Duration(v) * time.Millisecond
		}
	}

	cfg.Credentials = make(map[string]connector.Credentials, len(cfg.Exchanges))
	for _, name := range cfg.Exchanges {
		prefix := strings.ToUpper(name)
		cfg.Credentials[name] = connector.Credentials{
			APIKey:     os.Getenv(prefix + "_API_KEY"),
			APISecret:  os.Getenv(prefix + "_API_SECRET"),
			Passphrase: os.Getenv(prefix + "_PASSPHRASE"),
			Timeout:    cfg.FetchTimeout,
		}
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getSaveFormat() string {
	if v := os.Getenv("SAVE_FORMAT"); v != "" {
		return v
	}
	switch os.Getenv("PROFILE") {
	case "dev", "development":
		return "csv"
	case "prod", "production", "":
		return "json"
	default:
		return "json"
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
