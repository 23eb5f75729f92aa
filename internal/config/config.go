package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port              string
	AnalysisBaseURL   string
	MarketDataBaseURL string
	RedisURL          string
	CacheTTLNews      time.Duration
	CacheTTLIndex     time.Duration
	CacheTTLHolidays  time.Duration
	FetchTimeout      time.Duration
	RequestTimeout    time.Duration
	AnalysisTimeout   time.Duration
	NewsLookback      time.Duration
	StreamInterval    time.Duration
	RateLimitPerMin   int
	CircuitFailLimit  int
	CircuitCooldown   time.Duration
	MaxSymbols        int
}

func Load() Config {
	return Config{
		Port:              getEnv("PORT", "8080"),
		AnalysisBaseURL:   getEnv("ANALYSIS_BASE_URL", "http://localhost:8001"),
		MarketDataBaseURL: getEnv("MARKET_DATA_BASE_URL", "http://localhost:8002"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379"),
		CacheTTLNews:      getEnvDuration("CACHE_TTL_NEWS", time.Hour),
		CacheTTLIndex:     getEnvDuration("CACHE_TTL_INDEX", 5*time.Minute),
		CacheTTLHolidays:  getEnvDuration("CACHE_TTL_HOLIDAYS", time.Hour),
		FetchTimeout:      getEnvDuration("NEWS_FETCH_TIMEOUT", 10*time.Second),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		AnalysisTimeout:   getEnvDuration("ANALYSIS_TIMEOUT", 75*time.Second),
		NewsLookback:      getEnvDuration("NEWS_LOOKBACK", 7*24*time.Hour),
		StreamInterval:    getEnvDuration("STREAM_INTERVAL", 60*time.Second),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MIN", 120),
		CircuitFailLimit:  getEnvInt("CIRCUIT_FAIL_LIMIT", 3),
		CircuitCooldown:   getEnvDuration("CIRCUIT_COOLDOWN", 20*time.Second),
		MaxSymbols:        getEnvInt("MAX_SYMBOLS", 30),
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(i) * time.Second
}
