package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr        string
	RequestTimeout  time.Duration
	LogLevel        string
	LogFormat       string
	UserAgent       string
	TMDBAPIKey      string
	TMDBBaseURL     string
	MongoURI        string
	MongoDB         string
	RedisURL        string
	CacheTTL        time.Duration
	CacheDisabled   bool
	DebouncePeriod  time.Duration
	ScrollThreshold int
	TrendingLimit   int
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		RequestTimeout:  time.Duration(getEnvInt("CATALOG_TIMEOUT_SECONDS", 10)) * time.Second,
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
		UserAgent:       getEnv("CATALOG_USER_AGENT", "movie-discovery/1.0"),
		TMDBAPIKey:      strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		TMDBBaseURL:     getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDB:         getEnv("MONGO_DB", "movieapp"),
		RedisURL:        getEnv("REDIS_URL", ""),
		CacheTTL:        time.Duration(getEnvInt("CATALOG_CACHE_TTL_MINUTES", 10)) * time.Minute,
		CacheDisabled:   getEnvBool("CATALOG_CACHE_DISABLED", false),
		DebouncePeriod:  time.Duration(getEnvInt("SEARCH_DEBOUNCE_MS", 500)) * time.Millisecond,
		ScrollThreshold: getEnvInt("SCROLL_THRESHOLD_PX", 300),
		TrendingLimit:   getEnvInt("TRENDING_LIMIT", 10),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
