package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds the runtime configuration loaded from environment variables.
type Config struct {
	Env             string
	Port            string
	MongoURI        string
	DBName          string
	RedisAddr       string
	CacheTTL        time.Duration
	JWTSecret       string
	JWTIssuer       string
	TokenTTL        time.Duration
	AdminEmail      string
	AdminPassword   string
	RateLimitPerMin int
	LogLevel        string
	LogFormat       string
}

// Load returns config populated from environment variables with development
// defaults.
func Load() Config {
	return Config{
		Env:             getEnv("APP_ENV", "dev"),
		Port:            getEnv("PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:          getEnv("DB_NAME", "timetable"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		CacheTTL:        durationEnv("CACHE_TTL", 5*time.Minute),
		JWTSecret:       getEnv("JWT_SECRET", "dev-signing-secret-change"),
		JWTIssuer:       getEnv("JWT_ISSUER", "timetable-service"),
		TokenTTL:        durationEnv("TOKEN_TTL", 24*time.Hour),
		AdminEmail:      getEnv("ADMIN_EMAIL", "admin@institute.edu"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Printf("invalid int for %s, using fallback %d", key, fallback)
			return fallback
		}
		return parsed
	}
	return fallback
}
