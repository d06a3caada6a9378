package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"slide_to_glory/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	DatabaseURL   string
	JWTSecret     string
	PublicURL     string
	AllowedOrigin string

	// Redis backs the HTTP rate limiter; empty addr disables it
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	APIRateLimit   int
	APIRateWindow  int
	AuthRateLimit  int
	AuthRateWindow int

	SessionIdleTTL time.Duration

	LogLevel string
	LogJSON  bool
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	publicURL := strings.TrimRight(os.Getenv("PUBLIC_URL"), "/")
	if publicURL == "" {
		publicURL = "http://localhost:" + port
	}

	return &Config{
		AppPort:        port,
		DatabaseURL:    dbURL,
		JWTSecret:      jwtSecret,
		PublicURL:      publicURL,
		AllowedOrigin:  os.Getenv("ALLOWED_ORIGIN"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        intEnv("REDIS_DB", 0),
		APIRateLimit:   intEnv("API_RATE_LIMIT", 120),
		APIRateWindow:  intEnv("API_RATE_WINDOW_SECONDS", 60),
		AuthRateLimit:  intEnv("AUTH_RATE_LIMIT", 10),
		AuthRateWindow: intEnv("AUTH_RATE_WINDOW_SECONDS", 60),
		SessionIdleTTL: time.Duration(intEnv("SESSION_IDLE_TTL_SECONDS", 3600)) * time.Second,
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogJSON:        os.Getenv("LOG_JSON") == "true",
	}
}

// intEnv reads a positive integer, falling back to def
func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn("ignoring invalid env value", "key", key, "value", v)
		return def
	}
	return n
}
