package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"promptmatch/internal/logger"

	"github.com/joho/godotenv"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	AppPort  string
	LogLevel string
	LogJSON  bool

	JWTSecret string
	TokenTTL  time.Duration

	// Shared store
	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	MatchTTL      time.Duration
	NATSURL       string

	// Optional match history
	DatabaseURL string

	// Presentation pacing and limits
	EvalDelay     time.Duration
	AllowedOrigin string
	APIRateLimit  int
	APIRateWindow time.Duration
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisAddr := os.Getenv("REDIS_ADDR")

	backend := strings.ToLower(os.Getenv("STORE_BACKEND"))
	switch backend {
	case "":
		backend = StoreMemory
		if redisAddr != "" {
			backend = StoreRedis
		}
	case StoreRedis:
		if redisAddr == "" {
			logger.Fatal("STORE_BACKEND=redis requires REDIS_ADDR")
		}
	case StoreMemory:
	default:
		logger.Fatal("unknown STORE_BACKEND", "value", backend)
	}

	prefix := os.Getenv("REDIS_PREFIX")
	if prefix == "" {
		prefix = "promptmatch"
	}

	return &Config{
		AppPort:       port,
		LogLevel:      os.Getenv("LOG_LEVEL"),
		LogJSON:       os.Getenv("LOG_JSON") == "true",
		JWTSecret:     jwtSecret,
		TokenTTL:      time.Duration(intEnv("TOKEN_TTL_HOURS", 24)) * time.Hour,
		StoreBackend:  backend,
		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       intEnv("REDIS_DB", 0),
		RedisPrefix:   prefix,
		MatchTTL:      time.Duration(intEnv("MATCH_TTL_HOURS", 0)) * time.Hour,
		NATSURL:       os.Getenv("NATS_URL"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		EvalDelay:     time.Duration(intEnv("EVAL_DELAY_MS", 1000)) * time.Millisecond,
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		APIRateLimit:  intEnv("API_RATE_LIMIT", 120),
		APIRateWindow: time.Duration(intEnv("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}
}

// intEnv returns the integer value of key, or def when unset or not a
// non-negative integer.
func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		logger.Warn("ignoring invalid integer setting", "key", key, "value", v)
		return def
	}
	return n
}
