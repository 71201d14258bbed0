package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DatabaseURL string

	// срок хранения комнаты в сторе
	SessionTTL time.Duration
	// окно на реконнект; 0 - место освобождается сразу
	DisconnectGrace time.Duration
	// кто вправе перезапускать партию: any или first
	RestartPolicy string

	AllowedOrigin string
}

func Load() *Config {
	// .env опционален: в проде переменные приходят из окружения
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:            envOr("APP_PORT", "8080"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         envInt("REDIS_DB", 0),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SessionTTL:      envDuration("SESSION_TTL", 24*time.Hour),
		DisconnectGrace: envDuration("DISCONNECT_GRACE", 30*time.Second),
		RestartPolicy:   envOr("RESTART_POLICY", "any"),
		AllowedOrigin:   os.Getenv("ALLOWED_ORIGIN"),
	}

	if cfg.RestartPolicy != "any" && cfg.RestartPolicy != "first" {
		log.Printf("config: unknown RESTART_POLICY %q, falling back to any", cfg.RestartPolicy)
		cfg.RestartPolicy = "any"
	}

	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: bad %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: bad %s=%q, using %s", key, v, def)
		return def
	}
	return d
}
