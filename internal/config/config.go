package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	Port    string
	Backend string // memory | sqlite, decided once at startup
	DBDSN   string
	LogFile string

	JWTSecret string
	TokenTTL  time.Duration

	OTPTTL         time.Duration
	OTPCooldown    time.Duration
	OTPMaxAttempts int
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	backend := os.Getenv("STORE_BACKEND")
	if backend != BackendSQLite {
		backend = BackendMemory
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "loomline.db" // sqlite file in project root
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-only-secret-change-me"
		log.Printf("[config] JWT_SECRET not set, using insecure dev default")
	}
	logFile := os.Getenv("LOG_FILE")

	cfg := Config{
		Port:           port,
		Backend:        backend,
		DBDSN:          dsn,
		LogFile:        logFile,
		JWTSecret:      secret,
		TokenTTL:       durEnv("TOKEN_TTL", 24*time.Hour),
		OTPTTL:         durEnv("OTP_TTL", 5*time.Minute),
		OTPCooldown:    durEnv("OTP_RESEND_COOLDOWN", 45*time.Second),
		OTPMaxAttempts: intEnv("OTP_MAX_ATTEMPTS", 5),
	}
	log.Printf("[config] PORT=%s STORE_BACKEND=%s DB_DSN=%s OTP_TTL=%s", cfg.Port, cfg.Backend, cfg.DBDSN, cfg.OTPTTL)
	return cfg
}

func durEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		log.Printf("[config] ignoring bad %s=%q", key, v)
	}
	return def
}

func intEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("[config] ignoring bad %s=%q", key, v)
	}
	return def
}
