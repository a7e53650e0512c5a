package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL      string
	Port            string
	DBSource        string
	JWTSecret       string
	UpstreamTimeout time.Duration

	SMTPAddr   string // host:port, empty disables email
	SMTPFrom   string
	AdminEmail string
}

func LoadConfig() *Config {
	// .env is optional in container deployments; env vars win either way
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:      MustGetEnv("API_BASE_URL"),
		Port:            getEnv("PORT", "8000"),
		DBSource:        getEnv("DB_SOURCE", "cart.db"),
		JWTSecret:       getEnv("JWT_SECRET", "changeme"),
		UpstreamTimeout: time.Duration(getEnvInt("UPSTREAM_TIMEOUT", 30)) * time.Second,
		SMTPAddr:        os.Getenv("SMTP_ADDR"),
		SMTPFrom:        getEnv("SMTP_FROM", "noreply@ipponyari.local"),
		AdminEmail:      os.Getenv("ADMIN_EMAIL"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func MustGetEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing env: %s", key)
	}
	return v
}
