package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	SessionSecret string
	SiteURL       string
	UploadDir     string
	TemplatesDir  string
	GinMode       string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

// Load reads .env (if any) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading config from environment")
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=postly port=5432 sslmode=disable"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		SiteURL:       getEnv("SITE_URL", "http://localhost:8080"),
		UploadDir:     getEnv("UPLOAD_DIR", "./web/static/uploads"),
		TemplatesDir:  getEnv("TEMPLATES_DIR", "./web/templates"),
		GinMode:       getEnv("GIN_MODE", ""),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: os.Getenv("SMTP_PORT"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),
	}

	if cfg.SessionSecret == "" {
		log.Println("⚠️ SESSION_SECRET not set, using an insecure development secret")
		cfg.SessionSecret = "secret_key_change_me"
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
