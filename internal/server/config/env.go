package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file in
// the working directory is loaded first if present; a missing file is not an
// error. Empty or malformed values leave the current setting untouched.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("ENDPOINT_ADDR"); v != "" {
		config.EndpointAddr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		config.SecretKey = v
	}
	if v := os.Getenv("SESSION_TOKEN_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.SessionTokenValidityDuration = d
		}
	}
	if v := os.Getenv("RESET_TOKEN_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.ResetTokenValidityDuration = d
		}
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = n
		}
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		config.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.SMTPPort = n
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		config.SMTPUser = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		config.SMTPPassword = v
	}
	if v := os.Getenv("MAIL_FROM"); v != "" {
		config.MailFrom = v
	}
	if v := os.Getenv("RESET_BASE_URL"); v != "" {
		config.ResetBaseURL = v
	}
}
