package auth

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxTokenDays    = 3650
	maxTokenSeconds = maxTokenDays * 24 * 60 * 60
)

// Config is built once at startup and never mutated.
type Config struct {
	SecretKey string

	// TokenDays and TokenSeconds add up to the access token lifetime.
	// Negative seconds produce tokens that are already expired.
	TokenDays    int
	TokenSeconds int
	RecoveryTTL  time.Duration
	BcryptCost   int

	RecoveryURL     string
	MailSender      string
	RecoverySubject string
}

// ConfigFromEnv reads auth config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		SecretKey:       os.Getenv("SECRET_KEY"),
		TokenDays:       envInt("TOKEN_EXPIRATION_DAYS", 30),
		TokenSeconds:    envInt("TOKEN_EXPIRATION_SECONDS", 0),
		RecoveryTTL:     time.Duration(envInt("RECOVERY_TOKEN_EXPIRATION_SECONDS", 3600)) * time.Second,
		BcryptCost:      envInt("BCRYPT_LOG_ROUNDS", 13),
		RecoveryURL:     envString("PASSWORD_RECOVERY_URL", "http://localhost:3000/password-recovery"),
		MailSender:      envString("MAILER_SENDER", "no-reply@localhost"),
		RecoverySubject: envString("PASSWORD_RECOVERY_SUBJECT", "Password recovery"),
	}
}

// TokenTTL is the access token lifetime.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenDays)*24*time.Hour + time.Duration(c.TokenSeconds)*time.Second
}

func (c Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_LOG_ROUNDS must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if c.TokenDays < 0 || c.TokenDays > maxTokenDays {
		return fmt.Errorf("TOKEN_EXPIRATION_DAYS must be between 0 and %d, got %d", maxTokenDays, c.TokenDays)
	}
	if c.TokenSeconds < -maxTokenSeconds || c.TokenSeconds > maxTokenSeconds {
		return fmt.Errorf("TOKEN_EXPIRATION_SECONDS must be within ±%d, got %d", maxTokenSeconds, c.TokenSeconds)
	}
	if c.RecoveryTTL <= 0 {
		return errors.New("RECOVERY_TOKEN_EXPIRATION_SECONDS must be positive")
	}
	return nil
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
