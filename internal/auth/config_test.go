package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"SECRET_KEY", "TOKEN_EXPIRATION_DAYS", "TOKEN_EXPIRATION_SECONDS",
		"RECOVERY_TOKEN_EXPIRATION_SECONDS", "BCRYPT_LOG_ROUNDS", "PASSWORD_RECOVERY_URL", "MAILER_SENDER"} {
		t.Setenv(k, "")
	}
	cfg := ConfigFromEnv()
	assert.Equal(t, 30, cfg.TokenDays)
	assert.Equal(t, 0, cfg.TokenSeconds)
	assert.Equal(t, time.Hour, cfg.RecoveryTTL)
	assert.Equal(t, 13, cfg.BcryptCost)
	assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL())
	assert.Error(t, cfg.Validate())
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "k")
	t.Setenv("TOKEN_EXPIRATION_DAYS", "0")
	t.Setenv("TOKEN_EXPIRATION_SECONDS", "3")
	t.Setenv("BCRYPT_LOG_ROUNDS", "4")

	cfg := ConfigFromEnv()
	assert.Equal(t, 3*time.Second, cfg.TokenTTL())
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	cfg.BcryptCost = 2
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.SecretKey = ""
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.TokenSeconds = -10
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate_TokenLifetimeBounds(t *testing.T) {
	cfg := testConfig()
	cfg.TokenDays = 200000
	assert.Error(t, cfg.Validate())

	cfg.TokenDays = -1
	assert.Error(t, cfg.Validate())

	cfg.TokenDays = maxTokenDays
	require.NoError(t, cfg.Validate())
	assert.Positive(t, cfg.TokenTTL())

	cfg = testConfig()
	cfg.TokenSeconds = maxTokenSeconds + 1
	assert.Error(t, cfg.Validate())
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: 4}
	digest, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", digest)
	assert.True(t, h.Verify(digest, "s3cret"))
	assert.False(t, h.Verify(digest, "other"))
	assert.False(t, h.Verify("not-a-digest", "s3cret"))
}
