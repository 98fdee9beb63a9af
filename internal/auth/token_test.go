package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// tamper changes one character in the middle of the payload segment.
func tamper(token string) string {
	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	i := len(payload) / 2
	if payload[i] == 'A' {
		payload[i] = 'B'
	} else {
		payload[i] = 'A'
	}
	parts[1] = string(payload)
	return strings.Join(parts, ".")
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	codec := NewTokenCodec(testConfig())
	u := &entity.User{ID: 1234567890123, Admin: true}

	token, err := codec.Encode(u)
	require.NoError(t, err)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID())
	assert.Equal(t, "1234567890123", claims.Subject)
	require.NotNil(t, claims.Admin)
	assert.True(t, *claims.Admin)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestEncode_UniqueTokenIDs(t *testing.T) {
	codec := NewTokenCodec(testConfig())
	u := &entity.User{ID: 1}
	a, err := codec.Encode(u)
	require.NoError(t, err)
	b, err := codec.Encode(u)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecode_TamperedToken(t *testing.T) {
	codec := NewTokenCodec(testConfig())
	token, err := codec.Encode(&entity.User{ID: 42})
	require.NoError(t, err)

	_, err = codec.Decode(tamper(token))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_ExpiredIsNotInvalid(t *testing.T) {
	cfg := testConfig()
	cfg.TokenDays = 0
	cfg.TokenSeconds = -10
	codec := NewTokenCodec(cfg)

	token, err := codec.Encode(&entity.User{ID: 42})
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_ExpiresWithClock(t *testing.T) {
	codec := NewTokenCodec(testConfig())
	token, err := codec.Encode(&entity.User{ID: 42})
	require.NoError(t, err)

	codec.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestDecode_ExpiredAndTamperedIsInvalid(t *testing.T) {
	cfg := testConfig()
	cfg.TokenDays = 0
	cfg.TokenSeconds = -10
	codec := NewTokenCodec(cfg)

	token, err := codec.Encode(&entity.User{ID: 42})
	require.NoError(t, err)

	_, err = codec.Decode(tamper(token))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_WrongSecret(t *testing.T) {
	token, err := NewTokenCodec(testConfig()).Encode(&entity.User{ID: 42})
	require.NoError(t, err)

	other := testConfig()
	other.SecretKey = "rotated"
	_, err = NewTokenCodec(other).Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_Garbage(t *testing.T) {
	codec := NewTokenCodec(testConfig())
	for _, raw := range []string{"", "Invalidtoken", "a.b.c", "a.b"} {
		_, err := codec.Decode(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestDecode_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Purpose: purposeAccess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenCodec(testConfig()).Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_RequiresExpiry(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "42"}, Purpose: purposeAccess}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenCodec(testConfig()).Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRecoveryToken_RoundTrip(t *testing.T) {
	codec := NewTokenCodec(testConfig())
	token, err := codec.EncodeRecovery("ada@example.com")
	require.NoError(t, err)

	email, err := codec.DecodeRecovery(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)
}

func TestTokenPurposesDoNotMix(t *testing.T) {
	codec := NewTokenCodec(testConfig())

	recovery, err := codec.EncodeRecovery("ada@example.com")
	require.NoError(t, err)
	_, err = codec.Decode(recovery)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := codec.Encode(&entity.User{ID: 42})
	require.NoError(t, err)
	_, err = codec.DecodeRecovery(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRecoveryToken_Expires(t *testing.T) {
	codec := NewTokenCodec(testConfig())
	token, err := codec.EncodeRecovery("ada@example.com")
	require.NoError(t, err)

	codec.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = codec.DecodeRecovery(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
