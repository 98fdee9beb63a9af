package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

const (
	purposeAccess   = "access"
	purposeRecovery = "recovery"
)

// Claims is the JWT payload. Admin is a snapshot taken at issuance and is
// never used for authorization.
type Claims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
	Admin   *bool  `json:"admin,omitempty"`

	userID int64
}

// UserID is the numeric subject of an access token.
func (c *Claims) UserID() int64 { return c.userID }

// TokenCodec signs and verifies HS256 tokens with the configured secret.
type TokenCodec struct {
	key         []byte
	ttl         time.Duration
	recoveryTTL time.Duration
	now         func() time.Time
}

func NewTokenCodec(cfg Config) *TokenCodec {
	return &TokenCodec{
		key:         []byte(cfg.SecretKey),
		ttl:         cfg.TokenTTL(),
		recoveryTTL: cfg.RecoveryTTL,
		now:         time.Now,
	}
}

// Encode issues an access token for u.
func (c *TokenCodec) Encode(u *entity.User) (string, error) {
	admin := u.Admin
	return c.sign(strconv.FormatInt(u.ID, 10), purposeAccess, c.ttl, &admin)
}

// EncodeRecovery issues a password recovery token whose subject is email.
func (c *TokenCodec) EncodeRecovery(email string) (string, error) {
	return c.sign(email, purposeRecovery, c.recoveryTTL, nil)
}

// Decode verifies an access token. It returns ErrExpiredToken only for tokens
// whose signature checks out; everything else is ErrInvalidToken.
func (c *TokenCodec) Decode(raw string) (*Claims, error) {
	claims, err := c.parse(raw, purposeAccess)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims.userID = id
	return claims, nil
}

// DecodeRecovery verifies a recovery token and returns its email subject.
func (c *TokenCodec) DecodeRecovery(raw string) (string, error) {
	claims, err := c.parse(raw, purposeRecovery)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *TokenCodec) sign(sub, purpose string, ttl time.Duration, admin *bool) (string, error) {
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Purpose: purpose,
		Admin:   admin,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

// parse checks the signature first and the expiry second, against c.now.
func (c *TokenCodec) parse(raw, purpose string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.Subject == "" || claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	if c.now().After(claims.ExpiresAt.Time) {
		return nil, ErrExpiredToken
	}
	return claims, nil
}
