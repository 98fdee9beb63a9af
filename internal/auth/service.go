package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/mailer"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// StatusView is the payload of GET /auth/status.
type StatusView struct {
	ID          int64      `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Active      bool       `json:"active"`
	Admin       bool       `json:"admin"`
	Expiration  *time.Time `json:"expiration"`
	Permissions []string   `json:"permissions"`
}

// Service runs the login, status and password recovery flows.
type Service struct {
	cfg      Config
	users    UserStore
	hasher   PasswordHasher
	codec    *TokenCodec
	resolver *Resolver
	mail     mailer.Sender
	logger   *zap.SugaredLogger
}

func NewService(cfg Config, users UserStore, hasher PasswordHasher, codec *TokenCodec, resolver *Resolver, mail mailer.Sender, logger *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, users: users, hasher: hasher, codec: codec, resolver: resolver, mail: mail, logger: logger}
}

// Login exchanges credentials for an access token. Unknown emails are
// NotFound; a wrong password is InvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetActiveByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", err
	}
	if !u.Enabled(s.codec.now()) {
		return "", apperr.Forbidden("forbidden")
	}
	if !s.hasher.Verify(u.Password, password) {
		s.logger.Debugw("login rejected", "user_id", u.ID)
		return "", apperr.InvalidCredentials("invalid login data")
	}
	return s.codec.Encode(u)
}

func (s *Service) Status(ctx context.Context, u *entity.User) (*StatusView, error) {
	perms, err := s.resolver.Resolve(ctx, u)
	if err != nil {
		return nil, err
	}
	return &StatusView{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Active:      u.Active,
		Admin:       u.Admin,
		Expiration:  u.Expiration,
		Permissions: perms.Sorted(),
	}, nil
}

// RecoverPassword mails a recovery link to an enabled user. It never reports
// failure, so callers cannot learn whether the email exists.
func (s *Service) RecoverPassword(ctx context.Context, email string) {
	email = normalizeEmail(email)
	u, err := s.users.GetActiveByEmail(ctx, email)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			s.logger.Errorw("password recovery lookup failed", "err", err)
		}
		return
	}
	if !u.Enabled(s.codec.now()) {
		return
	}

	token, err := s.codec.EncodeRecovery(u.Email)
	if err != nil {
		s.logger.Errorw("password recovery token failed", "user_id", u.ID, "err", err)
		return
	}
	body, err := mailer.RecoveryBody(mailer.RecoveryData{
		Name:      strings.TrimSpace(u.FirstName + " " + u.LastName),
		Link:      recoveryLink(s.cfg.RecoveryURL, token),
		ExpiresIn: s.cfg.RecoveryTTL.String(),
	})
	if err != nil {
		s.logger.Errorw("password recovery body failed", "user_id", u.ID, "err", err)
		return
	}

	msg := mailer.Message{
		To:      []string{u.Email},
		From:    s.cfg.MailSender,
		Subject: s.cfg.RecoverySubject,
		Body:    body,
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Warnw("password recovery mail failed", "user_id", u.ID, "err", err)
		return
	}
	s.logger.Infow("password recovery mail sent", "user_id", u.ID)
}

// ChangePassword sets a new password for the subject of a recovery token.
func (s *Service) ChangePassword(ctx context.Context, token, password string) error {
	email, err := s.codec.DecodeRecovery(token)
	if err != nil {
		return tokenError(err)
	}
	u, err := s.users.GetActiveByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, u.ID, hash)
}

func tokenError(err error) error {
	if errors.Is(err, ErrExpiredToken) {
		return apperr.Unauthenticated("expired token")
	}
	return apperr.Unauthenticated("invalid token")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func recoveryLink(base, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}
