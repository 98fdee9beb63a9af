package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// UserStore is the slice of the user repository the auth flows need. Lookups
// return an apperr NotFound error for absent rows.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetActiveByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// AuthedHandler is an http handler that receives the authenticated user.
type AuthedHandler func(w http.ResponseWriter, r *http.Request, actor *entity.User)

// Gate turns AuthedHandlers into http.Handlers guarded by bearer token
// authentication and, optionally, a required permission set.
type Gate struct {
	codec    *TokenCodec
	users    UserStore
	resolver *Resolver
	logger   *zap.SugaredLogger
}

func NewGate(codec *TokenCodec, users UserStore, resolver *Resolver, logger *zap.SugaredLogger) *Gate {
	return &Gate{codec: codec, users: users, resolver: resolver, logger: logger}
}

// Authenticate only requires a valid token for a live user.
func (g *Gate) Authenticate(next AuthedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := g.authenticate(r)
		if err != nil {
			apperr.WriteError(w, g.logger, err)
			return
		}
		next(w, r, actor)
	})
}

// Authorize authenticates first, then requires every code in required.
func (g *Gate) Authorize(required []string, next AuthedHandler) http.Handler {
	set := NewPermissionSet(required...)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := g.authenticate(r)
		if err != nil {
			apperr.WriteError(w, g.logger, err)
			return
		}
		ok, err := g.resolver.IsAuthorized(r.Context(), actor, set)
		if err != nil {
			apperr.WriteError(w, g.logger, err)
			return
		}
		if !ok {
			g.logger.Debugw("permission denied", "user_id", actor.ID, "required", required)
			apperr.WriteError(w, g.logger, apperr.Forbidden("forbidden"))
			return
		}
		next(w, r, actor)
	})
}

func (g *Gate) authenticate(r *http.Request) (*entity.User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, apperr.Unauthenticated("missing token")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return nil, apperr.Unauthenticated("malformed authorization header")
	}

	claims, err := g.codec.Decode(parts[1])
	if err != nil {
		return nil, tokenError(err)
	}

	u, err := g.users.GetByID(r.Context(), claims.UserID())
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			g.logger.Debugw("token subject not found", "user_id", claims.UserID())
			return nil, apperr.Forbidden("forbidden")
		}
		return nil, err
	}
	if !u.Enabled(g.codec.now()) {
		g.logger.Debugw("disabled user presented token", "user_id", u.ID)
		return nil, apperr.Forbidden("forbidden")
	}
	return u, nil
}
