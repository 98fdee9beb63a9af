package user

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// Store is implemented by repo.UserRepo.
type Store interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
	ListAdmins(ctx context.Context) ([]entity.User, error)
	Create(ctx context.Context, u *entity.User, groupIDs []int64) error
	Update(ctx context.Context, u *entity.User, groupIDs []int64) error
	SetActive(ctx context.Context, id int64, active bool, by int64) error
}

// PasswordHasher defines the hashing side needed to create users.
type PasswordHasher interface {
	Hash(pw string) (string, error)
}

// UserService runs user lifecycle operations on behalf of an actor.
type UserService struct {
	store  Store
	hasher PasswordHasher
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewUserService(store Store, hasher PasswordHasher, logger *zap.SugaredLogger) *UserService {
	return &UserService{store: store, hasher: hasher, logger: logger, now: time.Now}
}

var errGrantAdmin = apperr.Unauthorized("only admins can change the admin flag")

func (s *UserService) List(ctx context.Context) ([]entity.User, error) {
	return s.store.List(ctx)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]entity.User, error) {
	return s.store.ListAdmins(ctx)
}

func (s *UserService) GetByIDs(ctx context.Context, ids []int64) ([]entity.User, error) {
	return s.store.GetByIDs(ctx, ids)
}

func (s *UserService) Get(ctx context.Context, id int64) (*entity.User, error) {
	return s.store.GetByID(ctx, id)
}

// Create registers a new user created by actor. Only admins may create
// admins.
func (s *UserService) Create(ctx context.Context, actor *entity.User, in CreateInput) (*entity.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := in.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	if in.Admin && !actor.Admin {
		return nil, errGrantAdmin
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	u := &entity.User{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      in.Email,
		Password:   hash,
		Active:     active,
		Admin:      in.Admin,
		Expiration: in.Expiration,
		Created:    s.now().UTC(),
		CreatedBy:  actor.ID,
	}
	if err := s.store.Create(ctx, u, in.GroupIDs); err != nil {
		return nil, err
	}
	s.logger.Infow("user created", "user_id", u.ID, "created_by", actor.ID)
	return u, nil
}

// Update replaces the editable fields of user id. A non-nil GroupIDs replaces
// the membership wholesale.
func (s *UserService) Update(ctx context.Context, actor *entity.User, id int64, in UpdateInput) (*entity.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := in.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Admin != nil && *in.Admin != u.Admin && !actor.Admin {
		return nil, errGrantAdmin
	}

	u.FirstName = strings.TrimSpace(in.FirstName)
	u.LastName = strings.TrimSpace(in.LastName)
	u.Email = in.Email
	u.Expiration = in.Expiration
	if in.Admin != nil {
		u.Admin = *in.Admin
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	now := s.now().UTC()
	u.Updated = &now
	u.UpdatedBy = &actor.ID

	if err := s.store.Update(ctx, u, in.GroupIDs); err != nil {
		return nil, err
	}
	s.logger.Infow("user updated", "user_id", u.ID, "updated_by", actor.ID, "groups_replaced", in.GroupIDs != nil)
	return u, nil
}

// SetActive activates or deactivates user id. Users are never hard-deleted.
func (s *UserService) SetActive(ctx context.Context, actor *entity.User, id int64, active bool) (*entity.User, error) {
	if err := s.store.SetActive(ctx, id, active, actor.ID); err != nil {
		return nil, err
	}
	s.logger.Infow("user active changed", "user_id", id, "active", active, "by", actor.ID)
	return s.store.GetByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
