package group

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/group/entity"
	permentity "github.com/ovaphlow/pitchfork/service-identity-go/internal/permission/entity"
)

// Store is implemented by repo.GroupRepo.
type Store interface {
	List(ctx context.Context) ([]entity.Group, error)
	GetByID(ctx context.Context, id int64) (*entity.Group, error)
	Create(ctx context.Context, g *entity.Group) error
	Update(ctx context.Context, g *entity.Group) error
	Delete(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, groupID int64) ([]entity.Member, error)
	AddUser(ctx context.Context, groupID, userID int64) error
	RemoveUser(ctx context.Context, groupID, userID int64) error
	ListPermissions(ctx context.Context, groupID int64) ([]permentity.Permission, error)
	AddPermission(ctx context.Context, groupID int64, code string) error
	RemovePermission(ctx context.Context, groupID int64, code string) error
}

type Input struct {
	Name string `json:"name"`
}

func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 128)),
	)
}

type MemberInput struct {
	UserID int64 `json:"user_id"`
}

func (in MemberInput) Validate() error {
	return validation.ValidateStruct(&in, validation.Field(&in.UserID, validation.Required))
}

type PermissionInput struct {
	Code string `json:"code"`
}

func (in PermissionInput) Validate() error {
	return validation.ValidateStruct(&in, validation.Field(&in.Code, validation.Required))
}

// GroupService manages groups and their membership. Membership edits are
// plain read-modify-write against the store.
type GroupService struct {
	store  Store
	logger *zap.SugaredLogger
}

func NewGroupService(store Store, logger *zap.SugaredLogger) *GroupService {
	return &GroupService{store: store, logger: logger}
}

func (s *GroupService) List(ctx context.Context) ([]entity.Group, error) {
	return s.store.List(ctx)
}

func (s *GroupService) Create(ctx context.Context, in Input) (*entity.Group, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	g := &entity.Group{Name: strings.TrimSpace(in.Name)}
	if err := s.store.Create(ctx, g); err != nil {
		return nil, err
	}
	s.logger.Infow("group created", "group_id", g.ID)
	return g, nil
}

func (s *GroupService) Update(ctx context.Context, id int64, in Input) (*entity.Group, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	g := &entity.Group{ID: id, Name: strings.TrimSpace(in.Name)}
	if err := s.store.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Delete removes the group and its memberships; users and permissions stay.
func (s *GroupService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("group deleted", "group_id", id)
	return nil
}

func (s *GroupService) Users(ctx context.Context, id int64) ([]entity.Member, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, id)
}

func (s *GroupService) AddUser(ctx context.Context, id int64, in MemberInput) ([]entity.Member, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	if err := s.store.AddUser(ctx, id, in.UserID); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, id)
}

func (s *GroupService) RemoveUser(ctx context.Context, id, userID int64) ([]entity.Member, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.store.RemoveUser(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, id)
}

func (s *GroupService) Permissions(ctx context.Context, id int64) ([]permentity.Permission, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListPermissions(ctx, id)
}

func (s *GroupService) AddPermission(ctx context.Context, id int64, in PermissionInput) ([]permentity.Permission, error) {
	in.Code = normalizeCode(in.Code)
	if err := in.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	if err := s.store.AddPermission(ctx, id, in.Code); err != nil {
		return nil, err
	}
	return s.store.ListPermissions(ctx, id)
}

func (s *GroupService) RemovePermission(ctx context.Context, id int64, code string) ([]permentity.Permission, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.store.RemovePermission(ctx, id, normalizeCode(code)); err != nil {
		return nil, err
	}
	return s.store.ListPermissions(ctx, id)
}

// normalizeCode matches the upper-cased form permissions are stored in.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
