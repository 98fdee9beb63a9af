package permission

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/permission/entity"
)

// Store is implemented by repo.PermissionRepo.
type Store interface {
	List(ctx context.Context) ([]entity.Permission, error)
	Create(ctx context.Context, p *entity.Permission) error
	Delete(ctx context.Context, id int64) error
}

type Input struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Code, validation.Required, validation.Length(1, 128)),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 128)),
	)
}

type PermissionService struct {
	store  Store
	logger *zap.SugaredLogger
}

func NewPermissionService(store Store, logger *zap.SugaredLogger) *PermissionService {
	return &PermissionService{store: store, logger: logger}
}

func (s *PermissionService) List(ctx context.Context) ([]entity.Permission, error) {
	return s.store.List(ctx)
}

// Create registers a permission code. Codes are stored upper-cased.
func (s *PermissionService) Create(ctx context.Context, in Input) (*entity.Permission, error) {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	p := &entity.Permission{Code: in.Code, Name: in.Name}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Infow("permission created", "permission_id", p.ID, "code", p.Code)
	return p, nil
}

func (s *PermissionService) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}
