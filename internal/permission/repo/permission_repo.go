package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/permission/entity"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/utilities"
)

// PermissionRepo provides data access for the permissions table.
type PermissionRepo struct {
	db  *sqlx.DB
	ids *utilities.IDGenerator
}

func NewPermissionRepo(db *sqlx.DB, ids *utilities.IDGenerator) *PermissionRepo {
	return &PermissionRepo{db: db, ids: ids}
}

func (r *PermissionRepo) List(ctx context.Context) ([]entity.Permission, error) {
	perms := []entity.Permission{}
	if err := r.db.SelectContext(ctx, &perms, `SELECT id, code, name FROM permissions ORDER BY code`); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

// Create inserts p. A code already in use yields Conflict.
func (r *PermissionRepo) Create(ctx context.Context, p *entity.Permission) error {
	p.ID = r.ids.Next()
	const q = `INSERT INTO permissions (id, code, name) VALUES (:id, :code, :name)`
	if _, err := r.db.NamedExecContext(ctx, q, p); err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("duplicate permission", err)
		}
		return fmt.Errorf("create permission: %w", err)
	}
	return nil
}

// Delete removes the permission and, by cascade, its group attachments.
func (r *PermissionRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM permissions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete permission %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("not found")
	}
	return nil
}
