package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/group/entity"
	permentity "github.com/ovaphlow/pitchfork/service-identity-go/internal/permission/entity"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/utilities"
)

// GroupRepo provides data access for groups and their membership tables.
type GroupRepo struct {
	db  *sqlx.DB
	ids *utilities.IDGenerator
}

func NewGroupRepo(db *sqlx.DB, ids *utilities.IDGenerator) *GroupRepo {
	return &GroupRepo{db: db, ids: ids}
}

func (r *GroupRepo) List(ctx context.Context) ([]entity.Group, error) {
	groups := []entity.Group{}
	if err := r.db.SelectContext(ctx, &groups, `SELECT id, name FROM groups ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (r *GroupRepo) GetByID(ctx context.Context, id int64) (*entity.Group, error) {
	var g entity.Group
	if err := r.db.GetContext(ctx, &g, `SELECT id, name FROM groups WHERE id=$1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("not found")
		}
		return nil, fmt.Errorf("get group %d: %w", id, err)
	}
	return &g, nil
}

func (r *GroupRepo) Create(ctx context.Context, g *entity.Group) error {
	g.ID = r.ids.Next()
	if _, err := r.db.NamedExecContext(ctx, `INSERT INTO groups (id, name) VALUES (:id, :name)`, g); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (r *GroupRepo) Update(ctx context.Context, g *entity.Group) error {
	res, err := r.db.NamedExecContext(ctx, `UPDATE groups SET name=:name WHERE id=:id`, g)
	if err != nil {
		return fmt.Errorf("update group %d: %w", g.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("not found")
	}
	return nil
}

// Delete removes the group. Membership rows go with it via ON DELETE CASCADE.
func (r *GroupRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete group %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("not found")
	}
	return nil
}

func (r *GroupRepo) ListUsers(ctx context.Context, groupID int64) ([]entity.Member, error) {
	members := []entity.Member{}
	const q = `SELECT u.id, u.first_name, u.last_name, u.email
		FROM group_users gu JOIN users u ON u.id = gu.user_id
		WHERE gu.group_id=$1 ORDER BY u.id`
	if err := r.db.SelectContext(ctx, &members, q, groupID); err != nil {
		return nil, fmt.Errorf("list group %d users: %w", groupID, err)
	}
	return members, nil
}

// AddUser is idempotent. A missing group or user yields NotFound.
func (r *GroupRepo) AddUser(ctx context.Context, groupID, userID int64) error {
	const q = `INSERT INTO group_users (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, q, groupID, userID); err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.NotFound("not found")
		}
		return fmt.Errorf("add user %d to group %d: %w", userID, groupID, err)
	}
	return nil
}

func (r *GroupRepo) RemoveUser(ctx context.Context, groupID, userID int64) error {
	const q = `DELETE FROM group_users WHERE group_id=$1 AND user_id=$2`
	if _, err := r.db.ExecContext(ctx, q, groupID, userID); err != nil {
		return fmt.Errorf("remove user %d from group %d: %w", userID, groupID, err)
	}
	return nil
}

func (r *GroupRepo) ListPermissions(ctx context.Context, groupID int64) ([]permentity.Permission, error) {
	perms := []permentity.Permission{}
	const q = `SELECT p.id, p.code, p.name
		FROM group_permissions gp JOIN permissions p ON p.id = gp.permission_id
		WHERE gp.group_id=$1 ORDER BY p.code`
	if err := r.db.SelectContext(ctx, &perms, q, groupID); err != nil {
		return nil, fmt.Errorf("list group %d permissions: %w", groupID, err)
	}
	return perms, nil
}

// AddPermission attaches the permission with the given code. Unknown codes
// and groups yield NotFound.
func (r *GroupRepo) AddPermission(ctx context.Context, groupID int64, code string) error {
	var permID int64
	if err := r.db.GetContext(ctx, &permID, `SELECT id FROM permissions WHERE code=$1`, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("not found")
		}
		return fmt.Errorf("lookup permission %q: %w", code, err)
	}
	const q = `INSERT INTO group_permissions (group_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, q, groupID, permID); err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.NotFound("not found")
		}
		return fmt.Errorf("add permission %q to group %d: %w", code, groupID, err)
	}
	return nil
}

func (r *GroupRepo) RemovePermission(ctx context.Context, groupID int64, code string) error {
	const q = `DELETE FROM group_permissions gp USING permissions p
		WHERE gp.permission_id = p.id AND gp.group_id=$1 AND p.code=$2`
	if _, err := r.db.ExecContext(ctx, q, groupID, code); err != nil {
		return fmt.Errorf("remove permission %q from group %d: %w", code, groupID, err)
	}
	return nil
}

type groupPermissionRow struct {
	GroupID   int64          `db:"group_id"`
	GroupName string         `db:"group_name"`
	PermID    sql.NullInt64  `db:"permission_id"`
	PermCode  sql.NullString `db:"permission_code"`
	PermName  sql.NullString `db:"permission_name"`
}

// ListForUser returns every group userID belongs to, each with its
// permissions attached. Groups without permissions are included.
func (r *GroupRepo) ListForUser(ctx context.Context, userID int64) ([]entity.Group, error) {
	const q = `SELECT g.id AS group_id, g.name AS group_name,
			p.id AS permission_id, p.code AS permission_code, p.name AS permission_name
		FROM group_users gu
		JOIN groups g ON g.id = gu.group_id
		LEFT JOIN group_permissions gp ON gp.group_id = g.id
		LEFT JOIN permissions p ON p.id = gp.permission_id
		WHERE gu.user_id=$1
		ORDER BY g.id, p.code`
	var rows []groupPermissionRow
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, fmt.Errorf("list groups for user %d: %w", userID, err)
	}

	groups := []entity.Group{}
	index := map[int64]int{}
	for _, row := range rows {
		i, ok := index[row.GroupID]
		if !ok {
			groups = append(groups, entity.Group{ID: row.GroupID, Name: row.GroupName})
			i = len(groups) - 1
			index[row.GroupID] = i
		}
		if row.PermID.Valid {
			groups[i].Permissions = append(groups[i].Permissions, permentity.Permission{
				ID:   row.PermID.Int64,
				Code: row.PermCode.String,
				Name: row.PermName.String,
			})
		}
	}
	return groups, nil
}
