package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/utilities"
)

const userColumns = `id, first_name, last_name, email, password, active, admin, expiration,
	created, created_by, updated, updated_by`

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db  *sqlx.DB
	ids *utilities.IDGenerator
}

func NewUserRepo(db *sqlx.DB, ids *utilities.IDGenerator) *UserRepo {
	return &UserRepo{db: db, ids: ids}
}

// GetByID fetches a user regardless of status.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id=$1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("not found")
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

// GetActiveByEmail looks up an active user by lower-cased email.
func (r *UserRepo) GetActiveByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	const q = `SELECT ` + userColumns + ` FROM users WHERE email=$1 AND active=true`
	if err := r.db.GetContext(ctx, &u, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("not found")
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// GetByIDs returns the users among ids that exist, ordered by id.
func (r *UserRepo) GetByIDs(ctx context.Context, ids []int64) ([]entity.User, error) {
	users := []entity.User{}
	if len(ids) == 0 {
		return users, nil
	}
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY id`
	if err := r.db.SelectContext(ctx, &users, q, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}
	return users, nil
}

func (r *UserRepo) List(ctx context.Context) ([]entity.User, error) {
	users := []entity.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepo) ListAdmins(ctx context.Context) ([]entity.User, error) {
	users := []entity.User{}
	const q = `SELECT ` + userColumns + ` FROM users WHERE admin=true ORDER BY id`
	if err := r.db.SelectContext(ctx, &users, q); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return users, nil
}

// Create inserts u, assigning its id, and sets its group membership to
// groupIDs in the same transaction.
func (r *UserRepo) Create(ctx context.Context, u *entity.User, groupIDs []int64) error {
	u.ID = r.ids.Next()
	if u.Created.IsZero() {
		u.Created = time.Now().UTC()
	}
	const q = `INSERT INTO users (id, first_name, last_name, email, password, active, admin, expiration, created, created_by)
		VALUES (:id, :first_name, :last_name, :email, :password, :active, :admin, :expiration, :created, :created_by)`

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, q, u); err != nil {
			return err
		}
		if len(groupIDs) == 0 {
			return nil
		}
		return replaceGroups(ctx, tx, u.ID, groupIDs)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("duplicate user", err)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update writes the editable fields of u. When groupIDs is non-nil the
// user's membership is replaced with it; nil leaves membership untouched.
func (r *UserRepo) Update(ctx context.Context, u *entity.User, groupIDs []int64) error {
	const q = `UPDATE users SET first_name=:first_name, last_name=:last_name, email=:email, active=:active,
		admin=:admin, expiration=:expiration, updated=:updated, updated_by=:updated_by WHERE id=:id`

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, q, u)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("not found")
		}
		if groupIDs == nil {
			return nil
		}
		return replaceGroups(ctx, tx, u.ID, groupIDs)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("duplicate user", err)
		}
		if apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return nil
}

// SetActive activates or deactivates a user.
func (r *UserRepo) SetActive(ctx context.Context, id int64, active bool, by int64) error {
	const q = `UPDATE users SET active=$2, updated=NOW(), updated_by=$3 WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, active, by)
	if err != nil {
		return fmt.Errorf("set active %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("not found")
	}
	return nil
}

// UpdatePassword stores a new password digest.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	const q = `UPDATE users SET password=$2, updated=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, hash)
	if err != nil {
		return fmt.Errorf("update password %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("not found")
	}
	return nil
}

func replaceGroups(ctx context.Context, tx *sqlx.Tx, userID int64, groupIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM group_users WHERE user_id=$1`, userID); err != nil {
		return err
	}
	if len(groupIDs) == 0 {
		return nil
	}
	const q = `INSERT INTO group_users (group_id, user_id)
		SELECT g.id, $1 FROM groups g WHERE g.id = ANY($2) ON CONFLICT DO NOTHING`
	_, err := tx.ExecContext(ctx, q, userID, pq.Array(groupIDs))
	return err
}
