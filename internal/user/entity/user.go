package entity

import "time"

// User is a row of the `users` table. Password holds the bcrypt digest and is
// never serialized.
type User struct {
	ID         int64      `db:"id" json:"id"`
	FirstName  string     `db:"first_name" json:"first_name"`
	LastName   string     `db:"last_name" json:"last_name"`
	Email      string     `db:"email" json:"email"`
	Password   string     `db:"password" json:"-"`
	Active     bool       `db:"active" json:"active"`
	Admin      bool       `db:"admin" json:"admin"`
	Expiration *time.Time `db:"expiration" json:"expiration"`
	Created    time.Time  `db:"created" json:"created"`
	CreatedBy  int64      `db:"created_by" json:"created_by"`
	Updated    *time.Time `db:"updated" json:"updated"`
	UpdatedBy  *int64     `db:"updated_by" json:"updated_by"`
}

// Enabled reports the effective status at now: inactive users and users whose
// expiration has been reached are disabled.
func (u *User) Enabled(now time.Time) bool {
	if !u.Active {
		return false
	}
	if u.Expiration != nil && !u.Expiration.After(now) {
		return false
	}
	return true
}
