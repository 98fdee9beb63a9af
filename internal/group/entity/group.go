package entity

import permentity "github.com/ovaphlow/pitchfork/service-identity-go/internal/permission/entity"

// Group owns permissions and has users as members.
type Group struct {
	ID          int64                   `db:"id" json:"id"`
	Name        string                  `db:"name" json:"name"`
	Permissions []permentity.Permission `db:"-" json:"permissions,omitempty"`
}

// Member is the projection of a user listed under a group.
type Member struct {
	ID        int64  `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Email     string `db:"email" json:"email"`
}
