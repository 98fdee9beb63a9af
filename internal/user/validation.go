package user

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	nameMaxLength     = 128
	emailMaxLength    = 256
	passwordMaxLength = 72
)

// CreateInput is the body of POST /users.
type CreateInput struct {
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Email      string     `json:"email"`
	Password   string     `json:"password"`
	Admin      bool       `json:"admin"`
	Active     *bool      `json:"active"`
	Expiration *time.Time `json:"expiration"`
	GroupIDs   []int64    `json:"group_ids"`
}

func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.Required, validation.Length(1, nameMaxLength)),
		validation.Field(&in.LastName, validation.Required, validation.Length(1, nameMaxLength)),
		validation.Field(&in.Email, validation.Required, validation.Length(1, emailMaxLength), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(1, passwordMaxLength)),
	)
}

// UpdateInput is the body of PUT /users/{id}. Nil Admin and Active keep the
// stored value; nil GroupIDs keeps the current membership.
type UpdateInput struct {
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Email      string     `json:"email"`
	Admin      *bool      `json:"admin"`
	Active     *bool      `json:"active"`
	Expiration *time.Time `json:"expiration"`
	GroupIDs   []int64    `json:"group_ids"`
}

func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.Required, validation.Length(1, nameMaxLength)),
		validation.Field(&in.LastName, validation.Required, validation.Length(1, nameMaxLength)),
		validation.Field(&in.Email, validation.Required, validation.Length(1, emailMaxLength), is.Email),
	)
}
