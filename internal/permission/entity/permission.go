package entity

// Permission is a row of the `permissions` table. Code is what routes require.
type Permission struct {
	ID   int64  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}
