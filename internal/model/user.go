package model

type User struct {
	Base
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
	Phone    string `db:"phone" json:"phone,omitempty"`
	Role     Role   `db:"role" json:"role"`
	Active   bool   `db:"active" json:"active"`
}
