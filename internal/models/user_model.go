package models

import "time"

const (
	RoleCreator = "creator"
	RoleAgency  = "agency"
	RoleAdmin   = "admin"
)

type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CanAttachPlatform gates which roles may connect a social account at all.
// Agency users browse the mirror but do not own creator accounts.
func (u *User) CanAttachPlatform() bool {
	return u.Role == RoleCreator || u.Role == RoleAdmin
}
