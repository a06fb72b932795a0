// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/coachforge/platform/internal/middleware"
)

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Name         string     `db:"name"`
	Role         string     `db:"role"`
	TrainerID    *string    `db:"trainer_id"`
	TokenVersion int        `db:"token_version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanCoach reports whether the user may own clients and plans.
func (u *User) CanCoach() bool {
	return u.Role == RoleTrainer || u.Role == RoleAdmin
}

const (
	RoleClient  = middleware.RoleClient
	RoleTrainer = middleware.RoleTrainer
	RoleAdmin   = middleware.RoleAdmin
)

func validRole(role string) bool {
	switch role {
	case RoleClient, RoleTrainer, RoleAdmin:
		return true
	}
	return false
}
