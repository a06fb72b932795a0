// AngelaMos | 2026
// entity.go

package auth

import (
	"fmt"
	"time"

	"github.com/coachforge/platform/internal/core"
)

// RefreshToken is one link of a rotation chain. A login starts a new family
// and every refresh consumes the presented token in favour of its successor.
type RefreshToken struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	TokenHash    string     `db:"token_hash"`
	FamilyID     string     `db:"family_id"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	IsUsed       bool       `db:"is_used"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
	UserAgent    string     `db:"user_agent"`
	IPAddress    string     `db:"ip_address"`
}

// Check reports why the token cannot be exchanged at now, or nil. A used
// token yields ErrTokenReuse, which callers treat as theft of the family.
func (t *RefreshToken) Check(now time.Time) error {
	switch {
	case t.IsUsed:
		return ErrTokenReuse
	case t.RevokedAt != nil:
		return fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	case !now.Before(t.ExpiresAt):
		return fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}
	return nil
}

func (t *RefreshToken) Device() Device {
	return Device{
		ID:         t.ID,
		UserAgent:  t.UserAgent,
		IPAddress:  t.IPAddress,
		SignedInAt: t.CreatedAt,
		ExpiresAt:  t.ExpiresAt,
	}
}
