// AngelaMos | 2026
// entity.go

package user

import (
	"strings"
	"time"

	"github.com/carterperez-dev/minicms/internal/core"
)

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	FirstName    *string   `db:"first_name"`
	LastName     *string   `db:"last_name"`
	Image        *string   `db:"image"`
	Role         core.Role `db:"role"`
	IsActive     bool      `db:"is_active"`
	TokenVersion int       `db:"token_version"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}

// DisplayName joins the stored name parts, falling back to the email.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(deref(u.FirstName) + " " + deref(u.LastName))
	if name == "" {
		return u.Email
	}
	return name
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// NormalizeEmail is the canonical form stored and looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
