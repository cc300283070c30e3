// AngelaMos | 2026
// role.go

package core

import (
	"fmt"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleUser   Role = "USER"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleEditor, RoleUser:
		return r, nil
	}
	return "", fmt.Errorf("parse role %q: %w", s, ErrInvalidInput)
}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// CanAuthor reports whether the role may create and edit articles.
func (r Role) CanAuthor() bool {
	switch r {
	case RoleAdmin, RoleEditor:
		return true
	case RoleUser:
		return false
	}
	return false
}

// AutoApprovesComments decides the moderation gate for new comments.
// Every role must be listed; unknown roles never self-approve.
func (r Role) AutoApprovesComments() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleEditor, RoleUser:
		return false
	}
	return false
}
