// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

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

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsValid() bool {
	return !t.IsExpired() && !t.IsRevoked() && !t.IsUsed
}

// OTPCode is a one-time login code. Rows are short lived: they are deleted
// on successful verification, on expiry, or when delivery fails.
type OTPCode struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Code      string    `db:"code"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (c *OTPCode) ExpiredAt(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

const (
	LogTypeEmailSend = "email_send"
	LogTypeLogin     = "login"
)

const MethodEmail = "email"

// LoginLog is the append-only audit trail. email_send rows double as the
// source of truth for the per-email issuance limit.
type LoginLog struct {
	ID        int64     `db:"id"`
	UserEmail string    `db:"user_email"`
	Method    string    `db:"method"`
	Type      string    `db:"type"`
	Timestamp time.Time `db:"timestamp"`
}
