// AngelaMos | 2026
// fakes_test.go

package auth

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/minicms/internal/config"
	"github.com/carterperez-dev/minicms/internal/core"
)

type memOTPRepo struct {
	issue sync.Mutex
	mu    sync.Mutex
	codes []OTPCode
	logs  []LoginLog

	appendErr error
}

func (m *memOTPRepo) WithEmailLock(
	_ context.Context,
	_ string,
	fn func(repo OTPRepository) error,
) error {
	m.issue.Lock()
	defer m.issue.Unlock()
	return fn(m)
}

func (m *memOTPRepo) FindActive(_ context.Context, email string, now time.Time) (*OTPCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *OTPCode
	for i := range m.codes {
		c := m.codes[i]
		if c.Email == email && !c.ExpiredAt(now) {
			if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
				latest = &c
			}
		}
	}
	if latest == nil {
		return nil, core.ErrNotFound
	}
	return latest, nil
}

func (m *memOTPRepo) FindMatch(_ context.Context, email, code string, now time.Time) (*OTPCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.codes {
		c := m.codes[i]
		if c.Email == email && c.Code == code && !c.ExpiredAt(now) {
			return &c, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memOTPRepo) Create(_ context.Context, code *OTPCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, *code)
	return nil
}

func (m *memOTPRepo) DeleteByID(_ context.Context, id string) error {
	m.remove(func(c OTPCode) bool { return c.ID == id })
	return nil
}

func (m *memOTPRepo) DeleteExpiredForEmail(_ context.Context, email string, now time.Time) error {
	m.remove(func(c OTPCode) bool { return c.Email == email && c.ExpiredAt(now) })
	return nil
}

func (m *memOTPRepo) DeleteAllForEmail(_ context.Context, email string) error {
	m.remove(func(c OTPCode) bool { return c.Email == email })
	return nil
}

func (m *memOTPRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return m.remove(func(c OTPCode) bool { return c.ExpiredAt(now) }), nil
}

func (m *memOTPRepo) remove(match func(OTPCode) bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.codes[:0]
	var n int64
	for _, c := range m.codes {
		if match(c) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	m.codes = kept
	return n
}

func (m *memOTPRepo) CountLogs(_ context.Context, email, logType string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.logs {
		if l.UserEmail == email && l.Type == logType && !l.Timestamp.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memOTPRepo) AppendLog(_ context.Context, entry *LoginLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	entry.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *memOTPRepo) codeCount(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.codes {
		if c.Email == email {
			n++
		}
	}
	return n
}

func (m *memOTPRepo) logCount(email, logType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.logs {
		if l.UserEmail == email && l.Type == logType {
			n++
		}
	}
	return n
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*UserInfo
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*UserInfo{}}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindOrCreate(ctx context.Context, nu NewUser) (*UserInfo, error) {
	if u, err := m.GetByEmail(ctx, normalizeEmail(nu.Email)); err == nil {
		return u, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &UserInfo{
		ID:        uuid.New().String(),
		Email:     normalizeEmail(nu.Email),
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Image:     nu.Image,
		Role:      core.RoleUser,
		IsActive:  true,
	}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memUsers) IncrementTokenVersion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.TokenVersion++
	return nil
}

func (m *memUsers) add(u UserInfo) *UserInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	m.users[u.ID] = &u
	return &u
}

func (m *memUsers) update(id string, fn func(*UserInfo)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.users[id])
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *recordingSender) SendOTP(_ context.Context, to, code string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, to+":"+code)
	return "<msg@test>", nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type memRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken
	finds  int
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{tokens: map[string]*RefreshToken{}}
}

func (m *memRefreshRepo) Create(_ context.Context, t *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.CreatedAt = time.Now()
	cp := *t
	m.tokens[t.ID] = &cp
	return nil
}

func (m *memRefreshRepo) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memRefreshRepo) FindByID(_ context.Context, id string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	t, ok := m.tokens[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memRefreshRepo) MarkAsUsed(_ context.Context, id, replacedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok || t.IsUsed {
		return core.ErrNotFound
	}
	now := time.Now()
	t.IsUsed, t.UsedAt, t.ReplacedByID = true, &now, &replacedBy
	return nil
}

func (m *memRefreshRepo) RevokeByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok || t.RevokedAt != nil {
		return core.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (m *memRefreshRepo) RevokeByFamilyID(_ context.Context, familyID string) error {
	m.revokeWhere(func(t *RefreshToken) bool { return t.FamilyID == familyID })
	return nil
}

func (m *memRefreshRepo) RevokeAllForUser(_ context.Context, userID string) error {
	m.revokeWhere(func(t *RefreshToken) bool { return t.UserID == userID })
	return nil
}

func (m *memRefreshRepo) revokeWhere(match func(*RefreshToken) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if match(t) && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
}

func (m *memRefreshRepo) GetActiveSessionsForUser(_ context.Context, userID string) ([]RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RefreshToken
	for _, t := range m.tokens {
		if t.UserID == userID && t.IsValid() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memRefreshRepo) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func fixedCodes(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(codes) {
			return "", errors.New("no more codes")
		}
		c := codes[i]
		i++
		return c, nil
	}
}

func testOTPConfig() config.OTPConfig {
	return config.OTPConfig{
		CodeLength: 6,
		TTL:        15 * time.Minute,
		MaxSends:   5,
		SendWindow: time.Hour,
	}
}

func testJWTManager(t *testing.T) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	cfg := config.JWTConfig{
		PrivateKeyPath:     filepath.Join(dir, "keys", "private.pem"),
		PublicKeyPath:      filepath.Join(dir, "keys", "public.pem"),
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "minicms-test",
		Audience:           "minicms-test",
	}

	if err := EnsureKeyPair(cfg, false); err != nil {
		t.Fatalf("ensure key pair: %v", err)
	}

	m, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}
	return m
}
