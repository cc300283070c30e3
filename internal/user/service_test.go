// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/carterperez-dev/minicms/internal/auth"
	"github.com/carterperez-dev/minicms/internal/core"
)

type memRepo struct {
	mu     sync.Mutex
	byID   map[string]*User
	misses int
	// lookups counts id-keyed reads and writes.
	lookups int
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[string]*User{}}
}

func (m *memRepo) find(email string) *User {
	for _, u := range m.byID {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (m *memRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(u.Email) != nil {
		return core.ErrDuplicateKey
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	u, ok := m.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.misses > 0 {
		m.misses--
		return nil, core.ErrNotFound
	}
	u := m.find(email)
	if u == nil {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) UpdateProfile(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[u.ID]
	if !ok {
		return core.ErrNotFound
	}
	stored.FirstName, stored.LastName, stored.Image = u.FirstName, u.LastName, u.Image
	return nil
}

func (m *memRepo) UpdateRole(_ context.Context, id string, role core.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	stored, ok := m.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	stored.Role = role
	stored.TokenVersion++
	return nil
}

func (m *memRepo) SetActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	stored, ok := m.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	stored.IsActive = active
	if !active {
		stored.TokenVersion++
	}
	return nil
}

func (m *memRepo) IncrementTokenVersion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	stored.TokenVersion++
	return nil
}

func (m *memRepo) UpsertAdmin(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.find(u.Email); existing != nil {
		existing.Role = core.RoleAdmin
		existing.IsActive = true
		*u = *existing
		return nil
	}
	u.Role = core.RoleAdmin
	u.IsActive = true
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memRepo) List(_ context.Context, _ ListUsersParams) ([]User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]User, 0, len(m.byID))
	for _, u := range m.byID {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *memRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

func TestFindOrCreateCreatesActiveUser(t *testing.T) {
	svc := NewService(newMemRepo())

	info, err := svc.FindOrCreate(context.Background(), auth.NewUser{
		Email:     "  Reader@Example.COM ",
		FirstName: "Sara",
		LastName:  "Ahmadi",
	})
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}

	if info.Email != "reader@example.com" {
		t.Errorf("email = %q, want normalized", info.Email)
	}
	if !info.IsActive {
		t.Error("new user should be active")
	}
	if info.Role != core.RoleUser {
		t.Errorf("role = %q, want USER", info.Role)
	}
	if info.FirstName != "Sara" || info.LastName != "Ahmadi" {
		t.Errorf("names = %q %q", info.FirstName, info.LastName)
	}

	again, err := svc.FindOrCreate(context.Background(), auth.NewUser{Email: "reader@example.com"})
	if err != nil {
		t.Fatalf("second find or create: %v", err)
	}
	if again.ID != info.ID {
		t.Error("second call created a new user")
	}
}

func TestFindOrCreateRecoversFromConcurrentInsert(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	if _, err := svc.FindOrCreate(context.Background(), auth.NewUser{Email: "a@example.com"}); err != nil {
		t.Fatal(err)
	}

	existing, err := repo.GetByEmail(context.Background(), "a@example.com")
	if err != nil {
		t.Fatal(err)
	}

	// The first lookup misses as if another request inserted in between.
	repo.misses = 1

	info, err := svc.FindOrCreate(context.Background(), auth.NewUser{Email: "a@example.com"})
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}
	if info.ID != existing.ID {
		t.Errorf("id = %q, want %q", info.ID, existing.ID)
	}
}

func TestAdminCannotModifySelf(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.UpdateUserRole(context.Background(), "u1", "u1", "USER")
	if !errors.Is(err, ErrSelfModify) {
		t.Errorf("role: expected ErrSelfModify, got %v", err)
	}

	_, err = svc.SetUserActive(context.Background(), "u1", "u1", false)
	if !errors.Is(err, ErrSelfModify) {
		t.Errorf("active: expected ErrSelfModify, got %v", err)
	}
}

func TestUpdateUserRoleRejectsUnknownRole(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.UpdateUserRole(context.Background(), "admin", "u2", "OWNER")
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeactivationBumpsTokenVersion(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	info, err := svc.FindOrCreate(context.Background(), auth.NewUser{Email: "b@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.SetUserActive(context.Background(), "admin", info.ID, false)
	if err != nil {
		t.Fatalf("set active: %v", err)
	}

	if updated.IsActive {
		t.Error("user still active")
	}
	if updated.TokenVersion != info.TokenVersion+1 {
		t.Errorf("token version = %d, want %d", updated.TokenVersion, info.TokenVersion+1)
	}
}

func TestBootstrapAdminPromotesExistingUser(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	info, err := svc.FindOrCreate(context.Background(), auth.NewUser{Email: "boss@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.BootstrapAdmin(context.Background(), "Boss@Example.com"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	u, err := repo.GetByID(context.Background(), info.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != core.RoleAdmin {
		t.Errorf("role = %q, want ADMIN", u.Role)
	}

	if err := svc.BootstrapAdmin(context.Background(), ""); err != nil {
		t.Errorf("empty email should be a no-op, got %v", err)
	}
}

func TestUpdateMeClearsBlankFields(t *testing.T) {
	svc := NewService(newMemRepo())

	info, err := svc.FindOrCreate(context.Background(), auth.NewUser{
		Email:     "c@example.com",
		FirstName: "Ali",
	})
	if err != nil {
		t.Fatal(err)
	}

	blank := "  "
	last := "Rezaei"
	u, err := svc.UpdateMe(context.Background(), info.ID, UpdateProfileRequest{
		FirstName: &blank,
		LastName:  &last,
	})
	if err != nil {
		t.Fatalf("update me: %v", err)
	}

	if u.FirstName != nil {
		t.Errorf("first name = %q, want nil", *u.FirstName)
	}
	if u.DisplayName() != "Rezaei" {
		t.Errorf("display name = %q", u.DisplayName())
	}

	if _, err := svc.UpdateMe(context.Background(), "", UpdateProfileRequest{}); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
