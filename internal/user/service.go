// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/carterperez-dev/minicms/internal/auth"
	"github.com/carterperez-dev/minicms/internal/core"
)

// ErrSelfModify guards admins from locking themselves out.
var ErrSelfModify = errors.New("cannot change own role or status")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// FindOrCreate returns the account for the email, creating an active USER
// when none exists. A concurrent insert of the same email is resolved by
// re-reading.
func (s *Service) FindOrCreate(
	ctx context.Context,
	nu auth.NewUser,
) (*auth.UserInfo, error) {
	email := NormalizeEmail(nu.Email)

	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return toUserInfo(existing), nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	user := &User{
		ID:        uuid.New().String(),
		Email:     email,
		FirstName: optional(nu.FirstName),
		LastName:  optional(nu.LastName),
		Image:     optional(nu.Image),
		Role:      core.RoleUser,
		IsActive:  true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			existing, getErr := s.repo.GetByEmail(ctx, email)
			if getErr != nil {
				return nil, getErr
			}
			return toUserInfo(existing), nil
		}
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = optional(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = optional(*req.LastName)
	}
	if req.Image != nil {
		user.Image = optional(*req.Image)
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) UpdateUserRole(
	ctx context.Context,
	actorID, targetID, role string,
) (*User, error) {
	parsed, err := core.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	if actorID == targetID {
		return nil, fmt.Errorf("update role: %w", ErrSelfModify)
	}

	if err := s.repo.UpdateRole(ctx, targetID, parsed); err != nil {
		return nil, err
	}

	slog.Info("user role changed",
		"actor_id", actorID,
		"user_id", targetID,
		"role", parsed,
	)

	return s.repo.GetByID(ctx, targetID)
}

func (s *Service) SetUserActive(
	ctx context.Context,
	actorID, targetID string,
	active bool,
) (*User, error) {
	if actorID == targetID {
		return nil, fmt.Errorf("set active: %w", ErrSelfModify)
	}

	if err := s.repo.SetActive(ctx, targetID, active); err != nil {
		return nil, err
	}

	slog.Info("user activation changed",
		"actor_id", actorID,
		"user_id", targetID,
		"active", active,
	)

	return s.repo.GetByID(ctx, targetID)
}

// BootstrapAdmin makes sure the configured address exists as an active
// ADMIN. An empty email is a no-op.
func (s *Service) BootstrapAdmin(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return nil
	}

	user := &User{ID: uuid.New().String(), Email: email}
	if err := s.repo.UpsertAdmin(ctx, user); err != nil {
		return err
	}

	slog.Info("bootstrap admin ensured", "email", email, "user_id", user.ID)
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    deref(u.FirstName),
		LastName:     deref(u.LastName),
		Image:        deref(u.Image),
		Role:         u.Role,
		IsActive:     u.IsActive,
		TokenVersion: u.TokenVersion,
	}
}

var _ auth.UserProvider = (*Service)(nil)
