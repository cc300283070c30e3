// AngelaMos | 2026
// service.go

package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/minicms/internal/auth"
	"github.com/carterperez-dev/minicms/internal/core"
)

var (
	ErrSlugTaken = errors.New("category slug taken")
	ErrProtected = errors.New("fallback category cannot be deleted")
)

type ActorProvider interface {
	GetByID(ctx context.Context, id string) (*auth.UserInfo, error)
}

type Service struct {
	repo     Repository
	actors   ActorProvider
	onChange func(ctx context.Context)
}

// NewService takes an optional onChange hook run after every mutation, used
// to drop cached article reads that embed category data.
func NewService(
	repo Repository,
	actors ActorProvider,
	onChange func(ctx context.Context),
) *Service {
	if onChange == nil {
		onChange = func(context.Context) {}
	}
	return &Service{repo: repo, actors: actors, onChange: onChange}
}

func (s *Service) List(ctx context.Context, params ListParams) ([]WithCount, error) {
	if params.Limit < 0 {
		params.Limit = 0
	}
	return s.repo.List(ctx, params)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// EnsureUncategorized returns the fallback category, creating it when
// missing. A concurrent creator wins and its row is returned.
func (s *Service) EnsureUncategorized(ctx context.Context) (*Category, error) {
	existing, err := s.repo.GetBySlug(ctx, UncategorizedSlug)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	c := &Category{
		ID:   uuid.New().String(),
		Slug: UncategorizedSlug,
		Name: core.T("category.uncategorized"),
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return s.repo.GetBySlug(ctx, UncategorizedSlug)
		}
		return nil, err
	}

	slog.Info("fallback category created", "category_id", c.ID)
	return c, nil
}

// ResolveCategoryID maps an empty id to the fallback category and checks
// that any other id exists.
func (s *Service) ResolveCategoryID(ctx context.Context, id string) (string, error) {
	if id == "" {
		fallback, err := s.EnsureUncategorized(ctx)
		if err != nil {
			return "", err
		}
		return fallback.ID, nil
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *Service) Create(
	ctx context.Context,
	actorID string,
	req CreateCategoryRequest,
) (*Category, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	c := &Category{
		ID:          uuid.New().String(),
		Slug:        strings.TrimSpace(req.Slug),
		Name:        strings.TrimSpace(req.Name),
		Description: optional(req.Description),
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("create category: %w", ErrSlugTaken)
		}
		return nil, err
	}

	s.onChange(ctx)
	return c, nil
}

func (s *Service) Update(
	ctx context.Context,
	actorID, id string,
	req UpdateCategoryRequest,
) (*Category, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		slug := strings.TrimSpace(*req.Slug)
		if c.IsFallback() && slug != UncategorizedSlug {
			return nil, fmt.Errorf("update category: %w", ErrProtected)
		}
		c.Slug = slug
	}
	if req.Description != nil {
		c.Description = optional(req.Description)
	}

	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("update category: %w", ErrSlugTaken)
		}
		return nil, err
	}

	s.onChange(ctx)
	return c, nil
}

// Delete moves the articles of every target to the fallback category and
// removes the targets, all in one transaction.
func (s *Service) Delete(
	ctx context.Context,
	actorID string,
	ids []string,
) (*DeleteResult, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, fmt.Errorf("delete categories: %w", err)
	}

	fallback, err := s.EnsureUncategorized(ctx)
	if err != nil {
		return nil, err
	}

	targets := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if id == fallback.ID {
			return nil, fmt.Errorf("delete categories: %w", ErrProtected)
		}
		if id != "" && !seen[id] {
			seen[id] = true
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		return &DeleteResult{}, nil
	}

	var result DeleteResult
	err = s.repo.WithTx(ctx, func(repo Repository) error {
		moved, err := repo.MoveArticles(ctx, targets, fallback.ID)
		if err != nil {
			return err
		}
		deleted, err := repo.DeleteByIDs(ctx, targets)
		if err != nil {
			return err
		}
		result = DeleteResult{Deleted: deleted, MovedArticles: moved}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete categories: %w", err)
	}

	s.onChange(ctx)
	slog.Info("categories deleted",
		"actor_id", actorID,
		"deleted", result.Deleted,
		"moved_articles", result.MovedArticles,
	)

	return &result, nil
}

func (s *Service) requireAdmin(ctx context.Context, actorID string) error {
	if actorID == "" {
		return core.ErrUnauthorized
	}

	actor, err := s.actors.GetByID(ctx, actorID)
	if errors.Is(err, core.ErrNotFound) {
		return core.ErrUnauthorized
	}
	if err != nil {
		return err
	}

	if !actor.IsActive {
		return auth.ErrAccountInactive
	}
	if !actor.Role.IsAdmin() {
		return core.ErrForbidden
	}
	return nil
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
