// AngelaMos | 2026
// service.go

package article

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/minicms/internal/auth"
	"github.com/carterperez-dev/minicms/internal/config"
	"github.com/carterperez-dev/minicms/internal/core"
)

const similarLimit = 3

var (
	ErrArticleNotFound  = errors.New("article not found")
	ErrSlugTaken        = errors.New("article slug taken")
	ErrCategoryNotFound = errors.New("category not found")

	ErrNotAuthor = fmt.Errorf("role cannot author articles: %w", core.ErrForbidden)
	ErrNotOwner  = fmt.Errorf("article owned by another author: %w", core.ErrForbidden)
)

type ActorProvider interface {
	GetByID(ctx context.Context, id string) (*auth.UserInfo, error)
}

// CategoryResolver maps an optional category id to a stored one. An empty
// id resolves to the fallback category.
type CategoryResolver interface {
	ResolveCategoryID(ctx context.Context, id string) (string, error)
}

// Viewer is the caller of a read. The zero value is an anonymous visitor.
type Viewer struct {
	ID   string
	Role core.Role
}

func (v Viewer) canSeeDrafts() bool {
	return v.Role.CanAuthor()
}

type Service struct {
	repo       Repository
	actors     ActorProvider
	categories CategoryResolver
	cache      Cache
	cfg        config.ArticlesConfig
	now        func() time.Time
}

func NewService(
	repo Repository,
	actors ActorProvider,
	categories CategoryResolver,
	cache Cache,
	cfg config.ArticlesConfig,
) *Service {
	if cache == nil {
		cache = NoopCache()
	}

	return &Service{
		repo:       repo,
		actors:     actors,
		categories: categories,
		cache:      cache,
		cfg:        cfg,
		now:        time.Now,
	}
}

// List returns one page and whether more follow. Drafts are included only
// when requested by an ADMIN or EDITOR.
func (s *Service) List(
	ctx context.Context,
	viewer Viewer,
	params ListArticlesParams,
) (*ArticleList, error) {
	params.Normalize(s.cfg.PageSize, s.cfg.MaxPageSize)
	if !viewer.canSeeDrafts() {
		params.Drafts = false
	}

	var slot string
	if !params.Drafts {
		var (
			cached ArticleList
			hit    bool
		)
		slot, hit = s.cacheGet(ctx, listCacheKey(params), &cached)
		if hit {
			return &cached, nil
		}
	}

	var (
		rows  []Row
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.repo.List(gctx, params)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, params)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &ArticleList{
		Articles: ToArticleResponseList(rows),
		HasMore:  params.Offset()+len(rows) < total,
		Total:    total,
	}

	if !params.Drafts {
		s.cacheSet(ctx, slot, result)
	}

	return result, nil
}

// GetBySlug hides drafts from everyone except their author and admins.
func (s *Service) GetBySlug(
	ctx context.Context,
	viewer Viewer,
	slug string,
) (*ArticleResponse, error) {
	var cached ArticleResponse
	slot, hit := s.cacheGet(ctx, "slug:"+slug, &cached)
	if hit {
		return &cached, nil
	}

	row, err := s.repo.GetBySlug(ctx, slug)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("get article: %w", ErrArticleNotFound)
	}
	if err != nil {
		return nil, err
	}

	if !row.IsPublished() {
		if viewer.ID == "" || (viewer.ID != row.AuthorID && !viewer.Role.IsAdmin()) {
			return nil, fmt.Errorf("get article: %w", ErrArticleNotFound)
		}
		resp := ToArticleResponse(row)
		return &resp, nil
	}

	resp := ToArticleResponse(row)
	s.cacheSet(ctx, slot, resp)
	return &resp, nil
}

// Similar lists other published articles from the same category.
func (s *Service) Similar(
	ctx context.Context,
	slug string,
) ([]ArticleResponse, error) {
	var cached []ArticleResponse
	slot, hit := s.cacheGet(ctx, "similar:"+slug, &cached)
	if hit {
		return cached, nil
	}

	row, err := s.repo.GetBySlug(ctx, slug)
	if errors.Is(err, core.ErrNotFound) || (err == nil && !row.IsPublished()) {
		return nil, fmt.Errorf("similar articles: %w", ErrArticleNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Similar(ctx, row.ID, row.CategoryID, similarLimit)
	if err != nil {
		return nil, err
	}

	resp := ToArticleResponseList(rows)
	s.cacheSet(ctx, slot, resp)
	return resp, nil
}

func (s *Service) Create(
	ctx context.Context,
	actorID string,
	req CreateArticleRequest,
) (*ArticleResponse, error) {
	actor, err := s.author(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	categoryID, err := s.resolveCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	a := &Article{
		ID:         uuid.New().String(),
		Slug:       strings.TrimSpace(req.Slug),
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		Excerpt:    optional(req.Excerpt),
		Image:      optional(req.Image),
		CategoryID: categoryID,
		AuthorID:   actor.ID,
	}
	a.SetPublished(req.Published, s.now())

	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("create article: %w", ErrSlugTaken)
		}
		return nil, err
	}

	s.invalidate(ctx)
	slog.Info("article created",
		"article_id", a.ID,
		"slug", a.Slug,
		"author_id", a.AuthorID,
		"published", a.IsPublished(),
	)

	return s.reload(ctx, a.Slug)
}

func (s *Service) Update(
	ctx context.Context,
	actorID, slug string,
	req UpdateArticleRequest,
) (*ArticleResponse, error) {
	row, err := s.owned(ctx, actorID, slug)
	if err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}

	a := row.Article
	if req.Title != nil {
		a.Title = strings.TrimSpace(*req.Title)
	}
	if req.Slug != nil {
		a.Slug = strings.TrimSpace(*req.Slug)
	}
	if req.Content != nil {
		a.Content = *req.Content
	}
	if req.Excerpt != nil {
		a.Excerpt = optional(req.Excerpt)
	}
	if req.Image != nil {
		a.Image = optional(req.Image)
	}
	if req.CategoryID != nil {
		categoryID, err := s.resolveCategory(ctx, *req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("update article: %w", err)
		}
		a.CategoryID = categoryID
	}
	if req.Published != nil {
		a.SetPublished(*req.Published, s.now())
	}

	if err := s.repo.Update(ctx, &a); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("update article: %w", ErrSlugTaken)
		}
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("update article: %w", ErrArticleNotFound)
		}
		return nil, err
	}

	s.invalidate(ctx)
	return s.reload(ctx, a.Slug)
}

func (s *Service) Delete(ctx context.Context, actorID, slug string) error {
	row, err := s.owned(ctx, actorID, slug)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}

	if err := s.repo.Delete(ctx, row.ID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("delete article: %w", ErrArticleNotFound)
		}
		return err
	}

	s.invalidate(ctx)
	slog.Info("article deleted", "article_id", row.ID, "actor_id", actorID)
	return nil
}

func (s *Service) Counts(ctx context.Context) (*Counts, error) {
	return s.repo.Counts(ctx)
}

// InvalidateCache drops cached public reads after changes made outside this
// service, such as category edits.
func (s *Service) InvalidateCache(ctx context.Context) {
	s.invalidate(ctx)
}

func (s *Service) author(ctx context.Context, actorID string) (*auth.UserInfo, error) {
	if actorID == "" {
		return nil, core.ErrUnauthorized
	}

	actor, err := s.actors.GetByID(ctx, actorID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if !actor.IsActive {
		return nil, auth.ErrAccountInactive
	}
	if !actor.Role.CanAuthor() {
		return nil, ErrNotAuthor
	}

	return actor, nil
}

// owned loads the article and checks that the actor may change it. Editors
// are limited to their own articles.
func (s *Service) owned(ctx context.Context, actorID, slug string) (*Row, error) {
	actor, err := s.author(ctx, actorID)
	if err != nil {
		return nil, err
	}

	row, err := s.repo.GetBySlug(ctx, slug)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}

	if !actor.Role.IsAdmin() && row.AuthorID != actor.ID {
		return nil, ErrNotOwner
	}

	return row, nil
}

func (s *Service) resolveCategory(ctx context.Context, id string) (string, error) {
	resolved, err := s.categories.ResolveCategoryID(ctx, strings.TrimSpace(id))
	if errors.Is(err, core.ErrNotFound) {
		return "", ErrCategoryNotFound
	}
	return resolved, err
}

func (s *Service) reload(ctx context.Context, slug string) (*ArticleResponse, error) {
	row, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	resp := ToArticleResponse(row)
	return &resp, nil
}

// cacheGet resolves the slot for key and reads it. The returned slot is
// empty when the cache is unavailable, which disables the write-back.
func (s *Service) cacheGet(ctx context.Context, key string, dest any) (string, bool) {
	slot, err := s.cache.Slot(ctx, key)
	if err != nil {
		slog.Warn("article cache read failed", "key", key, "error", err)
		return "", false
	}
	if slot == "" {
		return "", false
	}

	found, err := s.cache.Get(ctx, slot, dest)
	if err != nil {
		slog.Warn("article cache read failed", "key", key, "error", err)
		return slot, false
	}
	return slot, found
}

func (s *Service) cacheSet(ctx context.Context, slot string, value any) {
	if slot == "" {
		return
	}
	if err := s.cache.Set(ctx, slot, value); err != nil {
		slog.Warn("article cache write failed", "slot", slot, "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.Warn("article cache invalidation failed", "error", err)
	}
}

func listCacheKey(p ListArticlesParams) string {
	return strings.Join([]string{
		"list",
		strconv.Itoa(p.Page),
		strconv.Itoa(p.Limit),
		p.Sort,
		strings.ToLower(p.Category),
		strings.ToLower(p.Search),
	}, ":")
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
