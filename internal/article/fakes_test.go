// AngelaMos | 2026
// fakes_test.go

package article

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carterperez-dev/minicms/internal/auth"
	"github.com/carterperez-dev/minicms/internal/config"
	"github.com/carterperez-dev/minicms/internal/core"
)

const (
	adminID  = "admin"
	editorID = "editor"
	rivalID  = "rival-editor"
	userID   = "reader"
	idleID   = "idle-editor"

	catNews          = "cat-news"
	catTech          = "cat-tech"
	catUncategorized = "cat-uncategorized"
)

var categorySlugs = map[string]string{
	catNews:          "news",
	catTech:          "tech",
	catUncategorized: "uncategorized",
}

type memRepo struct {
	mu       sync.Mutex
	articles map[string]*Article
	lists    atomic.Int32

	// afterRead runs once after the next GetBySlug, outside the lock.
	afterRead func()
}

func newMemRepo() *memRepo {
	return &memRepo{articles: map[string]*Article{}}
}

func (m *memRepo) row(a *Article) Row {
	slug := categorySlugs[a.CategoryID]
	return Row{Article: *a, CategorySlug: slug, CategoryName: strings.ToUpper(slug)}
}

func (m *memRepo) filtered(p ListArticlesParams) []Row {
	var rows []Row
	for _, a := range m.articles {
		if !p.Drafts && !a.IsPublished() {
			continue
		}
		if p.Search != "" {
			needle := strings.ToLower(p.Search)
			if !strings.Contains(strings.ToLower(a.Title), needle) &&
				!strings.Contains(strings.ToLower(a.Content), needle) {
				continue
			}
		}
		if p.Category != "" && !strings.EqualFold(categorySlugs[a.CategoryID], p.Category) {
			continue
		}
		rows = append(rows, m.row(a))
	}

	sort.Slice(rows, func(i, j int) bool {
		switch p.Sort {
		case SortOldest:
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		case SortTitle:
			return rows[i].Title < rows[j].Title
		default:
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
	})
	return rows
}

func (m *memRepo) List(_ context.Context, p ListArticlesParams) ([]Row, error) {
	m.lists.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.filtered(p)
	start := min(p.Offset(), len(rows))
	end := min(start+p.Limit, len(rows))
	return rows[start:end], nil
}

func (m *memRepo) Count(_ context.Context, p ListArticlesParams) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.filtered(p)), nil
}

func (m *memRepo) GetBySlug(_ context.Context, slug string) (*Row, error) {
	m.mu.Lock()
	hook := m.afterRead
	m.afterRead = nil
	var found *Row
	for _, a := range m.articles {
		if a.Slug == slug {
			row := m.row(a)
			found = &row
			break
		}
	}
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if found == nil {
		return nil, core.ErrNotFound
	}
	return found, nil
}

func (m *memRepo) Similar(_ context.Context, articleID, categoryID string, limit int) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.filtered(ListArticlesParams{Sort: SortNewest})
	var out []Row
	for _, r := range rows {
		if r.ID != articleID && r.CategoryID == categoryID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) Create(_ context.Context, a *Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.articles {
		if existing.Slug == a.Slug {
			return core.ErrDuplicateKey
		}
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.articles[a.ID] = &cp
	return nil
}

func (m *memRepo) Update(_ context.Context, a *Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[a.ID]; !ok {
		return core.ErrNotFound
	}
	for id, existing := range m.articles {
		if id != a.ID && existing.Slug == a.Slug {
			return core.ErrDuplicateKey
		}
	}
	cp := *a
	m.articles[a.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.articles, id)
	return nil
}

func (m *memRepo) Counts(_ context.Context) (*Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c Counts
	for _, a := range m.articles {
		c.Total++
		if a.IsPublished() {
			c.Published++
		} else {
			c.Drafts++
		}
	}
	return &c, nil
}

// seed stores an article created minutesAgo minutes before a fixed base.
func (m *memRepo) seed(slug, title, categoryID, authorID string, published bool, minutesAgo int) *Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	a := &Article{
		ID:         "id-" + slug,
		Slug:       slug,
		Title:      title,
		Content:    "content of " + title,
		CategoryID: categoryID,
		AuthorID:   authorID,
		CreatedAt:  base.Add(-time.Duration(minutesAgo) * time.Minute),
	}
	if published {
		t := a.CreatedAt
		a.PublishedAt = &t
	}
	m.articles[a.ID] = a
	return a
}

type memActors map[string]*auth.UserInfo

func newMemActors() memActors {
	return memActors{
		adminID:  {ID: adminID, Role: core.RoleAdmin, IsActive: true},
		editorID: {ID: editorID, Role: core.RoleEditor, IsActive: true},
		rivalID:  {ID: rivalID, Role: core.RoleEditor, IsActive: true},
		userID:   {ID: userID, Role: core.RoleUser, IsActive: true},
		idleID:   {ID: idleID, Role: core.RoleEditor, IsActive: false},
	}
}

func (m memActors) GetByID(_ context.Context, id string) (*auth.UserInfo, error) {
	u, ok := m[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type stubCategories struct{}

func (stubCategories) ResolveCategoryID(_ context.Context, id string) (string, error) {
	if id == "" {
		return catUncategorized, nil
	}
	if _, ok := categorySlugs[id]; !ok {
		return "", core.ErrNotFound
	}
	return id, nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	version int
	fail    bool
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

var errCacheDown = errors.New("cache down")

func (c *memCache) Slot(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return "", errCacheDown
	}
	return strings.Repeat("v", c.version+1) + ":" + key, nil
}

func (c *memCache) Get(_ context.Context, slot string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return false, errCacheDown
	}
	raw, ok := c.entries[slot]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, slot string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errCacheDown
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[slot] = raw
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errCacheDown
	}
	c.version++
	return nil
}

func testArticlesConfig() config.ArticlesConfig {
	return config.ArticlesConfig{PageSize: 12, MaxPageSize: 50, CacheTTL: time.Hour}
}

func newTestService() (*Service, *memRepo, *memCache) {
	repo := newMemRepo()
	cache := newMemCache()
	svc := NewService(repo, newMemActors(), stubCategories{}, cache, testArticlesConfig())
	return svc, repo, cache
}

func ptr[T any](v T) *T {
	return &v
}
