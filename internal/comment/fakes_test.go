// AngelaMos | 2026
// fakes_test.go

package comment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/carterperez-dev/minicms/internal/auth"
	"github.com/carterperez-dev/minicms/internal/config"
	"github.com/carterperez-dev/minicms/internal/core"
)

const (
	articleA = "a0000000-0000-4000-8000-000000000001"
	articleB = "a0000000-0000-4000-8000-000000000002"

	adminID  = "u0000000-0000-4000-8000-000000000001"
	editorID = "u0000000-0000-4000-8000-000000000002"
	userID   = "u0000000-0000-4000-8000-000000000003"
	otherID  = "u0000000-0000-4000-8000-000000000004"
	idleID   = "u0000000-0000-4000-8000-000000000005"
)

type memRepo struct {
	mu       sync.Mutex
	comments map[string]*Comment
	articles map[string]bool
	clock    time.Time

	// uuidColumns makes lookups fail on malformed ids the way a uuid
	// column cast does.
	uuidColumns bool
}

var errUUIDCast = errors.New("invalid input syntax for type uuid")

func (m *memRepo) cast(ids ...string) error {
	if !m.uuidColumns {
		return nil
	}
	for _, id := range ids {
		if id != "" && !core.IsID(id) {
			return errUUIDCast
		}
	}
	return nil
}

func newMemRepo() *memRepo {
	return &memRepo{
		comments: map[string]*Comment{},
		articles: map[string]bool{articleA: true, articleB: true},
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memRepo) WithTx(_ context.Context, fn func(Repository) error) error {
	m.mu.Lock()
	snapshot := make(map[string]Comment, len(m.comments))
	for id, c := range m.comments {
		snapshot[id] = *c
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.comments = make(map[string]*Comment, len(snapshot))
		for id, c := range snapshot {
			cp := c
			m.comments[id] = &cp
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memRepo) ArticleExists(_ context.Context, id string) (bool, error) {
	if err := m.cast(id); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.articles[id], nil
}

func (m *memRepo) Create(_ context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = m.clock.Add(time.Minute)
	c.CreatedAt = m.clock
	c.UpdatedAt = m.clock
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Comment, error) {
	if err := m.cast(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) GetByIDs(_ context.Context, ids []string) ([]Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Comment
	for _, id := range ids {
		if c, ok := m.comments[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memRepo) ListApprovedByArticle(_ context.Context, articleID string) ([]ThreadRow, error) {
	if err := m.cast(articleID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []ThreadRow
	for _, c := range m.comments {
		if c.ArticleID == articleID && c.IsApproved {
			rows = append(rows, ThreadRow{Comment: *c})
		}
	}
	return rows, nil
}

func (m *memRepo) ListForModeration(_ context.Context, f ModerationFilter) ([]ModerationRow, int, error) {
	if err := m.cast(f.AuthorID, f.ArticleID); err != nil {
		return nil, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []ModerationRow
	for _, c := range m.comments {
		if f.AuthorID != "" && c.AuthorID != f.AuthorID {
			continue
		}
		if f.ArticleID != "" && c.ArticleID != f.ArticleID {
			continue
		}
		if f.Approved != nil && c.IsApproved != *f.Approved {
			continue
		}
		rows = append(rows, ModerationRow{Comment: *c})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	total := len(rows)
	start := min(f.Offset(), total)
	end := min(start+f.PageSize, total)
	return rows[start:end], total, nil
}

func (m *memRepo) Approve(_ context.Context, id string) (*Comment, error) {
	if err := m.cast(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	c.IsApproved = true
	cp := *c
	return &cp, nil
}

func (m *memRepo) DeleteSubtrees(_ context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doomed := map[string]bool{}
	for _, id := range ids {
		if _, ok := m.comments[id]; ok {
			doomed[id] = true
		}
	}
	for grew := true; grew; {
		grew = false
		for id, c := range m.comments {
			if c.ParentID != nil && doomed[*c.ParentID] && !doomed[id] {
				doomed[id] = true
				grew = true
			}
		}
	}
	for id := range doomed {
		delete(m.comments, id)
	}
	return len(doomed), nil
}

func (m *memRepo) DeleteAndReparent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.comments[id]
	if !ok {
		return core.ErrNotFound
	}
	for _, d := range m.descendants(id) {
		d.Depth--
	}
	for _, c := range m.comments {
		if c.ParentID != nil && *c.ParentID == id {
			c.ParentID = target.ParentID
		}
	}
	delete(m.comments, id)
	return nil
}

func (m *memRepo) descendants(id string) []*Comment {
	var out []*Comment
	for _, c := range m.comments {
		if c.ParentID != nil && *c.ParentID == id {
			out = append(out, c)
			out = append(out, m.descendants(c.ID)...)
		}
	}
	return out
}

func (m *memRepo) CountByApproval(_ context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s Stats
	for _, c := range m.comments {
		if c.IsApproved {
			s.Approved++
		} else {
			s.Pending++
		}
	}
	return &s, nil
}

// seed stores a comment directly, bypassing the service rules.
func (m *memRepo) seed(c Comment) *Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = m.clock.Add(time.Minute)
	c.CreatedAt = m.clock
	c.UpdatedAt = m.clock
	m.comments[c.ID] = &c
	return &c
}

func (m *memRepo) get(id string) (Comment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return Comment{}, false
	}
	return *c, true
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.comments)
}

type memActors map[string]*auth.UserInfo

func newMemActors() memActors {
	return memActors{
		adminID:  {ID: adminID, Role: core.RoleAdmin, IsActive: true},
		editorID: {ID: editorID, Role: core.RoleEditor, IsActive: true},
		userID:   {ID: userID, Role: core.RoleUser, IsActive: true},
		otherID:  {ID: otherID, Role: core.RoleUser, IsActive: true},
		idleID:   {ID: idleID, Role: core.RoleUser, IsActive: false},
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

func testCommentsConfig(policy string) config.CommentsConfig {
	return config.CommentsConfig{
		MinLength:    3,
		MaxLength:    1000,
		MaxDepth:     3,
		DeletePolicy: policy,
	}
}

func newTestService(policy string) (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, newMemActors(), testCommentsConfig(policy)), repo
}

func ptr[T any](v T) *T {
	return &v
}
