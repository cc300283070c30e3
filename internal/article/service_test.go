// AngelaMos | 2026
// service_test.go

package article

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/carterperez-dev/minicms/internal/auth"
	"github.com/carterperez-dev/minicms/internal/core"
)

var (
	anonymous = Viewer{}
	asAdmin   = Viewer{ID: adminID, Role: core.RoleAdmin}
	asEditor  = Viewer{ID: editorID, Role: core.RoleEditor}
	asReader  = Viewer{ID: userID, Role: core.RoleUser}
)

func seedPublished(repo *memRepo, n int) {
	for i := range n {
		repo.seed(fmt.Sprintf("post-%02d", i), fmt.Sprintf("Post %02d", i), catNews, editorID, true, i)
	}
}

func TestListPagination(t *testing.T) {
	svc, repo, _ := newTestService()
	seedPublished(repo, 25)

	tests := []struct {
		name        string
		params      ListArticlesParams
		wantLen     int
		wantHasMore bool
	}{
		{"first page uses default size", ListArticlesParams{Page: 1}, 12, true},
		{"second page", ListArticlesParams{Page: 2}, 12, true},
		{"last partial page", ListArticlesParams{Page: 3}, 1, false},
		{"past the end", ListArticlesParams{Page: 4}, 0, false},
		{"exact fit", ListArticlesParams{Page: 1, Limit: 25}, 25, false},
		{"zero page treated as first", ListArticlesParams{Page: 0, Limit: 10}, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.List(context.Background(), anonymous, tt.params)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list.Articles) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(list.Articles), tt.wantLen)
			}
			if list.HasMore != tt.wantHasMore {
				t.Errorf("HasMore = %v, want %v", list.HasMore, tt.wantHasMore)
			}
			if list.Total != 25 {
				t.Errorf("Total = %d, want 25", list.Total)
			}
		})
	}
}

func TestListClampsLimit(t *testing.T) {
	svc, repo, _ := newTestService()
	seedPublished(repo, 60)

	list, err := svc.List(context.Background(), anonymous, ListArticlesParams{Limit: 500})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list.Articles) != 50 || !list.HasMore {
		t.Errorf("got %d articles hasMore=%v, want 50 and more", len(list.Articles), list.HasMore)
	}
}

func TestListSortSearchAndCategory(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.seed("zebra", "Zebra crossing", catNews, editorID, true, 30)
	repo.seed("apple", "Apple harvest", catTech, editorID, true, 10)
	repo.seed("mango", "Mango season", catNews, editorID, true, 20)

	list, _ := svc.List(context.Background(), anonymous, ListArticlesParams{Sort: SortTitle})
	if list.Articles[0].Slug != "apple" || list.Articles[2].Slug != "zebra" {
		t.Errorf("title sort = %s..%s", list.Articles[0].Slug, list.Articles[2].Slug)
	}

	list, _ = svc.List(context.Background(), anonymous, ListArticlesParams{Sort: SortOldest})
	if list.Articles[0].Slug != "zebra" {
		t.Errorf("oldest first = %s, want zebra", list.Articles[0].Slug)
	}

	list, _ = svc.List(context.Background(), anonymous, ListArticlesParams{Sort: "bogus"})
	if list.Articles[0].Slug != "apple" {
		t.Errorf("unknown sort should fall back to newest, got %s", list.Articles[0].Slug)
	}

	list, _ = svc.List(context.Background(), anonymous, ListArticlesParams{Search: "HARVEST"})
	if list.Total != 1 || list.Articles[0].Slug != "apple" {
		t.Errorf("case-insensitive search total = %d", list.Total)
	}

	list, _ = svc.List(context.Background(), anonymous, ListArticlesParams{Category: "NEWS"})
	if list.Total != 2 {
		t.Errorf("category filter total = %d, want 2", list.Total)
	}
}

func TestListDraftsRequireAuthorRole(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.seed("live", "Live", catNews, editorID, true, 2)
	repo.seed("draft", "Draft", catNews, editorID, false, 1)

	tests := []struct {
		name   string
		viewer Viewer
		want   int
	}{
		{"anonymous", anonymous, 1},
		{"reader", asReader, 1},
		{"editor", asEditor, 2},
		{"admin", asAdmin, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.List(context.Background(), tt.viewer, ListArticlesParams{Drafts: true})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if list.Total != tt.want {
				t.Errorf("Total = %d, want %d", list.Total, tt.want)
			}
		})
	}
}

func TestGetBySlugDraftVisibility(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.seed("draft", "Draft", catNews, editorID, false, 1)

	tests := []struct {
		name    string
		viewer  Viewer
		wantErr bool
	}{
		{"anonymous", anonymous, true},
		{"reader", asReader, true},
		{"other editor", Viewer{ID: rivalID, Role: core.RoleEditor}, true},
		{"author", asEditor, false},
		{"admin", asAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetBySlug(context.Background(), tt.viewer, "draft")
			if tt.wantErr && !errors.Is(err, ErrArticleNotFound) {
				t.Fatalf("GetBySlug() error = %v, want not found", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("GetBySlug() error = %v", err)
			}
		})
	}

	if _, err := svc.GetBySlug(context.Background(), anonymous, "missing"); !errors.Is(err, ErrArticleNotFound) {
		t.Errorf("missing slug error = %v", err)
	}
}

func TestSimilar(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.seed("main", "Main", catNews, editorID, true, 0)
	for i := range 5 {
		repo.seed(fmt.Sprintf("news-%d", i), "News", catNews, editorID, true, i+1)
	}
	repo.seed("tech", "Tech", catTech, editorID, true, 1)
	repo.seed("news-draft", "Draft", catNews, editorID, false, 0)

	similar, err := svc.Similar(context.Background(), "main")
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	if len(similar) != 3 {
		t.Fatalf("len = %d, want 3", len(similar))
	}
	for _, a := range similar {
		if a.Slug == "main" || a.Category.ID != catNews || !a.Published {
			t.Errorf("unexpected similar article %s", a.Slug)
		}
	}
	if similar[0].Slug != "news-0" {
		t.Errorf("newest similar = %s, want news-0", similar[0].Slug)
	}
}

func TestCreateRoleAndFallbackCategory(t *testing.T) {
	svc, _, _ := newTestService()
	req := CreateArticleRequest{Title: "Hello", Slug: "hello", Content: "body"}

	if _, err := svc.Create(context.Background(), userID, req); !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("reader Create() error = %v, want ErrNotAuthor", err)
	}
	if _, err := svc.Create(context.Background(), "", req); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("anonymous Create() error = %v", err)
	}
	if _, err := svc.Create(context.Background(), idleID, req); !errors.Is(err, auth.ErrAccountInactive) {
		t.Fatalf("inactive Create() error = %v", err)
	}

	created, err := svc.Create(context.Background(), editorID, req)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Category.ID != catUncategorized {
		t.Errorf("category = %s, want fallback", created.Category.ID)
	}
	if created.Published || created.PublishedAt != nil {
		t.Error("draft was published")
	}

	if _, err := svc.Create(context.Background(), adminID, req); !errors.Is(err, ErrSlugTaken) {
		t.Errorf("duplicate slug error = %v", err)
	}

	req.Slug = "unknown-category"
	req.CategoryID = "cat-missing"
	if _, err := svc.Create(context.Background(), editorID, req); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("unknown category error = %v", err)
	}
}

func TestUpdateOwnershipAndPublishing(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.seed("mine", "Mine", catNews, editorID, false, 1)

	if _, err := svc.Update(context.Background(), rivalID, "mine", UpdateArticleRequest{Title: ptr("Hijack")}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("rival Update() error = %v, want ErrNotOwner", err)
	}

	updated, err := svc.Update(context.Background(), editorID, "mine", UpdateArticleRequest{Published: ptr(true)})
	if err != nil {
		t.Fatalf("publish error = %v", err)
	}
	if !updated.Published || updated.PublishedAt == nil {
		t.Fatal("article not published")
	}
	firstPublish := *updated.PublishedAt

	updated, err = svc.Update(context.Background(), adminID, "mine", UpdateArticleRequest{Title: ptr("Edited"), Published: ptr(true)})
	if err != nil {
		t.Fatalf("admin Update() error = %v", err)
	}
	if !updated.PublishedAt.Equal(firstPublish) {
		t.Error("republishing moved the publish time")
	}

	updated, err = svc.Update(context.Background(), editorID, "mine", UpdateArticleRequest{Published: ptr(false)})
	if err != nil {
		t.Fatalf("unpublish error = %v", err)
	}
	if updated.Published || updated.PublishedAt != nil {
		t.Error("unpublish kept the publish time")
	}
}

func TestDeleteOwnership(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.seed("mine", "Mine", catNews, editorID, true, 1)

	if err := svc.Delete(context.Background(), rivalID, "mine"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("rival Delete() error = %v", err)
	}
	if err := svc.Delete(context.Background(), adminID, "mine"); err != nil {
		t.Fatalf("admin Delete() error = %v", err)
	}
	if err := svc.Delete(context.Background(), adminID, "mine"); !errors.Is(err, ErrArticleNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestListCachedUntilMutation(t *testing.T) {
	svc, repo, _ := newTestService()
	seedPublished(repo, 3)

	for range 3 {
		if _, err := svc.List(context.Background(), anonymous, ListArticlesParams{}); err != nil {
			t.Fatalf("List() error = %v", err)
		}
	}
	if n := repo.lists.Load(); n != 1 {
		t.Fatalf("store queried %d times, want 1", n)
	}

	if _, err := svc.Create(context.Background(), editorID, CreateArticleRequest{
		Title: "Fresh", Slug: "fresh", Content: "body", Published: true,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	list, err := svc.List(context.Background(), anonymous, ListArticlesParams{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if list.Total != 4 {
		t.Errorf("Total after create = %d, want 4", list.Total)
	}
}

func TestListHugePageIsEmpty(t *testing.T) {
	params := ListArticlesParams{Page: 1 << 62}
	params.Normalize(12, 50)
	if off := params.Offset(); off < 0 || off > core.MaxOffset {
		t.Fatalf("Offset() = %d, want within [0, %d]", off, core.MaxOffset)
	}

	svc, repo, _ := newTestService()
	seedPublished(repo, 3)

	list, err := svc.List(context.Background(), anonymous, ListArticlesParams{Page: 1 << 62})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list.Articles) != 0 || list.HasMore || list.Total != 3 {
		t.Errorf("List() = %d articles, hasMore %v, total %d", len(list.Articles), list.HasMore, list.Total)
	}
}

func TestReadRacingUnpublishDoesNotRepopulateCache(t *testing.T) {
	svc, repo, cache := newTestService()
	a := repo.seed("launch", "Launch", catNews, editorID, true, 1)

	repo.afterRead = func() {
		repo.mu.Lock()
		repo.articles[a.ID].PublishedAt = nil
		repo.mu.Unlock()
		if err := cache.Invalidate(context.Background()); err != nil {
			t.Errorf("Invalidate() error = %v", err)
		}
	}

	if _, err := svc.GetBySlug(context.Background(), anonymous, "launch"); err != nil {
		t.Fatalf("first GetBySlug() error = %v", err)
	}

	_, err := svc.GetBySlug(context.Background(), anonymous, "launch")
	if !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("GetBySlug() after unpublish error = %v, want ErrArticleNotFound", err)
	}
}

func TestListBypassesFailingCache(t *testing.T) {
	svc, repo, cache := newTestService()
	seedPublished(repo, 2)
	cache.fail = true

	list, err := svc.List(context.Background(), anonymous, ListArticlesParams{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if list.Total != 2 {
		t.Errorf("Total = %d, want 2", list.Total)
	}
}

func TestCounts(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.seed("a", "A", catNews, editorID, true, 1)
	repo.seed("b", "B", catNews, editorID, false, 2)

	counts, err := svc.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if counts.Total != 2 || counts.Published != 1 || counts.Drafts != 1 {
		t.Errorf("Counts() = %+v", counts)
	}
}
