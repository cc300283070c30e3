// AngelaMos | 2026
// dto.go

package article

import (
	"strings"
	"time"

	"github.com/carterperez-dev/minicms/internal/core"
)

const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortTitle  = "title"
)

type ListArticlesParams struct {
	Page     int
	Limit    int
	Sort     string
	Search   string
	Category string
	Drafts   bool
}

// Normalize clamps paging to the configured sizes and defaults the sort.
func (p *ListArticlesParams) Normalize(pageSize, maxPageSize int) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = pageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}

	switch p.Sort {
	case SortNewest, SortOldest, SortTitle:
	default:
		p.Sort = SortNewest
	}

	p.Page = core.ClampPage(p.Page, p.Limit)
	p.Search = strings.TrimSpace(p.Search)
	p.Category = strings.TrimSpace(p.Category)
}

func (p *ListArticlesParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

type CreateArticleRequest struct {
	Title      string  `json:"title"                 validate:"required,min=1,max=200"`
	Slug       string  `json:"slug"                  validate:"required,slug,max=200"`
	Content    string  `json:"content"               validate:"required"`
	Excerpt    *string `json:"excerpt,omitempty"     validate:"omitempty,max=500"`
	Image      *string `json:"image,omitempty"       validate:"omitempty,url,max=2048"`
	CategoryID string  `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Published  bool    `json:"published"`
}

type UpdateArticleRequest struct {
	Title      *string `json:"title,omitempty"       validate:"omitempty,min=1,max=200"`
	Slug       *string `json:"slug,omitempty"        validate:"omitempty,slug,max=200"`
	Content    *string `json:"content,omitempty"     validate:"omitempty,min=1"`
	Excerpt    *string `json:"excerpt,omitempty"     validate:"omitempty,max=500"`
	Image      *string `json:"image,omitempty"       validate:"omitempty,url,max=2048"`
	CategoryID *string `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Published  *bool   `json:"published,omitempty"`
}

type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type AuthorRef struct {
	ID        string  `json:"id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Image     *string `json:"image"`
}

type ArticleResponse struct {
	ID          string      `json:"id"`
	Slug        string      `json:"slug"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Excerpt     *string     `json:"excerpt"`
	Image       *string     `json:"image"`
	Published   bool        `json:"published"`
	PublishedAt *time.Time  `json:"published_at"`
	Category    CategoryRef `json:"category"`
	Author      AuthorRef   `json:"author"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type ArticleList struct {
	Articles []ArticleResponse `json:"articles"`
	HasMore  bool              `json:"has_more"`
	Total    int               `json:"total"`
}

func ToArticleResponse(row *Row) ArticleResponse {
	return ArticleResponse{
		ID:          row.ID,
		Slug:        row.Slug,
		Title:       row.Title,
		Content:     row.Content,
		Excerpt:     row.Excerpt,
		Image:       row.Image,
		Published:   row.IsPublished(),
		PublishedAt: row.PublishedAt,
		Category: CategoryRef{
			ID:   row.CategoryID,
			Name: row.CategoryName,
			Slug: row.CategorySlug,
		},
		Author: AuthorRef{
			ID:        row.AuthorID,
			FirstName: row.AuthorFirstName,
			LastName:  row.AuthorLastName,
			Image:     row.AuthorImage,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func ToArticleResponseList(rows []Row) []ArticleResponse {
	out := make([]ArticleResponse, 0, len(rows))
	for i := range rows {
		out = append(out, ToArticleResponse(&rows[i]))
	}
	return out
}
