// AngelaMos | 2026
// dto.go

package comment

import (
	"time"

	"github.com/carterperez-dev/minicms/internal/core"
)

// Content is screened by ContentValidator rather than tags so that length
// and wording failures get their own messages.
type CreateCommentRequest struct {
	Content   string  `json:"content"`
	ArticleID string  `json:"article_id"          validate:"required,uuid"`
	ParentID  *string `json:"parent_id,omitempty" validate:"omitempty,uuid"`
}

type DeleteCommentsRequest struct {
	IDs   []string `json:"ids"   validate:"required,min=1,max=100,dive,uuid"`
	Admin bool     `json:"admin"`
}

type ModerationFilter struct {
	Approved  *bool
	AuthorID  string
	ArticleID string
	Page      int
	PageSize  int
}

func (f *ModerationFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	f.Page = core.ClampPage(f.Page, f.PageSize)
}

func (f *ModerationFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type CreateResult struct {
	Comment *Comment
	Pending bool
}

type DeleteResult struct {
	Deleted int `json:"deleted"`
}

type AuthorResponse struct {
	ID        string  `json:"id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Image     *string `json:"image"`
}

// Node is one approved comment with its approved replies, newest first.
type Node struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	ArticleID string         `json:"article_id"`
	ParentID  *string        `json:"parent_id"`
	Depth     int            `json:"depth"`
	Author    AuthorResponse `json:"author"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Replies   []*Node        `json:"replies"`
}

type CommentResponse struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"author_id"`
	ArticleID  string    `json:"article_id"`
	ParentID   *string   `json:"parent_id"`
	Depth      int       `json:"depth"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ModerationResponse struct {
	CommentResponse
	ArticleSlug  string  `json:"article_slug"`
	ArticleTitle string  `json:"article_title"`
	AuthorEmail  string  `json:"author_email"`
	AuthorName   *string `json:"author_name"`
}

func ToCommentResponse(c *Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		Content:    c.Content,
		AuthorID:   c.AuthorID,
		ArticleID:  c.ArticleID,
		ParentID:   c.ParentID,
		Depth:      c.Depth,
		IsApproved: c.IsApproved,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func ToModerationResponseList(rows []ModerationRow) []ModerationResponse {
	out := make([]ModerationResponse, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		out = append(out, ModerationResponse{
			CommentResponse: ToCommentResponse(&row.Comment),
			ArticleSlug:     row.ArticleSlug,
			ArticleTitle:    row.ArticleTitle,
			AuthorEmail:     row.AuthorEmail,
			AuthorName:      joinName(row.AuthorFirstName, row.AuthorLastName),
		})
	}
	return out
}

func joinName(first, last *string) *string {
	var parts []string
	if first != nil && *first != "" {
		parts = append(parts, *first)
	}
	if last != nil && *last != "" {
		parts = append(parts, *last)
	}
	if len(parts) == 0 {
		return nil
	}

	name := parts[0]
	if len(parts) == 2 {
		name += " " + parts[1]
	}
	return &name
}
