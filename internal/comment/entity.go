// AngelaMos | 2026
// entity.go

package comment

import (
	"time"
)

type Comment struct {
	ID         string    `db:"id"`
	Content    string    `db:"content"`
	AuthorID   string    `db:"author_id"`
	ArticleID  string    `db:"article_id"`
	ParentID   *string   `db:"parent_id"`
	Depth      int       `db:"depth"`
	IsApproved bool      `db:"is_approved"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// ThreadRow is an approved comment joined with the public author profile.
type ThreadRow struct {
	Comment
	AuthorFirstName *string `db:"author_first_name"`
	AuthorLastName  *string `db:"author_last_name"`
	AuthorImage     *string `db:"author_image"`
}

// ModerationRow adds the article and author context a moderator needs.
type ModerationRow struct {
	Comment
	ArticleSlug     string  `db:"article_slug"`
	ArticleTitle    string  `db:"article_title"`
	AuthorEmail     string  `db:"author_email"`
	AuthorFirstName *string `db:"author_first_name"`
	AuthorLastName  *string `db:"author_last_name"`
}

type Stats struct {
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
}
