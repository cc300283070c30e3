// AngelaMos | 2026
// entity.go

package category

import (
	"time"
)

// UncategorizedSlug names the fallback category articles land in when they
// have none or theirs is deleted.
const UncategorizedSlug = "uncategorized"

type Category struct {
	ID          string    `db:"id"`
	Slug        string    `db:"slug"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (c *Category) IsFallback() bool {
	return c.Slug == UncategorizedSlug
}

type WithCount struct {
	Category
	ArticleCount int `db:"article_count"`
}
