// AngelaMos | 2026
// entity.go

package article

import (
	"time"
)

type Article struct {
	ID          string     `db:"id"`
	Slug        string     `db:"slug"`
	Title       string     `db:"title"`
	Content     string     `db:"content"`
	Excerpt     *string    `db:"excerpt"`
	Image       *string    `db:"image"`
	CategoryID  string     `db:"category_id"`
	AuthorID    string     `db:"author_id"`
	PublishedAt *time.Time `db:"published_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (a *Article) IsPublished() bool {
	return a.PublishedAt != nil
}

// SetPublished stamps the first publish and clears the stamp on unpublish.
func (a *Article) SetPublished(published bool, now time.Time) {
	switch {
	case published && a.PublishedAt == nil:
		t := now.UTC()
		a.PublishedAt = &t
	case !published:
		a.PublishedAt = nil
	}
}

// Row is an article joined with its category and public author profile.
type Row struct {
	Article
	CategoryName    string  `db:"category_name"`
	CategorySlug    string  `db:"category_slug"`
	AuthorFirstName *string `db:"author_first_name"`
	AuthorLastName  *string `db:"author_last_name"`
	AuthorImage     *string `db:"author_image"`
}

type Counts struct {
	Total     int `db:"total"     json:"total"`
	Published int `db:"published" json:"published"`
	Drafts    int `db:"drafts"    json:"drafts"`
}
