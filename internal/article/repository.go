// AngelaMos | 2026
// repository.go

package article

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/minicms/internal/core"
)

type Repository interface {
	List(ctx context.Context, params ListArticlesParams) ([]Row, error)
	Count(ctx context.Context, params ListArticlesParams) (int, error)
	GetBySlug(ctx context.Context, slug string) (*Row, error)
	Similar(
		ctx context.Context,
		articleID, categoryID string,
		limit int,
	) ([]Row, error)
	Create(ctx context.Context, a *Article) error
	Update(ctx context.Context, a *Article) error
	Delete(ctx context.Context, id string) error
	Counts(ctx context.Context) (*Counts, error)
}

const rowSelect = `
		SELECT a.id, a.slug, a.title, a.content, a.excerpt, a.image,
		       a.category_id, a.author_id, a.published_at, a.created_at,
		       a.updated_at,
		       c.name AS category_name, c.slug AS category_slug,
		       u.first_name AS author_first_name,
		       u.last_name AS author_last_name,
		       u.image AS author_image
		FROM articles a
		JOIN categories c ON c.id = a.category_id
		JOIN users u ON u.id = a.author_id`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func buildWhere(params ListArticlesParams) (string, []any) {
	var (
		where []string
		args  []any
	)

	if !params.Drafts {
		where = append(where, "a.published_at IS NOT NULL")
	}

	if params.Search != "" {
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(a.title ILIKE $%d OR a.content ILIKE $%d)", n, n,
		))
	}

	if params.Category != "" {
		args = append(args, params.Category)
		where = append(where, fmt.Sprintf("LOWER(c.slug) = LOWER($%d)", len(args)))
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func orderBy(sort string) string {
	switch sort {
	case SortOldest:
		return " ORDER BY a.created_at ASC, a.id ASC"
	case SortTitle:
		return " ORDER BY a.title ASC, a.id ASC"
	default:
		return " ORDER BY a.created_at DESC, a.id DESC"
	}
}

func (r *repository) List(
	ctx context.Context,
	params ListArticlesParams,
) ([]Row, error) {
	where, args := buildWhere(params)
	args = append(args, params.Limit, params.Offset())

	query := rowSelect + where + orderBy(params.Sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var rows []Row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	return rows, nil
}

func (r *repository) Count(
	ctx context.Context,
	params ListArticlesParams,
) (int, error) {
	where, args := buildWhere(params)

	query := `
		SELECT COUNT(*)
		FROM articles a
		JOIN categories c ON c.id = a.category_id` + where

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}

	return total, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Row, error) {
	query := rowSelect + ` WHERE a.slug = $1`

	var row Row
	err := r.db.GetContext(ctx, &row, query, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get article: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}

	return &row, nil
}

func (r *repository) Similar(
	ctx context.Context,
	articleID, categoryID string,
	limit int,
) ([]Row, error) {
	query := rowSelect + `
		WHERE a.category_id = $1 AND a.id <> $2 AND a.published_at IS NOT NULL
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $3`

	var rows []Row
	if err := r.db.SelectContext(ctx, &rows, query, categoryID, articleID, limit); err != nil {
		return nil, fmt.Errorf("similar articles: %w", err)
	}

	return rows, nil
}

func (r *repository) Create(ctx context.Context, a *Article) error {
	query := `
		INSERT INTO articles (id, slug, title, content, excerpt, image,
		                      category_id, author_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID,
		a.Slug,
		a.Title,
		a.Content,
		a.Excerpt,
		a.Image,
		a.CategoryID,
		a.AuthorID,
		a.PublishedAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create article: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create article: %w", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, a *Article) error {
	query := `
		UPDATE articles
		SET slug = $2, title = $3, content = $4, excerpt = $5, image = $6,
		    category_id = $7, published_at = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID,
		a.Slug,
		a.Title,
		a.Content,
		a.Excerpt,
		a.Image,
		a.CategoryID,
		a.PublishedAt,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update article: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update article: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update article: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete article: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Counts(ctx context.Context) (*Counts, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE published_at IS NOT NULL) AS published,
		       COUNT(*) FILTER (WHERE published_at IS NULL) AS drafts
		FROM articles`

	var counts Counts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}

	return &counts, nil
}
