// AngelaMos | 2026
// repository.go

package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/minicms/internal/core"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(repo Repository) error) error
	List(ctx context.Context, params ListParams) ([]WithCount, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	MoveArticles(ctx context.Context, fromIDs []string, toID string) (int, error)
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
}

const categoryColumns = `id, slug, name, description, created_at, updated_at`

type repository struct {
	db   core.DBTX
	conn *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn, conn: conn}
}

func (r *repository) WithTx(
	ctx context.Context,
	fn func(repo Repository) error,
) error {
	if r.conn == nil {
		return fn(r)
	}

	return core.InTx(ctx, r.conn, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx})
	})
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]WithCount, error) {
	order := `c.name ASC`
	if params.Popular {
		order = `article_count DESC, c.name ASC`
	}

	query := `
		SELECT c.id, c.slug, c.name, c.description, c.created_at, c.updated_at,
		       COUNT(a.id) AS article_count
		FROM categories c
		LEFT JOIN articles a ON a.category_id = c.id
		GROUP BY c.id
		ORDER BY ` + order

	args := []any{}
	if params.Limit > 0 {
		query += ` LIMIT $1`
		args = append(args, params.Limit)
	}

	var rows []WithCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return rows, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Category, error) {
	return r.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	return r.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug)
}

func (r *repository) getOne(
	ctx context.Context,
	query string,
	arg string,
) (*Category, error) {
	var c Category
	err := r.db.GetContext(ctx, &c, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get category: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	return &c, nil
}

func (r *repository) Create(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (id, slug, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, c.ID, c.Slug, c.Name, c.Description).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create category: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create category: %w", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, c *Category) error {
	query := `
		UPDATE categories
		SET slug = $2, name = $3, description = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query, c.ID, c.Slug, c.Name, c.Description).
		Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update category: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update category: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update category: %w", err)
	}

	return nil
}

func (r *repository) MoveArticles(
	ctx context.Context,
	fromIDs []string,
	toID string,
) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE articles SET category_id = $2, updated_at = NOW()
		WHERE category_id = ANY($1)`,
		fromIDs, toID,
	)
	if err != nil {
		return 0, fmt.Errorf("move articles: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("move articles: %w", err)
	}

	return int(n), nil
}

func (r *repository) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete categories: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete categories: %w", err)
	}

	return int(n), nil
}
