// AngelaMos | 2026
// repository.go

package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/minicms/internal/core"
)

type Repository interface {
	// WithTx runs fn against a repository bound to one transaction.
	WithTx(ctx context.Context, fn func(repo Repository) error) error
	ArticleExists(ctx context.Context, articleID string) (bool, error)
	Create(ctx context.Context, c *Comment) error
	GetByID(ctx context.Context, id string) (*Comment, error)
	GetByIDs(ctx context.Context, ids []string) ([]Comment, error)
	ListApprovedByArticle(ctx context.Context, articleID string) ([]ThreadRow, error)
	ListForModeration(
		ctx context.Context,
		filter ModerationFilter,
	) ([]ModerationRow, int, error)
	Approve(ctx context.Context, id string) (*Comment, error)
	DeleteSubtrees(ctx context.Context, ids []string) (int, error)
	DeleteAndReparent(ctx context.Context, id string) error
	CountByApproval(ctx context.Context) (*Stats, error)
}

const commentColumns = `id, content, author_id, article_id, parent_id, depth,
		       is_approved, created_at, updated_at`

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

func (r *repository) ArticleExists(
	ctx context.Context,
	articleID string,
) (bool, error) {
	var exists bool
	err := r.db.GetContext(
		ctx,
		&exists,
		`SELECT EXISTS (SELECT 1 FROM articles WHERE id = $1)`,
		articleID,
	)
	if err != nil {
		return false, fmt.Errorf("article exists: %w", err)
	}
	return exists, nil
}

func (r *repository) Create(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (id, content, author_id, article_id, parent_id,
		                      depth, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID,
		c.Content,
		c.AuthorID,
		c.ArticleID,
		c.ParentID,
		c.Depth,
		c.IsApproved,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	var c Comment
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get comment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}

	return &c, nil
}

func (r *repository) GetByIDs(
	ctx context.Context,
	ids []string,
) ([]Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = ANY($1)`

	var comments []Comment
	if err := r.db.SelectContext(ctx, &comments, query, ids); err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}

	return comments, nil
}

func (r *repository) ListApprovedByArticle(
	ctx context.Context,
	articleID string,
) ([]ThreadRow, error) {
	query := `
		SELECT c.id, c.content, c.author_id, c.article_id, c.parent_id, c.depth,
		       c.is_approved, c.created_at, c.updated_at,
		       u.first_name AS author_first_name,
		       u.last_name AS author_last_name,
		       u.image AS author_image
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.article_id = $1 AND c.is_approved
		ORDER BY c.created_at DESC, c.id`

	var rows []ThreadRow
	if err := r.db.SelectContext(ctx, &rows, query, articleID); err != nil {
		return nil, fmt.Errorf("list approved comments: %w", err)
	}

	return rows, nil
}

func (r *repository) ListForModeration(
	ctx context.Context,
	filter ModerationFilter,
) ([]ModerationRow, int, error) {
	var (
		where []string
		args  []any
	)

	if filter.Approved != nil {
		args = append(args, *filter.Approved)
		where = append(where, fmt.Sprintf("c.is_approved = $%d", len(args)))
	}
	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		where = append(where, fmt.Sprintf("c.author_id = $%d", len(args)))
	}
	if filter.ArticleID != "" {
		args = append(args, filter.ArticleID)
		where = append(where, fmt.Sprintf("c.article_id = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM comments c ` + clause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count moderation comments: %w", err)
	}

	pageArgs := append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf(`
		SELECT c.id, c.content, c.author_id, c.article_id, c.parent_id, c.depth,
		       c.is_approved, c.created_at, c.updated_at,
		       a.slug AS article_slug, a.title AS article_title,
		       u.email AS author_email,
		       u.first_name AS author_first_name,
		       u.last_name AS author_last_name
		FROM comments c
		JOIN articles a ON a.id = c.article_id
		JOIN users u ON u.id = c.author_id
		%s
		ORDER BY c.created_at DESC, c.id
		LIMIT $%d OFFSET $%d`, clause, len(args)+1, len(args)+2)

	var rows []ModerationRow
	if err := r.db.SelectContext(ctx, &rows, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("list moderation comments: %w", err)
	}

	return rows, total, nil
}

func (r *repository) Approve(ctx context.Context, id string) (*Comment, error) {
	query := `
		UPDATE comments SET is_approved = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + commentColumns

	var c Comment
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("approve comment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("approve comment: %w", err)
	}

	return &c, nil
}

// DeleteSubtrees removes every target together with all of its replies in
// one statement, so the parent foreign key is only checked once the whole
// subtree is gone.
func (r *repository) DeleteSubtrees(
	ctx context.Context,
	ids []string,
) (int, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT id FROM comments WHERE id = ANY($1)
			UNION
			SELECT c.id FROM comments c JOIN subtree s ON c.parent_id = s.id
		)
		DELETE FROM comments WHERE id IN (SELECT id FROM subtree)`

	result, err := r.db.ExecContext(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("delete comment subtrees: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete comment subtrees: %w", err)
	}

	return int(n), nil
}

// DeleteAndReparent lifts the target's replies one level up to the
// target's own parent before removing it.
func (r *repository) DeleteAndReparent(ctx context.Context, id string) error {
	lift := `
		WITH RECURSIVE descendants AS (
			SELECT id FROM comments WHERE parent_id = $1
			UNION
			SELECT c.id FROM comments c JOIN descendants d ON c.parent_id = d.id
		)
		UPDATE comments SET depth = depth - 1, updated_at = NOW()
		WHERE id IN (SELECT id FROM descendants)`

	if _, err := r.db.ExecContext(ctx, lift, id); err != nil {
		return fmt.Errorf("lift replies: %w", err)
	}

	move := `
		UPDATE comments
		SET parent_id = (SELECT parent_id FROM comments WHERE id = $1),
		    updated_at = NOW()
		WHERE parent_id = $1`

	if _, err := r.db.ExecContext(ctx, move, id); err != nil {
		return fmt.Errorf("reparent replies: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete comment: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) CountByApproval(ctx context.Context) (*Stats, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE is_approved) AS approved,
		       COUNT(*) FILTER (WHERE NOT is_approved) AS pending
		FROM comments`

	var stats Stats
	if err := r.db.QueryRowxContext(ctx, query).Scan(
		&stats.Approved,
		&stats.Pending,
	); err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	return &stats, nil
}
