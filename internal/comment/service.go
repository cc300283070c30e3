// AngelaMos | 2026
// service.go

package comment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/minicms/internal/auth"
	"github.com/carterperez-dev/minicms/internal/config"
	"github.com/carterperez-dev/minicms/internal/core"
)

var (
	ErrArticleNotFound       = errors.New("article not found")
	ErrParentNotFound        = errors.New("parent comment not found")
	ErrParentArticleMismatch = errors.New("parent comment belongs to another article")
	ErrMaxDepthExceeded      = errors.New("comment nesting too deep")
	ErrCommentNotFound       = errors.New("comment not found")

	ErrDeleteForbidden = fmt.Errorf("delete another author's comment: %w", core.ErrForbidden)
	ErrListForbidden   = fmt.Errorf("list another author's comments: %w", core.ErrForbidden)
)

// ActorProvider resolves the stored account behind a token subject. Role
// and active flag are always taken from here, never from the token.
type ActorProvider interface {
	GetByID(ctx context.Context, id string) (*auth.UserInfo, error)
}

type Service struct {
	repo         Repository
	actors       ActorProvider
	validator    *ContentValidator
	maxDepth     int
	deletePolicy string
}

func NewService(
	repo Repository,
	actors ActorProvider,
	cfg config.CommentsConfig,
) *Service {
	return &Service{
		repo:         repo,
		actors:       actors,
		validator:    NewContentValidator(cfg),
		maxDepth:     cfg.MaxDepth,
		deletePolicy: cfg.DeletePolicy,
	}
}

func (s *Service) Validator() *ContentValidator {
	return s.validator
}

func (s *Service) MaxDepth() int {
	return s.maxDepth
}

func (s *Service) Create(
	ctx context.Context,
	actorID string,
	req CreateCommentRequest,
) (*CreateResult, error) {
	if actorID == "" {
		return nil, fmt.Errorf("create comment: %w", core.ErrUnauthorized)
	}

	content, err := s.validator.Check(req.Content)
	if err != nil {
		return nil, err
	}

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if !actor.IsActive {
		return nil, fmt.Errorf("create comment: %w", auth.ErrAccountInactive)
	}

	exists, err := s.repo.ArticleExists(ctx, req.ArticleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("create comment: %w", ErrArticleNotFound)
	}

	depth := 0
	if req.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *req.ParentID)
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("create comment: %w", ErrParentNotFound)
		}
		if err != nil {
			return nil, err
		}
		if parent.ArticleID != req.ArticleID {
			return nil, fmt.Errorf("create comment: %w", ErrParentArticleMismatch)
		}

		depth = parent.Depth + 1
		if depth >= s.maxDepth {
			return nil, fmt.Errorf("create comment: %w", ErrMaxDepthExceeded)
		}
	}

	c := &Comment{
		ID:         uuid.New().String(),
		Content:    content,
		AuthorID:   actor.ID,
		ArticleID:  req.ArticleID,
		ParentID:   req.ParentID,
		Depth:      depth,
		IsApproved: actor.Role.AutoApprovesComments(),
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	if !c.IsApproved {
		slog.Info("comment awaiting moderation",
			"comment_id", c.ID,
			"article_id", c.ArticleID,
			"author_id", c.AuthorID,
		)
	}

	return &CreateResult{Comment: c, Pending: !c.IsApproved}, nil
}

func (s *Service) ListApproved(
	ctx context.Context,
	articleID string,
) ([]*Node, error) {
	rows, err := s.repo.ListApprovedByArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}

	return BuildTree(rows, s.maxDepth), nil
}

// BuildTree links approved rows into threads. A reply whose parent is not
// among the rows is unreachable and dropped along with its own replies.
// Siblings are ordered newest first.
func BuildTree(rows []ThreadRow, maxDepth int) []*Node {
	sorted := slices.Clone(rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	nodes := make(map[string]*Node, len(sorted))
	for i := range sorted {
		row := &sorted[i]
		if row.Depth >= maxDepth {
			continue
		}
		nodes[row.ID] = &Node{
			ID:        row.ID,
			Content:   row.Content,
			ArticleID: row.ArticleID,
			ParentID:  row.ParentID,
			Depth:     row.Depth,
			Author: AuthorResponse{
				ID:        row.AuthorID,
				FirstName: row.AuthorFirstName,
				LastName:  row.AuthorLastName,
				Image:     row.AuthorImage,
			},
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			Replies:   []*Node{},
		}
	}

	roots := []*Node{}
	for i := range sorted {
		node, ok := nodes[sorted[i].ID]
		if !ok {
			continue
		}
		if sorted[i].IsRoot() {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*node.ParentID]; ok {
			parent.Replies = append(parent.Replies, node)
		}
	}

	return roots
}

// ListForModeration scopes non-admins to their own comments.
func (s *Service) ListForModeration(
	ctx context.Context,
	actorID string,
	filter ModerationFilter,
) ([]ModerationRow, int, error) {
	if actorID == "" {
		return nil, 0, fmt.Errorf("list comments: %w", core.ErrUnauthorized)
	}

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}

	if !actor.Role.IsAdmin() {
		if filter.AuthorID != "" && filter.AuthorID != actor.ID {
			return nil, 0, fmt.Errorf("list comments: %w", ErrListForbidden)
		}
		filter.AuthorID = actor.ID
	}

	filter.Normalize()
	return s.repo.ListForModeration(ctx, filter)
}

func (s *Service) Approve(
	ctx context.Context,
	actorID, commentID string,
) (*Comment, error) {
	if actorID == "" {
		return nil, fmt.Errorf("approve comment: %w", core.ErrUnauthorized)
	}

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("approve comment: %w", err)
	}
	if !actor.Role.IsAdmin() {
		return nil, fmt.Errorf("approve comment: %w", core.ErrForbidden)
	}

	c, err := s.repo.Approve(ctx, commentID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("approve comment: %w", ErrCommentNotFound)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("comment approved", "comment_id", c.ID, "actor_id", actor.ID)
	return c, nil
}

// Delete removes a batch of comments under the configured policy. The admin
// flag is honored only when the stored role is ADMIN. A non-admin batch is
// all or nothing: every id must exist and belong to the actor.
func (s *Service) Delete(
	ctx context.Context,
	actorID string,
	ids []string,
	adminAction bool,
) (*DeleteResult, error) {
	if actorID == "" {
		return nil, fmt.Errorf("delete comments: %w", core.ErrUnauthorized)
	}

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("delete comments: %w", err)
	}

	isAdmin := actor.Role.IsAdmin()
	if adminAction && !isAdmin {
		return nil, fmt.Errorf("delete comments: %w", core.ErrForbidden)
	}

	ids = dedupe(ids)
	if len(ids) == 0 {
		return &DeleteResult{}, nil
	}

	ctx, span := core.StartSpan(ctx, "comment.delete",
		attribute.Int("comment.count", len(ids)),
		attribute.String("comment.delete_policy", s.deletePolicy),
		attribute.Bool("comment.admin_action", adminAction),
	)
	defer span.End()

	var deleted int
	err = s.repo.WithTx(ctx, func(repo Repository) error {
		targets, err := repo.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}

		if !isAdmin {
			if len(targets) != len(ids) {
				return ErrCommentNotFound
			}
			for i := range targets {
				if targets[i].AuthorID != actor.ID {
					return ErrDeleteForbidden
				}
			}
		}

		deleted, err = s.applyDeletePolicy(ctx, repo, targets)
		return err
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("delete comments: %w", err)
	}

	slog.Info("comments deleted",
		"actor_id", actor.ID,
		"requested", len(ids),
		"deleted", deleted,
		"policy", s.deletePolicy,
	)

	return &DeleteResult{Deleted: deleted}, nil
}

func (s *Service) applyDeletePolicy(
	ctx context.Context,
	repo Repository,
	targets []Comment,
) (int, error) {
	if len(targets) == 0 {
		return 0, nil
	}

	switch s.deletePolicy {
	case config.DeletePolicyReparent:
		// deepest first so a reply lifted out of a deleted target can
		// still be lifted again if its new parent is also a target
		sort.SliceStable(targets, func(i, j int) bool {
			return targets[i].Depth > targets[j].Depth
		})
		for i := range targets {
			if err := repo.DeleteAndReparent(ctx, targets[i].ID); err != nil {
				return 0, err
			}
		}
		return len(targets), nil
	default:
		ids := make([]string, 0, len(targets))
		for i := range targets {
			ids = append(ids, targets[i].ID)
		}
		return repo.DeleteSubtrees(ctx, ids)
	}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.CountByApproval(ctx)
}

func (s *Service) actor(ctx context.Context, id string) (*auth.UserInfo, error) {
	actor, err := s.actors.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return actor, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
