// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/minicms/internal/article"
	"github.com/carterperez-dev/minicms/internal/comment"
	"github.com/carterperez-dev/minicms/internal/core"
)

type ArticleCounter interface {
	Counts(ctx context.Context) (*article.Counts, error)
}

type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

type CommentCounter interface {
	Stats(ctx context.Context) (*comment.Stats, error)
}

type Handler struct {
	articles   ArticleCounter
	users      UserCounter
	comments   CommentCounter
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	dbPing     func(ctx context.Context) error
	redisPing  func(ctx context.Context) error
}

type HandlerConfig struct {
	Articles   ArticleCounter
	Users      UserCounter
	Comments   CommentCounter
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	DBPing     func(ctx context.Context) error
	RedisPing  func(ctx context.Context) error
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		articles:   cfg.Articles,
		users:      cfg.Users,
		comments:   cfg.Comments,
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		dbPing:     cfg.DBPing,
		redisPing:  cfg.RedisPing,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/stats", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.GetDashboard)
		r.Get("/runtime", h.GetRuntimeStats)
	})
}

// GetDashboard gathers content counts and infrastructure health in
// parallel. Any failing content count fails the request.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	var (
		resp     DashboardResponse
		articles *article.Counts
		comments *comment.Stats
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		articles, err = h.articles.Counts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		resp.Content.Users, err = h.users.Count(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = h.comments.Stats(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp.Content.Articles = *articles
	resp.Content.Comments = *comments
	resp.Database = DatabaseStatus{
		Healthy: ping(r.Context(), "database", h.dbPing),
		Stats:   h.getDBStats(),
	}
	resp.Redis = RedisStatus{
		Healthy: ping(r.Context(), "redis", h.redisPing),
		Stats:   h.getRedisStats(),
	}
	resp.Runtime = readRuntimeStats()

	core.OK(w, resp)
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, readRuntimeStats())
}

func ping(ctx context.Context, name string, fn func(context.Context) error) bool {
	if fn == nil {
		return false
	}
	if err := fn(ctx); err != nil {
		slog.Warn("dashboard ping failed", "dependency", name, "error", err)
		return false
	}
	return true
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}
