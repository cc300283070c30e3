// AngelaMos | 2026
// janitor.go

package auth

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically purges expired OTP codes and refresh tokens. It
// stops when ctx is cancelled.
type Janitor struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

func NewJanitor(service *Service, interval time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{service: service, interval: interval, logger: logger}
}

func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	codes, tokens, err := j.service.CleanupExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			j.logger.Error("cleanup expired credentials", "error", err)
		}
		return
	}

	if codes > 0 || tokens > 0 {
		j.logger.Info("expired credentials removed",
			"otp_codes", codes,
			"refresh_tokens", tokens,
		)
	}
}
