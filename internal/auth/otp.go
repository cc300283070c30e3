// AngelaMos | 2026
// otp.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/minicms/internal/config"
	"github.com/carterperez-dev/minicms/internal/core"
)

var (
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrEmailDelivery      = errors.New("email delivery failed")
	ErrAccountInactive    = errors.New("account inactive")
	ErrVerificationFailed = errors.New("verification failed")
)

// RateLimitError is returned when an email has used its issuance budget.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("otp issuance limited, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return core.ErrRateLimited
}

// RetryAfterHours rounds up so the message never promises an earlier retry.
func (e *RateLimitError) RetryAfterHours() int {
	return int(math.Ceil(e.RetryAfter.Hours()))
}

// CodeSender delivers a code and returns the transport message id.
type CodeSender interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) (string, error)
}

type IssueResult struct {
	AlreadySent bool
	MessageID   string
}

type OTPService struct {
	repo     OTPRepository
	users    UserProvider
	sender   CodeSender
	cfg      config.OTPConfig
	now      func() time.Time
	generate func() (string, error)
}

type OTPOption func(*OTPService)

func WithClock(now func() time.Time) OTPOption {
	return func(s *OTPService) { s.now = now }
}

func WithCodeGenerator(gen func() (string, error)) OTPOption {
	return func(s *OTPService) { s.generate = gen }
}

func NewOTPService(
	repo OTPRepository,
	users UserProvider,
	sender CodeSender,
	cfg config.OTPConfig,
	opts ...OTPOption,
) *OTPService {
	s := &OTPService{
		repo:   repo,
		users:  users,
		sender: sender,
		cfg:    cfg,
		now:    time.Now,
	}
	s.generate = func() (string, error) {
		return core.GenerateNumericCode(s.cfg.CodeLength)
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Issue sends a fresh code unless a live one exists. The checks, the code
// insert and the send run under the per-email lock so concurrent requests
// cannot both pass the existence and budget checks.
func (s *OTPService) Issue(
	ctx context.Context,
	email string,
) (*IssueResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("issue otp: %w", core.ErrInvalidInput)
	}

	ctx, span := core.StartSpan(ctx, "otp.issue")
	defer span.End()

	var (
		result *IssueResult
		sentAt time.Time
	)

	err := s.repo.WithEmailLock(ctx, email, func(repo OTPRepository) error {
		now := s.now()

		_, err := repo.FindActive(ctx, email, now)
		if err == nil {
			core.AddSpanEvent(ctx, "otp.already_sent")
			result = &IssueResult{AlreadySent: true}
			return nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return err
		}

		sent, err := repo.CountLogs(
			ctx,
			email,
			LogTypeEmailSend,
			now.Add(-s.cfg.SendWindow),
		)
		if err != nil {
			return err
		}

		if sent >= s.cfg.MaxSends {
			slog.Warn("otp issuance rate limited",
				"email", email,
				"sent", sent,
				"window", s.cfg.SendWindow,
			)
			return &RateLimitError{RetryAfter: s.cfg.SendWindow}
		}

		if err := repo.DeleteExpiredForEmail(ctx, email, now); err != nil {
			return err
		}

		value, err := s.generate()
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}

		code := &OTPCode{
			ID:        uuid.New().String(),
			Email:     email,
			Code:      value,
			CreatedAt: now,
			ExpiresAt: now.Add(s.cfg.TTL),
		}

		if err := repo.Create(ctx, code); err != nil {
			return err
		}

		messageID, sendErr := s.sender.SendOTP(ctx, email, value, s.cfg.TTL)
		if sendErr != nil {
			slog.Warn("otp email delivery failed",
				"email", email,
				"error", sendErr,
			)
			if err := repo.DeleteByID(ctx, code.ID); err != nil {
				slog.Error("remove undelivered otp", "error", err)
			}
			return fmt.Errorf("%w: %w", ErrEmailDelivery, sendErr)
		}

		sentAt = now
		result = &IssueResult{MessageID: messageID}
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("issue otp: %w", err)
	}

	// The code is committed once the email is out. The send log is written
	// after the lock is released, so a failed write under-counts the hourly
	// budget by one instead of discarding a code the user already received.
	if !sentAt.IsZero() {
		if err := s.repo.AppendLog(ctx, &LoginLog{
			UserEmail: email,
			Method:    MethodEmail,
			Type:      LogTypeEmailSend,
			Timestamp: sentAt,
		}); err != nil {
			core.AddSpanEvent(ctx, "otp.send_log_failed")
			slog.Error("record otp send",
				"email", email,
				"error", err,
			)
		}
	}

	return result, nil
}

// Verify consumes a code. Wrong and expired codes are indistinguishable to
// the caller. On success every code for the email is removed and the
// account is created if this is its first login.
func (s *OTPService) Verify(
	ctx context.Context,
	email, code string,
) (*UserInfo, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)

	if email == "" || !core.IsNumericCode(code, s.cfg.CodeLength) {
		return nil, fmt.Errorf("verify otp: %w", ErrInvalidCode)
	}

	if _, err := s.repo.FindMatch(ctx, email, code, s.now()); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify otp: %w", ErrInvalidCode)
		}
		return nil, fmt.Errorf("verify otp: %w", err)
	}

	user, err := s.users.FindOrCreate(ctx, NewUser{Email: email})
	if err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}

	if err := s.repo.DeleteAllForEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}

	return user, nil
}

// Cleanup removes every expired code.
func (s *OTPService) Cleanup(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func (s *OTPService) logLogin(ctx context.Context, email, method string) {
	if err := s.repo.AppendLog(ctx, &LoginLog{
		UserEmail: email,
		Method:    method,
		Type:      LogTypeLogin,
		Timestamp: s.now(),
	}); err != nil {
		slog.Error("append login log", "email", email, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
