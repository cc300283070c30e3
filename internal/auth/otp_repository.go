// AngelaMos | 2026
// otp_repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/minicms/internal/core"
)

type OTPRepository interface {
	// WithEmailLock runs fn with issuance for email serialized across
	// processes. fn receives a repository bound to the locked transaction.
	WithEmailLock(
		ctx context.Context,
		email string,
		fn func(repo OTPRepository) error,
	) error
	FindActive(ctx context.Context, email string, now time.Time) (*OTPCode, error)
	FindMatch(
		ctx context.Context,
		email, code string,
		now time.Time,
	) (*OTPCode, error)
	Create(ctx context.Context, code *OTPCode) error
	DeleteByID(ctx context.Context, id string) error
	DeleteExpiredForEmail(ctx context.Context, email string, now time.Time) error
	DeleteAllForEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountLogs(
		ctx context.Context,
		email, logType string,
		since time.Time,
	) (int, error)
	AppendLog(ctx context.Context, entry *LoginLog) error
}

type otpRepository struct {
	db   core.DBTX
	conn *sqlx.DB
}

func NewOTPRepository(conn *sqlx.DB) OTPRepository {
	return &otpRepository{db: conn, conn: conn}
}

func (r *otpRepository) WithEmailLock(
	ctx context.Context,
	email string,
	fn func(repo OTPRepository) error,
) error {
	if r.conn == nil {
		return fn(r)
	}

	return core.InTx(ctx, r.conn, func(tx *sqlx.Tx) error {
		if err := core.AdvisoryLock(ctx, tx, "otp:"+email); err != nil {
			return err
		}
		return fn(&otpRepository{db: tx})
	})
}

func (r *otpRepository) FindActive(
	ctx context.Context,
	email string,
	now time.Time,
) (*OTPCode, error) {
	query := `
		SELECT id, email, code, created_at, expires_at
		FROM otp_codes
		WHERE email = $1 AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1`

	var code OTPCode
	err := r.db.GetContext(ctx, &code, query, email, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find active otp: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find active otp: %w", err)
	}

	return &code, nil
}

func (r *otpRepository) FindMatch(
	ctx context.Context,
	email, code string,
	now time.Time,
) (*OTPCode, error) {
	query := `
		SELECT id, email, code, created_at, expires_at
		FROM otp_codes
		WHERE email = $1 AND code = $2 AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1`

	var otp OTPCode
	err := r.db.GetContext(ctx, &otp, query, email, code, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find otp: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find otp: %w", err)
	}

	return &otp, nil
}

func (r *otpRepository) Create(ctx context.Context, code *OTPCode) error {
	query := `
		INSERT INTO otp_codes (id, email, code, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query,
		code.ID,
		code.Email,
		code.Code,
		code.CreatedAt,
		code.ExpiresAt,
	); err != nil {
		return fmt.Errorf("create otp: %w", err)
	}

	return nil
}

func (r *otpRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(
		ctx,
		`DELETE FROM otp_codes WHERE id = $1`,
		id,
	); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

func (r *otpRepository) DeleteExpiredForEmail(
	ctx context.Context,
	email string,
	now time.Time,
) error {
	if _, err := r.db.ExecContext(
		ctx,
		`DELETE FROM otp_codes WHERE email = $1 AND expires_at <= $2`,
		email, now,
	); err != nil {
		return fmt.Errorf("delete expired otp: %w", err)
	}
	return nil
}

func (r *otpRepository) DeleteAllForEmail(
	ctx context.Context,
	email string,
) error {
	if _, err := r.db.ExecContext(
		ctx,
		`DELETE FROM otp_codes WHERE email = $1`,
		email,
	); err != nil {
		return fmt.Errorf("delete otp for email: %w", err)
	}
	return nil
}

func (r *otpRepository) DeleteExpired(
	ctx context.Context,
	now time.Time,
) (int64, error) {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM otp_codes WHERE expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired otp: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired otp: %w", err)
	}

	return rows, nil
}

func (r *otpRepository) CountLogs(
	ctx context.Context,
	email, logType string,
	since time.Time,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM login_logs
		WHERE user_email = $1 AND type = $2 AND timestamp >= $3`

	var count int
	if err := r.db.GetContext(ctx, &count, query, email, logType, since); err != nil {
		return 0, fmt.Errorf("count login logs: %w", err)
	}

	return count, nil
}

func (r *otpRepository) AppendLog(ctx context.Context, entry *LoginLog) error {
	query := `
		INSERT INTO login_logs (user_email, method, type, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if err := r.db.GetContext(ctx, &entry.ID, query,
		entry.UserEmail,
		entry.Method,
		entry.Type,
		entry.Timestamp,
	); err != nil {
		return fmt.Errorf("append login log: %w", err)
	}

	return nil
}
