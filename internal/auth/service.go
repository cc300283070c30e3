// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/minicms/internal/core"
	"github.com/carterperez-dev/minicms/internal/middleware"
)

var ErrTokenReuse = errors.New("token reuse detected")

type UserInfo struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Image        string
	Role         core.Role
	IsActive     bool
	TokenVersion int
}

// NewUser carries the profile used when a first login creates the account.
type NewUser struct {
	Email     string
	FirstName string
	LastName  string
	Image     string
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	FindOrCreate(ctx context.Context, nu NewUser) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
}

type Service struct {
	repo         Repository
	otp          *OTPService
	jwt          *JWTManager
	userProvider UserProvider
	redis        *redis.Client
}

func NewService(
	repo Repository,
	otp *OTPService,
	jwt *JWTManager,
	userProvider UserProvider,
	redisClient *redis.Client,
) *Service {
	return &Service{
		repo:         repo,
		otp:          otp,
		jwt:          jwt,
		userProvider: userProvider,
		redis:        redisClient,
	}
}

// SendOTP refuses known inactive accounts before spending any of the
// email's issuance budget.
func (s *Service) SendOTP(
	ctx context.Context,
	email string,
) (*IssueResult, error) {
	user, err := s.userProvider.GetByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		if !user.IsActive {
			return nil, fmt.Errorf("send otp: %w", ErrAccountInactive)
		}
	case errors.Is(err, core.ErrNotFound):
	default:
		return nil, fmt.Errorf("send otp: %w", err)
	}

	return s.otp.Issue(ctx, email)
}

// LoginWithOTP verifies the code and opens a session. Every failure after
// a successful code match collapses into ErrVerificationFailed.
func (s *Service) LoginWithOTP(
	ctx context.Context,
	email, code, userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.otp.Verify(ctx, email, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return nil, err
		}
		slog.Error("otp verification failed", "email", email, "error", err)
		return nil, fmt.Errorf("login with otp: %w", ErrVerificationFailed)
	}

	return s.signIn(ctx, user, MethodEmail, userAgent, ipAddress)
}

// LoginWithProvider opens a session for an identity asserted by an OAuth
// provider.
func (s *Service) LoginWithProvider(
	ctx context.Context,
	provider string,
	nu NewUser,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	if normalizeEmail(nu.Email) == "" {
		return nil, fmt.Errorf("oauth login: missing email: %w", ErrVerificationFailed)
	}

	user, err := s.userProvider.FindOrCreate(ctx, nu)
	if err != nil {
		return nil, fmt.Errorf("oauth login: %w", err)
	}

	return s.signIn(ctx, user, provider, userAgent, ipAddress)
}

func (s *Service) signIn(
	ctx context.Context,
	user *UserInfo,
	method, userAgent, ipAddress string,
) (*AuthResponse, error) {
	if !user.IsActive {
		slog.Warn("sign-in rejected for inactive account", "user_id", user.ID)
		return nil, fmt.Errorf("sign in: %w: %w", ErrVerificationFailed, ErrAccountInactive)
	}

	resp, err := s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
	if err != nil {
		slog.Error("establish session", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("sign in: %w", ErrVerificationFailed)
	}

	s.otp.logLogin(ctx, user.Email, method)

	return resp, nil
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	tokenHash := core.HashToken(refreshToken)

	storedToken, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsUsed {
		slog.Warn("refresh token reuse detected",
			"user_id", storedToken.UserID,
			"family_id", storedToken.FamilyID,
		)
		//nolint:errcheck // security revocation continues regardless
		_ = s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID)
		return nil, ErrTokenReuse
	}

	if !storedToken.IsValid() {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByID(ctx, storedToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.IsActive {
		//nolint:errcheck // account is already locked out
		_ = s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID)
		return nil, fmt.Errorf("refresh: %w", ErrAccountInactive)
	}

	return s.createAuthResponse(
		ctx,
		user,
		userAgent,
		ipAddress,
		storedToken.FamilyID,
		&storedToken.ID,
	)
}

func (s *Service) Logout(
	ctx context.Context,
	refreshToken, userID string,
) error {
	tokenHash := core.HashToken(refreshToken)

	storedToken, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find token: %w", err)
	}

	if storedToken.UserID != userID {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, storedToken.ID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

// RevokeAccessToken denylists an access token until it would have expired
// anyway.
func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	if s.redis == nil || jti == "" {
		return nil
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	if s.redis == nil || jti == "" {
		return false, nil
	}

	exists, err := s.redis.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

// VerifyAccessToken checks the signature, the denylist and the stored
// account. The role in the returned claims is the stored one, so a demotion
// takes effect on the next request.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.IsAccessTokenBlacklisted(ctx, claims.JTI)
	if err != nil {
		slog.Warn("token blacklist unavailable", "error", err)
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	user, err := s.userProvider.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}

	if !user.IsActive {
		return nil, core.ForbiddenError(core.T("account.inactive"))
	}

	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	claims.Role = user.Role
	claims.Email = user.Email

	return claims, nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.GetActiveSessionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// CleanupExpired removes expired codes and stale refresh tokens.
func (s *Service) CleanupExpired(ctx context.Context) (codes, tokens int64, err error) {
	codes, err = s.otp.Cleanup(ctx)
	if err != nil {
		return 0, 0, err
	}

	tokens, err = s.repo.DeleteExpired(ctx)
	if err != nil {
		return codes, 0, err
	}

	return codes, tokens, nil
}

func (s *Service) createAuthResponse(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID string,
	oldTokenID *string,
) (*AuthResponse, error) {
	accessToken, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(user.ID, familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newTokenID := uuid.New().String()

	refreshTokenEntity := &RefreshToken{
		ID:        newTokenID,
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := s.repo.Create(ctx, refreshTokenEntity); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if oldTokenID != nil {
		//nolint:errcheck // best-effort token chain tracking
		_ = s.repo.MarkAsUsed(ctx, *oldTokenID, newTokenID)
	}

	ttl := s.jwt.AccessTokenTTL()

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    time.Now().Add(ttl),
		},
	}, nil
}

func toUserResponse(u *UserInfo) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Image:     u.Image,
		Role:      u.Role.String(),
	}
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}
