package admin

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/wiwi-waitlist/internal/log"
	apperrors "github.com/akeren/wiwi-waitlist/pkg/errors"
)

const (
	MessageInvalidPassword    = "Invalid password"
	MessageAdminDisabled      = "Admin access is not configured"
	MessageSessionRequired    = "Authentication required"
	MessageSessionInvalid     = "Session is invalid or has expired"
	MessageSessionUnavailable = "Unable to verify session"
)

type AuthService interface {
	// Login checks the password and opens a new session.
	Login(ctx context.Context, password string) (*Session, error)
	// Authenticate returns the live session behind token.
	Authenticate(ctx context.Context, token string) (*Session, error)
	// Logout revokes the session behind token. Unknown or invalid tokens are ignored.
	Logout(ctx context.Context, token string) error
}

type authService struct {
	logger   *log.Logger
	verifier PasswordVerifier
	issuer   *TokenIssuer
	store    SessionStore
	now      func() time.Time
}

func NewAuthService(logger *log.Logger, verifier PasswordVerifier, issuer *TokenIssuer, store SessionStore) AuthService {
	return &authService{
		logger:   logger,
		verifier: verifier,
		issuer:   issuer,
		store:    store,
		now:      time.Now,
	}
}

func (s *authService) Login(ctx context.Context, password string) (*Session, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if err := s.verifier.Verify(password); err != nil {
		if errors.Is(err, ErrNoCredential) {
			logger.Warn("Admin login attempted but no credential is configured")
			return nil, apperrors.NewForbiddenError(MessageAdminDisabled, err)
		}
		logger.Warn("Admin login rejected")
		return nil, apperrors.NewUnauthorizedError(MessageInvalidPassword, err)
	}

	session, err := s.issuer.Issue()
	if err != nil {
		logger.Error("Failed to issue admin session", "error", err)
		return nil, apperrors.NewInternalServerError(MessageSessionUnavailable, err)
	}

	if err := s.store.Save(ctx, session.ID, session.TTL(s.now())); err != nil {
		logger.Error("Failed to record admin session", "error", err)
		return nil, apperrors.NewInternalServerError(MessageSessionUnavailable, err)
	}

	logger.Info("Admin session opened", "expires_at", session.ExpiresAt)
	return session, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorizedError(MessageSessionRequired, nil)
	}

	session, err := s.issuer.Parse(token)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError(MessageSessionInvalid, err)
	}

	live, err := s.store.Exists(ctx, session.ID)
	if err != nil {
		log.GetLoggerInstanceFromContext(ctx, s.logger).Error("Failed to look up admin session", "error", err)
		return nil, apperrors.NewInternalServerError(MessageSessionUnavailable, err)
	}
	if !live {
		return nil, apperrors.NewUnauthorizedError(MessageSessionInvalid, nil)
	}

	return session, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := s.issuer.Parse(token)
	if err != nil {
		return nil
	}

	if err := s.store.Delete(ctx, session.ID); err != nil {
		log.GetLoggerInstanceFromContext(ctx, s.logger).Error("Failed to revoke admin session", "error", err)
		return apperrors.NewInternalServerError(MessageSessionUnavailable, err)
	}

	log.GetLoggerInstanceFromContext(ctx, s.logger).Info("Admin session closed")
	return nil
}
