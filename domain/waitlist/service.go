package waitlist

import (
	"context"
	"errors"
	"strings"

	"github.com/akeren/wiwi-waitlist/internal/log"
	apperrors "github.com/akeren/wiwi-waitlist/pkg/errors"
)

var ErrEmptyEmail = errors.New("email is empty after trimming")

type WaitlistService interface {
	// Join records a visitor's email. An empty email is a silent no-op reported as a
	// NoContent error; a repeated email is reported as a Conflict error.
	Join(ctx context.Context, req *SignupRequest, meta ClientMetadata) (*SignupResponse, error)
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	resolver   IPResolver
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, resolver IPResolver) WaitlistService {
	return &waitlistService{logger: logger, repository: repository, resolver: resolver}
}

func (s *waitlistService) Join(ctx context.Context, req *SignupRequest, meta ClientMetadata) (*SignupResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("Join received empty request")
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		logger.Debug("Ignoring signup with empty email")
		return nil, apperrors.NewNoContentError("no email submitted", ErrEmptyEmail)
	}

	var ip *string
	if s.resolver != nil {
		ip = s.resolver.Resolve(ctx, meta)
	}

	entry, err := s.repository.CreateEntry(ctx, ToWaitlistEntryModel(email, meta, ip))
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			logger.Info("Signup for an email already on the waitlist")
			return nil, apperrors.NewConflictError(MessageAlreadyRegistered, err)
		}

		logger.Error("Failed to create waitlist entry", "error", err)
		return nil, apperrors.NewDatabaseError(MessageSignupFailed, err)
	}

	logger.Info("Waitlist signup recorded", "entry_id", entry.ID)

	response := ToWaitlistEntryResponse(entry)
	return NewSignupResponse(SignupStatusJoined, MessageJoined, &response), nil
}
