package waitlist

import (
	"time"

	"github.com/akeren/wiwi-waitlist/internal/models"
)

// Visitor-facing copy for each signup outcome.
const (
	MessageJoined            = "💫 Welcome to WiWi! You've taken the first step into a world where AI listens, reflects, and uplifts."
	MessageAlreadyRegistered = "You're already on the waitlist! ✨"
	MessageSignupFailed      = "Something went wrong. Please try again."
)

// MessageDisplayDuration is how long clients should keep a signup message visible.
const MessageDisplayDuration = 5 * time.Second

type SignupStatus string

const (
	SignupStatusJoined            SignupStatus = "joined"
	SignupStatusAlreadyRegistered SignupStatus = "already_registered"
	SignupStatusFailed            SignupStatus = "failed"
)

// Email is deliberately unvalidated beyond being non-empty after trimming. IPAddress is
// the public address the visitor's browser resolved for itself, when it managed to.
type SignupRequest struct {
	Email     string `json:"email"`
	IPAddress string `json:"ip_address"`
}

// ClientMetadata is the best-effort context captured alongside a signup.
type ClientMetadata struct {
	UserAgent  string
	RemoteIP   string
	ReportedIP string
}

type SignupResponse struct {
	Status         SignupStatus           `json:"status"`
	Message        string                 `json:"message"`
	DismissAfterMs int64                  `json:"dismiss_after_ms"`
	Entry          *WaitlistEntryResponse `json:"entry,omitempty"`
}

type WaitlistEntryResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	CreatedAt string  `json:"created_at"`
	IPAddress *string `json:"ip_address"`
	UserAgent *string `json:"user_agent"`
}

func NewSignupResponse(status SignupStatus, message string, entry *WaitlistEntryResponse) *SignupResponse {
	return &SignupResponse{
		Status:         status,
		Message:        message,
		DismissAfterMs: MessageDisplayDuration.Milliseconds(),
		Entry:          entry,
	}
}

// ========================================
// Mappers
// ========================================

func ToWaitlistEntryModel(email string, meta ClientMetadata, ip *string) *models.WaitlistEntry {
	return &models.WaitlistEntry{
		Email:     email,
		IPAddress: ip,
		UserAgent: optionalString(meta.UserAgent),
	}
}

func ToWaitlistEntryResponse(entry *models.WaitlistEntry) WaitlistEntryResponse {
	if entry == nil {
		return WaitlistEntryResponse{}
	}
	return WaitlistEntryResponse{
		ID:        entry.ID,
		Email:     entry.Email,
		CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
	}
}

func ToWaitlistEntryResponses(entries []*models.WaitlistEntry) []WaitlistEntryResponse {
	responses := make([]WaitlistEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, ToWaitlistEntryResponse(entry))
	}
	return responses
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
