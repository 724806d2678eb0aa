package admin

import (
	"time"

	"github.com/akeren/wiwi-waitlist/domain/waitlist"
)

type LoginRequest struct {
	Password string `json:"password" binding:"required,max=256"`
}

type SessionStatusResponse struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type WaitlistQuery struct {
	Order  string `form:"order" binding:"omitempty,max=8"`
	Search string `form:"search" binding:"max=320"`
}

type DashboardResponse struct {
	Total   int                              `json:"total"`
	Matched int                              `json:"matched"`
	Order   waitlist.SortOrder               `json:"order"`
	Search  string                           `json:"search"`
	Entries []waitlist.WaitlistEntryResponse `json:"entries"`
}

func ToDashboardResponse(d *Dashboard) DashboardResponse {
	visible := d.Visible()
	return DashboardResponse{
		Total:   len(d.All()),
		Matched: len(visible),
		Order:   d.Order(),
		Search:  d.Search(),
		Entries: waitlist.ToWaitlistEntryResponses(visible),
	}
}
