package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WaitlistEntry is a single signup. Rows are create-only.
type WaitlistEntry struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Email     string    `gorm:"not null;uniqueIndex" json:"email"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	IPAddress *string   `gorm:"column:ip_address" json:"ip_address"`
	UserAgent *string   `gorm:"column:user_agent" json:"user_agent"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist"
}

func (e *WaitlistEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
