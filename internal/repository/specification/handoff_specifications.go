package specification

import (
	"time"

	"chat-handoff-be/internal/constant"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnedByTenant is the hard tenant-isolation filter. Every read and write of
// sessions, handoffs and agents goes through it; there is no code path that
// may satisfy a request with another tenant's matching id.
type OwnedByTenant struct {
	TenantID uuid.UUID
}

func (s OwnedByTenant) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tenant_id = ?", s.TenantID)
}

// ByChatSessionID filters by session
type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

// ByStatus filters by lifecycle status
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// NonTerminal selects handoffs that are still pending or active.
type NonTerminal struct{}

func (s NonTerminal) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", []string{constant.HandoffStatusPending, constant.HandoffStatusActive})
}

// CreatedAfter is the poll cursor: strictly greater, so overlapping windows
// never return a row twice.
type CreatedAfter struct {
	After time.Time
}

func (s CreatedAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at > ?", s.After)
}

// IdleSince selects sessions with no activity after the cutoff that have not
// already been ended.
type IdleSince struct {
	Cutoff time.Time
}

func (s IdleSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("last_activity_at < ? AND current_handler <> ?", s.Cutoff, constant.SessionHandlerEnded)
}
