package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage carries a stable id and a server-assigned timestamp. Consumers
// deduplicate by id and order by CreatedAt, so duplicate polls never
// double-render.
type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	TenantId      uuid.UUID
	Role          string
	Body          string
	CreatedAt     time.Time
}
