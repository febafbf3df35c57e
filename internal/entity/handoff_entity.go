package entity

import (
	"time"

	"github.com/google/uuid"
)

// SnapshotTurn is one conversation turn captured for operator context when a
// handoff is requested.
type SnapshotTurn struct {
	Role string `json:"role"`
	Body string `json:"body"`
}

// HandoffRequest is the escalation lifecycle record. At most one non-resolved
// request exists per chat session.
type HandoffRequest struct {
	Id                   uuid.UUID
	ChatSessionId        uuid.UUID
	TenantId             uuid.UUID
	Status               string
	RequestedAt          time.Time
	PickedUpAt           *time.Time
	ResolvedAt           *time.Time
	ResolvedBy           *string
	AssignedAgentId      *uuid.UUID
	ConversationSnapshot []SnapshotTurn
	ContactInfo          *string
}
