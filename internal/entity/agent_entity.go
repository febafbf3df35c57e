package entity

import (
	"time"

	"github.com/google/uuid"
)

// Agent is a human operator. Invariant: 0 <= ActiveChatCount <= MaxChatCount,
// maintained exclusively by guarded counter updates in the repository.
type Agent struct {
	Id              uuid.UUID
	TenantId        uuid.UUID
	Name            string
	Email           string
	PasswordHash    string
	Status          string
	ActiveChatCount int
	MaxChatCount    int
	LastSeenAt      time.Time
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}
