package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id                 uuid.UUID
	TenantId           uuid.UUID
	UpstreamSessionRef *string
	CurrentHandler     string
	LastActivityAt     time.Time
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}
