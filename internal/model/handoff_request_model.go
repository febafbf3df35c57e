package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type HandoffRequest struct {
	Id                   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId        uuid.UUID `gorm:"type:uuid;not null;index"`
	TenantId             uuid.UUID `gorm:"type:uuid;not null;index"` // tenant ownership for data isolation
	Status               string    `gorm:"type:text;not null;index"`
	RequestedAt          time.Time
	PickedUpAt           *time.Time
	ResolvedAt           *time.Time
	ResolvedBy           *string    `gorm:"type:text"`
	AssignedAgentId      *uuid.UUID `gorm:"type:uuid;index"`
	ConversationSnapshot datatypes.JSON
	ContactInfo          *string   `gorm:"type:text"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

func (HandoffRequest) TableName() string {
	return "handoff_requests"
}
