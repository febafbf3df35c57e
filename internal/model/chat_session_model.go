package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId           uuid.UUID `gorm:"type:uuid;not null;index"` // tenant ownership for data isolation
	UpstreamSessionRef *string   `gorm:"type:text"`
	CurrentHandler     string    `gorm:"type:text;not null;default:ai"`
	LastActivityAt     time.Time `gorm:"index"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
