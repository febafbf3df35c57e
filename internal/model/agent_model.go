package model

import (
	"time"

	"github.com/google/uuid"
)

type Agent struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId        uuid.UUID `gorm:"type:uuid;not null;index"` // tenant ownership for data isolation
	Name            string    `gorm:"type:text;not null"`
	Email           string    `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash    string    `gorm:"type:text;not null"`
	Status          string    `gorm:"type:text;not null;default:offline;index"`
	ActiveChatCount int       `gorm:"not null;default:0"`
	MaxChatCount    int       `gorm:"not null;default:3"`
	LastSeenAt      time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Agent) TableName() string {
	return "agents"
}
