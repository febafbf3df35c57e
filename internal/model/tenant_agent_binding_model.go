package model

import (
	"time"

	"github.com/google/uuid"
)

type TenantAgentBinding struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalAgentId string    `gorm:"type:text;not null;uniqueIndex"`
	TenantId        uuid.UUID `gorm:"type:uuid;not null;index"`
	Channel         string    `gorm:"type:text;not null"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (TenantAgentBinding) TableName() string {
	return "tenant_agent_bindings"
}
