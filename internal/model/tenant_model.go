package model

import (
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name            string    `gorm:"type:text;not null"`
	LegacyWidgetKey *string   `gorm:"type:text;uniqueIndex"` // migration continuity lookup
	AfterHoursEmail string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Tenant) TableName() string {
	return "tenants"
}
