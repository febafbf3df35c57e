package entity

import (
	"time"

	"github.com/google/uuid"
)

// TenantAgentBinding maps an opaque external agent id to the owning tenant
// and delivery channel. Consulted on every inbound event; a missing binding
// is a hard rejection, never a default-tenant fallback.
type TenantAgentBinding struct {
	Id              uuid.UUID
	ExternalAgentId string
	TenantId        uuid.UUID
	Channel         string
	CreatedAt       time.Time
}
