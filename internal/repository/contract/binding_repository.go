package contract

import (
	"context"

	"chat-handoff-be/internal/entity"

	"github.com/google/uuid"
)

type BindingRepository interface {
	Upsert(ctx context.Context, binding *entity.TenantAgentBinding) error
	FindByExternalAgentId(ctx context.Context, externalAgentId string) (*entity.TenantAgentBinding, error)
	DeleteByExternalAgentId(ctx context.Context, tenantId uuid.UUID, externalAgentId string) error
}
