package contract

import (
	"context"

	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/repository/specification"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Tenant, error)
	// FindByLegacyWidgetKey is the migration-continuity lookup consulted when
	// no binding row exists for an external agent id.
	FindByLegacyWidgetKey(ctx context.Context, key string) (*entity.Tenant, error)
}
