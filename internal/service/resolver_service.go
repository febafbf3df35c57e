package service

import (
	"context"

	"chat-handoff-be/internal/constant"
	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/pkg/logger"
	"chat-handoff-be/internal/repository/memory"
	"chat-handoff-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IResolverService maps an opaque external agent id to the owning tenant and
// channel. It runs on every inbound event, so results are cached; the cache
// is invalidated whenever a tenant's bindings change.
type IResolverService interface {
	Resolve(ctx context.Context, externalAgentId string) (*entity.TenantAgentBinding, error)
	UpsertBinding(ctx context.Context, binding *entity.TenantAgentBinding) error
	RemoveBinding(ctx context.Context, tenantId uuid.UUID, externalAgentId string) error
}

type resolverService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.BindingCache
	logger     logger.ILogger
}

func NewResolverService(uowFactory unitofwork.RepositoryFactory, cache *memory.BindingCache, log logger.ILogger) IResolverService {
	return &resolverService{
		uowFactory: uowFactory,
		cache:      cache,
		logger:     log,
	}
}

// Resolve checks the primary binding table first, then the legacy per-tenant
// widget key (migration continuity). A miss on both is terminal for the
// request: no tenant, no processing.
func (s *resolverService) Resolve(ctx context.Context, externalAgentId string) (*entity.TenantAgentBinding, error) {
	if externalAgentId == "" {
		return nil, ErrUnknownAgentKey
	}

	if cached, found := s.cache.Get(externalAgentId); found {
		return cached, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	binding, err := uow.BindingRepository().FindByExternalAgentId(ctx, externalAgentId)
	if err != nil {
		return nil, err
	}
	if binding != nil {
		s.cache.Save(binding)
		return binding, nil
	}

	// Legacy fallback: older tenants still identify their widget by a
	// tenant-level key instead of a binding row.
	tenant, err := uow.TenantRepository().FindByLegacyWidgetKey(ctx, externalAgentId)
	if err != nil {
		return nil, err
	}
	if tenant != nil {
		legacy := &entity.TenantAgentBinding{
			ExternalAgentId: externalAgentId,
			TenantId:        tenant.Id,
			Channel:         constant.ChannelWidget,
		}
		s.cache.Save(legacy)
		return legacy, nil
	}

	s.logger.Warn("Resolver", "Rejected unknown agent key", map[string]interface{}{
		"external_agent_id": externalAgentId,
	})
	return nil, ErrUnknownAgentKey
}

func (s *resolverService) UpsertBinding(ctx context.Context, binding *entity.TenantAgentBinding) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if binding.Id == uuid.Nil {
		binding.Id = uuid.New()
	}
	if err := uow.BindingRepository().Upsert(ctx, binding); err != nil {
		return err
	}
	s.cache.Invalidate(binding.ExternalAgentId)
	return nil
}

func (s *resolverService) RemoveBinding(ctx context.Context, tenantId uuid.UUID, externalAgentId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.BindingRepository().DeleteByExternalAgentId(ctx, tenantId, externalAgentId); err != nil {
		return err
	}
	s.cache.Invalidate(externalAgentId)
	return nil
}
