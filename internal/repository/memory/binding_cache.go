package memory

import (
	"time"

	"chat-handoff-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// BindingCache keeps resolved tenant bindings in memory. The resolver runs on
// every inbound event, so lookups must not hit the database each time.
// Entries expire on their own and are invalidated when a tenant's bindings
// change.
type BindingCache struct {
	cache *cache.Cache
}

func NewBindingCache() *BindingCache {
	// Default expiration of 15 minutes, purge every 5.
	c := cache.New(15*time.Minute, 5*time.Minute)
	return &BindingCache{
		cache: c,
	}
}

func (r *BindingCache) Save(binding *entity.TenantAgentBinding) {
	r.cache.Set(binding.ExternalAgentId, binding, cache.DefaultExpiration)
}

func (r *BindingCache) Get(externalAgentId string) (*entity.TenantAgentBinding, bool) {
	if x, found := r.cache.Get(externalAgentId); found {
		return x.(*entity.TenantAgentBinding), true
	}
	return nil, false
}

func (r *BindingCache) Invalidate(externalAgentId string) {
	r.cache.Delete(externalAgentId)
}
