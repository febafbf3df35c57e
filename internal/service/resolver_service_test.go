package service

import (
	"context"
	"testing"

	"chat-handoff-be/internal/constant"
	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolverFixture() (*fakeStore, IResolverService) {
	store := newFakeStore()
	svc := NewResolverService(&fakeFactory{store: store}, memory.NewBindingCache(), nopLogger{})
	return store, svc
}

func TestResolveByBinding(t *testing.T) {
	store, svc := newResolverFixture()

	tenantId := uuid.New()
	store.bindings["ext-123"] = &entity.TenantAgentBinding{
		Id:              uuid.New(),
		ExternalAgentId: "ext-123",
		TenantId:        tenantId,
		Channel:         constant.ChannelWidget,
	}

	binding, err := svc.Resolve(context.Background(), "ext-123")
	require.NoError(t, err)
	assert.Equal(t, tenantId, binding.TenantId)
	assert.Equal(t, constant.ChannelWidget, binding.Channel)
}

func TestResolveFallsBackToLegacyWidgetKey(t *testing.T) {
	store, svc := newResolverFixture()

	tenantId := uuid.New()
	key := "legacy-key"
	store.tenants[tenantId] = &entity.Tenant{Id: tenantId, Name: "Acme", LegacyWidgetKey: &key}

	binding, err := svc.Resolve(context.Background(), "legacy-key")
	require.NoError(t, err)
	assert.Equal(t, tenantId, binding.TenantId)
	assert.Equal(t, constant.ChannelWidget, binding.Channel)
}

func TestResolveUnknownKeyIsRejected(t *testing.T) {
	_, svc := newResolverFixture()

	_, err := svc.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownAgentKey)

	_, err = svc.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnknownAgentKey)
}

func TestResolveServesFromCacheAfterFirstHit(t *testing.T) {
	store, svc := newResolverFixture()

	tenantId := uuid.New()
	store.bindings["ext-123"] = &entity.TenantAgentBinding{
		Id:              uuid.New(),
		ExternalAgentId: "ext-123",
		TenantId:        tenantId,
		Channel:         constant.ChannelWidget,
	}

	_, err := svc.Resolve(context.Background(), "ext-123")
	require.NoError(t, err)

	// Remove the row behind the cache's back: the cached answer still serves.
	delete(store.bindings, "ext-123")
	binding, err := svc.Resolve(context.Background(), "ext-123")
	require.NoError(t, err)
	assert.Equal(t, tenantId, binding.TenantId)
}

func TestRemoveBindingInvalidatesCache(t *testing.T) {
	store, svc := newResolverFixture()

	tenantId := uuid.New()
	store.bindings["ext-123"] = &entity.TenantAgentBinding{
		Id:              uuid.New(),
		ExternalAgentId: "ext-123",
		TenantId:        tenantId,
		Channel:         constant.ChannelWidget,
	}

	_, err := svc.Resolve(context.Background(), "ext-123")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveBinding(context.Background(), tenantId, "ext-123"))

	_, err = svc.Resolve(context.Background(), "ext-123")
	assert.ErrorIs(t, err, ErrUnknownAgentKey)
}

func TestUpsertBindingReplacesCachedRoute(t *testing.T) {
	store, svc := newResolverFixture()

	oldTenant := uuid.New()
	store.bindings["ext-123"] = &entity.TenantAgentBinding{
		Id:              uuid.New(),
		ExternalAgentId: "ext-123",
		TenantId:        oldTenant,
		Channel:         constant.ChannelWidget,
	}
	_, err := svc.Resolve(context.Background(), "ext-123")
	require.NoError(t, err)

	newTenant := uuid.New()
	require.NoError(t, svc.UpsertBinding(context.Background(), &entity.TenantAgentBinding{
		ExternalAgentId: "ext-123",
		TenantId:        newTenant,
		Channel:         constant.ChannelWidget,
	}))

	binding, err := svc.Resolve(context.Background(), "ext-123")
	require.NoError(t, err)
	assert.Equal(t, newTenant, binding.TenantId)
}
