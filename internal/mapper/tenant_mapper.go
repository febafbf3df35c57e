package mapper

import (
	"time"

	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/model"
)

type TenantMapper struct{}

func NewTenantMapper() *TenantMapper {
	return &TenantMapper{}
}

func (m *TenantMapper) ToEntity(t *model.Tenant) *entity.Tenant {
	if t == nil {
		return nil
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		updatedAt = &u
	}

	return &entity.Tenant{
		Id:              t.Id,
		Name:            t.Name,
		LegacyWidgetKey: t.LegacyWidgetKey,
		AfterHoursEmail: t.AfterHoursEmail,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *TenantMapper) ToModel(t *entity.Tenant) *model.Tenant {
	if t == nil {
		return nil
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	return &model.Tenant{
		Id:              t.Id,
		Name:            t.Name,
		LegacyWidgetKey: t.LegacyWidgetKey,
		AfterHoursEmail: t.AfterHoursEmail,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *TenantMapper) BindingToEntity(b *model.TenantAgentBinding) *entity.TenantAgentBinding {
	if b == nil {
		return nil
	}

	return &entity.TenantAgentBinding{
		Id:              b.Id,
		ExternalAgentId: b.ExternalAgentId,
		TenantId:        b.TenantId,
		Channel:         b.Channel,
		CreatedAt:       b.CreatedAt,
	}
}

func (m *TenantMapper) BindingToModel(b *entity.TenantAgentBinding) *model.TenantAgentBinding {
	if b == nil {
		return nil
	}

	return &model.TenantAgentBinding{
		Id:              b.Id,
		ExternalAgentId: b.ExternalAgentId,
		TenantId:        b.TenantId,
		Channel:         b.Channel,
		CreatedAt:       b.CreatedAt,
	}
}
