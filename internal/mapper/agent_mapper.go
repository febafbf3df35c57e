package mapper

import (
	"time"

	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/model"
)

type AgentMapper struct{}

func NewAgentMapper() *AgentMapper {
	return &AgentMapper{}
}

func (m *AgentMapper) ToEntity(a *model.Agent) *entity.Agent {
	if a == nil {
		return nil
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	return &entity.Agent{
		Id:              a.Id,
		TenantId:        a.TenantId,
		Name:            a.Name,
		Email:           a.Email,
		PasswordHash:    a.PasswordHash,
		Status:          a.Status,
		ActiveChatCount: a.ActiveChatCount,
		MaxChatCount:    a.MaxChatCount,
		LastSeenAt:      a.LastSeenAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *AgentMapper) ToModel(a *entity.Agent) *model.Agent {
	if a == nil {
		return nil
	}

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	return &model.Agent{
		Id:              a.Id,
		TenantId:        a.TenantId,
		Name:            a.Name,
		Email:           a.Email,
		PasswordHash:    a.PasswordHash,
		Status:          a.Status,
		ActiveChatCount: a.ActiveChatCount,
		MaxChatCount:    a.MaxChatCount,
		LastSeenAt:      a.LastSeenAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}
