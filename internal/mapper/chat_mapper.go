package mapper

import (
	"time"

	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:                 s.Id,
		TenantId:           s.TenantId,
		UpstreamSessionRef: s.UpstreamSessionRef,
		CurrentHandler:     s.CurrentHandler,
		LastActivityAt:     s.LastActivityAt,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:                 s.Id,
		TenantId:           s.TenantId,
		UpstreamSessionRef: s.UpstreamSessionRef,
		CurrentHandler:     s.CurrentHandler,
		LastActivityAt:     s.LastActivityAt,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	return &entity.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		TenantId:      msg.TenantId,
		Role:          msg.Role,
		Body:          msg.Body,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		TenantId:      msg.TenantId,
		Role:          msg.Role,
		Body:          msg.Body,
		CreatedAt:     msg.CreatedAt,
	}
}
