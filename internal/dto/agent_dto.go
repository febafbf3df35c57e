package dto

import (
	"time"

	"github.com/google/uuid"
)

type HeartbeatResponse struct {
	Ok bool `json:"ok"`
}

type UpdateAgentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available busy offline"`
}

type PendingHandoffResponse struct {
	Id                   uuid.UUID         `json:"id"`
	ChatId               uuid.UUID         `json:"chat_id"`
	Status               string            `json:"status"`
	RequestedAt          time.Time         `json:"requested_at"`
	ConversationSnapshot []SnapshotTurnDTO `json:"conversation_snapshot,omitempty"`
}

type AssignHandoffResponse struct {
	Success   bool      `json:"success"`
	HandoffId uuid.UUID `json:"handoff_id"`
	ChatId    uuid.UUID `json:"chat_id"`
}

type ResolveHandoffResponse struct {
	Success bool `json:"success"`
}

type AgentReplyRequest struct {
	Message string `json:"message" validate:"required"`
}

type AgentReplyResponse struct {
	Message ChatMessageDTO `json:"message"`
}

type AgentProfileResponse struct {
	Id              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Status          string    `json:"status"`
	ActiveChatCount int       `json:"active_chat_count"`
	MaxChatCount    int       `json:"max_chat_count"`
}
