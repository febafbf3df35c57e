package dto

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessageDTO is the wire form of a message. Id is the dedup key, CreatedAt
// the ordering key.
type ChatMessageDTO struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type SendChatMessageRequest struct {
	ApiKey  string     `json:"api_key" validate:"required"`
	ChatId  *uuid.UUID `json:"chat_id,omitempty"` // omitted on first turn
	Message string     `json:"message" validate:"required"`
}

type SendChatMessageResponse struct {
	ChatId   uuid.UUID        `json:"chat_id"`
	Handler  string           `json:"handler"`
	Messages []ChatMessageDTO `json:"messages"`
}

type SnapshotTurnDTO struct {
	Role string `json:"role" validate:"required"`
	Body string `json:"body" validate:"required"`
}

type RequestHandoffRequest struct {
	ApiKey              string            `json:"api_key" validate:"required"`
	ChatId              uuid.UUID         `json:"chat_id" validate:"required"`
	ConversationHistory []SnapshotTurnDTO `json:"conversation_history,omitempty"`
	LastUserMessage     string            `json:"last_user_message,omitempty"`
	UserEmail           *string           `json:"user_email,omitempty" validate:"omitempty,email"`
}

type RequestHandoffResponse struct {
	HandoffId uuid.UUID `json:"handoff_id"`
	Status    string    `json:"status"`
}

type HandoffStatusResponse struct {
	HandoffId uuid.UUID `json:"handoff_id"`
	Status    string    `json:"status"`
	AgentName *string   `json:"agent_name,omitempty"`
}

type HandoffMessagesResponse struct {
	Messages   []ChatMessageDTO `json:"messages"`
	NextCursor string           `json:"next_cursor"`
}

type EndChatRequest struct {
	ApiKey    string     `json:"api_key" validate:"required"`
	ChatId    uuid.UUID  `json:"chat_id" validate:"required"`
	HandoffId *uuid.UUID `json:"handoff_id,omitempty"`
}

type EndChatResponse struct {
	Success bool `json:"success"`
}
