package contract

import (
	"context"

	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	DeleteByChatSessionId(ctx context.Context, tenantId, chatSessionId uuid.UUID) error
}
