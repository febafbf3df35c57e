package contract

import (
	"context"
	"time"

	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	Update(ctx context.Context, session *entity.ChatSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)

	TouchActivity(ctx context.Context, tenantId, id uuid.UUID, at time.Time) error
	SetHandler(ctx context.Context, tenantId, id uuid.UUID, handler string) error
	SetUpstreamRef(ctx context.Context, tenantId, id uuid.UUID, ref *string) error
}
