package contract

import (
	"context"
	"time"

	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/repository/specification"

	"github.com/google/uuid"
)

// AgentRepository owns the only contended shared counter in the system.
// ActiveChatCount is never written by read-modify-write: TryAcquireSlot and
// ReleaseSlot are single guarded UPDATE statements.
type AgentRepository interface {
	Create(ctx context.Context, agent *entity.Agent) error
	Update(ctx context.Context, agent *entity.Agent) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Agent, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Agent, error)
	FindByEmail(ctx context.Context, email string) (*entity.Agent, error)

	// TryAcquireSlot increments active_chat_count only while it is still
	// below max_chat_count. Returns false when the agent is full or missing.
	TryAcquireSlot(ctx context.Context, tenantId, agentId uuid.UUID) (bool, error)
	// ReleaseSlot decrements active_chat_count, guarded against going below 0.
	ReleaseSlot(ctx context.Context, tenantId, agentId uuid.UUID) error

	// CountSpareCapacity returns how many available agents in the tenant still
	// have room for another chat.
	CountSpareCapacity(ctx context.Context, tenantId uuid.UUID) (int64, error)

	// Heartbeat stamps last_seen_at and performs the automatic
	// offline -> available flip. Manual busy/offline stays sticky.
	Heartbeat(ctx context.Context, tenantId, agentId uuid.UUID, at time.Time) error
	SetStatus(ctx context.Context, tenantId, agentId uuid.UUID, status string) error
	// MarkStaleOffline flips available agents whose heartbeat predates the
	// cutoff to offline. Returns the number of agents flipped.
	MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error)
}
