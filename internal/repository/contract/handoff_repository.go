package contract

import (
	"context"
	"time"

	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/repository/specification"

	"github.com/google/uuid"
)

// HandoffRepository persists the escalation lifecycle. State transitions are
// conditional updates guarded on the current status; the boolean return
// reports whether this caller won the transition.
type HandoffRepository interface {
	Create(ctx context.Context, handoff *entity.HandoffRequest) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.HandoffRequest, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.HandoffRequest, error)

	// MarkActive performs pending -> active, stamping the assignee and pickup
	// time. Exactly one concurrent caller can succeed.
	MarkActive(ctx context.Context, tenantId, handoffId, agentId uuid.UUID, at time.Time) (bool, error)
	// MarkResolvedFromActive performs active -> resolved and reports the
	// assignee recorded on the row at transition time. The winner releases
	// that agent's capacity slot; a read taken before the transition can
	// miss an assignment that landed in between.
	MarkResolvedFromActive(ctx context.Context, tenantId, handoffId uuid.UUID, resolvedBy string, at time.Time) (*uuid.UUID, bool, error)
	// MarkResolvedFromPending performs pending -> resolved (no slot held yet).
	MarkResolvedFromPending(ctx context.Context, tenantId, handoffId uuid.UUID, resolvedBy string, at time.Time) (bool, error)
}
