package events

import (
	"time"

	"github.com/google/uuid"
)

// Event type codes for the handoff lifecycle. Dashboards receive them via the
// broadcast layer; workflow-automation webhooks consume them from NATS.
const (
	TypeHandoffRequested  = "HANDOFF_REQUESTED"
	TypeHandoffAfterHours = "HANDOFF_AFTER_HOURS"
	TypeHandoffAssigned   = "HANDOFF_ASSIGNED"
	TypeHandoffResolved   = "HANDOFF_RESOLVED"
	TypeAgentMessage      = "AGENT_MESSAGE"
	TypeUserMessage       = "USER_MESSAGE"
	TypeSessionEnded      = "SESSION_ENDED"
)

func NewHandoffRequested(tenantId, handoffId, chatId uuid.UUID) Event {
	return BaseEvent{
		Type: TypeHandoffRequested,
		Data: map[string]interface{}{
			"tenant_id":  tenantId.String(),
			"handoff_id": handoffId.String(),
			"chat_id":    chatId.String(),
		},
		OccurredAt: time.Now(),
	}
}

func NewHandoffAfterHours(tenantId, handoffId, chatId uuid.UUID, contactInfo string) Event {
	return BaseEvent{
		Type: TypeHandoffAfterHours,
		Data: map[string]interface{}{
			"tenant_id":    tenantId.String(),
			"handoff_id":   handoffId.String(),
			"chat_id":      chatId.String(),
			"contact_info": contactInfo,
		},
		OccurredAt: time.Now(),
	}
}

func NewHandoffAssigned(tenantId, handoffId, chatId, agentId uuid.UUID) Event {
	return BaseEvent{
		Type: TypeHandoffAssigned,
		Data: map[string]interface{}{
			"tenant_id":  tenantId.String(),
			"handoff_id": handoffId.String(),
			"chat_id":    chatId.String(),
			"agent_id":   agentId.String(),
		},
		OccurredAt: time.Now(),
	}
}

func NewHandoffResolved(tenantId, handoffId, chatId uuid.UUID, resolvedBy string) Event {
	return BaseEvent{
		Type: TypeHandoffResolved,
		Data: map[string]interface{}{
			"tenant_id":   tenantId.String(),
			"handoff_id":  handoffId.String(),
			"chat_id":     chatId.String(),
			"resolved_by": resolvedBy,
		},
		OccurredAt: time.Now(),
	}
}

func NewChatMessageEvent(eventType string, tenantId, chatId, messageId uuid.UUID, role string) Event {
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"tenant_id":  tenantId.String(),
			"chat_id":    chatId.String(),
			"message_id": messageId.String(),
			"role":       role,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionEnded(tenantId, chatId uuid.UUID) Event {
	return BaseEvent{
		Type: TypeSessionEnded,
		Data: map[string]interface{}{
			"tenant_id": tenantId.String(),
			"chat_id":   chatId.String(),
		},
		OccurredAt: time.Now(),
	}
}
