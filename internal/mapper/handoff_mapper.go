package mapper

import (
	"encoding/json"

	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/model"

	"gorm.io/datatypes"
)

type HandoffMapper struct{}

func NewHandoffMapper() *HandoffMapper {
	return &HandoffMapper{}
}

func (m *HandoffMapper) ToEntity(h *model.HandoffRequest) *entity.HandoffRequest {
	if h == nil {
		return nil
	}

	var snapshot []entity.SnapshotTurn
	if len(h.ConversationSnapshot) > 0 {
		// Snapshot is display-only operator context; a corrupt blob is not
		// worth failing the read for.
		_ = json.Unmarshal(h.ConversationSnapshot, &snapshot)
	}

	return &entity.HandoffRequest{
		Id:                   h.Id,
		ChatSessionId:        h.ChatSessionId,
		TenantId:             h.TenantId,
		Status:               h.Status,
		RequestedAt:          h.RequestedAt,
		PickedUpAt:           h.PickedUpAt,
		ResolvedAt:           h.ResolvedAt,
		ResolvedBy:           h.ResolvedBy,
		AssignedAgentId:      h.AssignedAgentId,
		ConversationSnapshot: snapshot,
		ContactInfo:          h.ContactInfo,
	}
}

func (m *HandoffMapper) ToModel(h *entity.HandoffRequest) *model.HandoffRequest {
	if h == nil {
		return nil
	}

	var snapshot datatypes.JSON
	if len(h.ConversationSnapshot) > 0 {
		raw, err := json.Marshal(h.ConversationSnapshot)
		if err == nil {
			snapshot = datatypes.JSON(raw)
		}
	}

	return &model.HandoffRequest{
		Id:                   h.Id,
		ChatSessionId:        h.ChatSessionId,
		TenantId:             h.TenantId,
		Status:               h.Status,
		RequestedAt:          h.RequestedAt,
		PickedUpAt:           h.PickedUpAt,
		ResolvedAt:           h.ResolvedAt,
		ResolvedBy:           h.ResolvedBy,
		AssignedAgentId:      h.AssignedAgentId,
		ConversationSnapshot: snapshot,
		ContactInfo:          h.ContactInfo,
	}
}
