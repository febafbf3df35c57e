package service

import (
	"context"
	"time"

	"chat-handoff-be/internal/constant"
	"chat-handoff-be/internal/dto"
	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/pkg/logger"
	"chat-handoff-be/internal/pkg/mailer"
	"chat-handoff-be/internal/repository/specification"
	"chat-handoff-be/internal/repository/unitofwork"
	"chat-handoff-be/pkg/events"

	"github.com/google/uuid"
)

// IHandoffService drives the escalation lifecycle:
// pending -> active -> resolved, with after_hours as the no-capacity branch.
// All transitions are conditional updates in the repository; under concurrent
// callers exactly one wins and the rest observe a conflict.
type IHandoffService interface {
	Request(ctx context.Context, tenantId uuid.UUID, request *dto.RequestHandoffRequest) (*dto.RequestHandoffResponse, error)
	StatusForWidget(ctx context.Context, tenantId, handoffId uuid.UUID) (*dto.HandoffStatusResponse, error)
	PendingForTenant(ctx context.Context, tenantId uuid.UUID) ([]dto.PendingHandoffResponse, error)
	Assign(ctx context.Context, tenantId, handoffId, agentId uuid.UUID) (*dto.AssignHandoffResponse, error)
	Resolve(ctx context.Context, tenantId, handoffId uuid.UUID) (*dto.ResolveHandoffResponse, error)
	EndChat(ctx context.Context, tenantId uuid.UUID, request *dto.EndChatRequest) (*dto.EndChatResponse, error)
}

type handoffService struct {
	uowFactory    unitofwork.RepositoryFactory
	publisher     IEventPublisher
	emailService  mailer.IEmailService
	snapshotTurns int
	logger        logger.ILogger
}

func NewHandoffService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IEventPublisher,
	emailService mailer.IEmailService,
	snapshotTurns int,
	log logger.ILogger,
) IHandoffService {
	return &handoffService{
		uowFactory:    uowFactory,
		publisher:     publisher,
		emailService:  emailService,
		snapshotTurns: snapshotTurns,
		logger:        log,
	}
}

// Request escalates a chat session to a human. The outcome depends on
// tenant-wide spare capacity at request time: somebody could take it ->
// pending, nobody -> after_hours with an email nudge to the tenant inbox.
// A session with a non-terminal handoff gets that handoff back unchanged.
func (s *handoffService) Request(ctx context.Context, tenantId uuid.UUID, request *dto.RequestHandoffRequest) (*dto.RequestHandoffResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatId},
		specification.OwnedByTenant{TenantID: tenantId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil || session.CurrentHandler == constant.SessionHandlerEnded {
		return nil, ErrNotFound
	}

	existing, err := uow.HandoffRepository().FindOne(ctx,
		specification.ByChatSessionID{ChatSessionID: request.ChatId},
		specification.OwnedByTenant{TenantID: tenantId},
		specification.NonTerminal{},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &dto.RequestHandoffResponse{HandoffId: existing.Id, Status: existing.Status}, nil
	}

	spare, err := uow.AgentRepository().CountSpareCapacity(ctx, tenantId)
	if err != nil {
		return nil, err
	}

	status := constant.HandoffStatusPending
	if spare == 0 {
		status = constant.HandoffStatusAfterHours
	}

	handoff := &entity.HandoffRequest{
		Id:                   uuid.New(),
		ChatSessionId:        request.ChatId,
		TenantId:             tenantId,
		Status:               status,
		RequestedAt:          time.Now(),
		ConversationSnapshot: s.buildSnapshot(request.ConversationHistory),
		ContactInfo:          request.UserEmail,
	}
	if err := uow.HandoffRepository().Create(ctx, handoff); err != nil {
		return nil, err
	}

	if status == constant.HandoffStatusAfterHours {
		s.notifyAfterHours(ctx, uow, tenantId, handoff, request.LastUserMessage)
		s.publisher.Publish(events.NewHandoffAfterHours(tenantId, handoff.Id, request.ChatId, derefOrEmpty(request.UserEmail)))
	} else {
		s.publisher.Publish(events.NewHandoffRequested(tenantId, handoff.Id, request.ChatId))
	}

	s.logger.Info("Handoff", "Handoff requested", map[string]interface{}{
		"handoff_id": handoff.Id,
		"chat_id":    request.ChatId,
		"status":     status,
	})

	return &dto.RequestHandoffResponse{HandoffId: handoff.Id, Status: status}, nil
}

func (s *handoffService) StatusForWidget(ctx context.Context, tenantId, handoffId uuid.UUID) (*dto.HandoffStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	handoff, err := uow.HandoffRepository().FindOne(ctx,
		specification.ByID{ID: handoffId},
		specification.OwnedByTenant{TenantID: tenantId},
	)
	if err != nil {
		return nil, err
	}
	if handoff == nil {
		return nil, ErrNotFound
	}

	response := &dto.HandoffStatusResponse{HandoffId: handoff.Id, Status: handoff.Status}

	if handoff.AssignedAgentId != nil {
		agent, err := uow.AgentRepository().FindOne(ctx,
			specification.ByID{ID: *handoff.AssignedAgentId},
			specification.OwnedByTenant{TenantID: tenantId},
		)
		if err != nil {
			return nil, err
		}
		if agent != nil {
			response.AgentName = &agent.Name
		}
	}

	return response, nil
}

func (s *handoffService) PendingForTenant(ctx context.Context, tenantId uuid.UUID) ([]dto.PendingHandoffResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	handoffs, err := uow.HandoffRepository().FindAll(ctx,
		specification.OwnedByTenant{TenantID: tenantId},
		specification.ByStatus{Status: constant.HandoffStatusPending},
		specification.OrderBy{Field: "requested_at"},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.PendingHandoffResponse, 0, len(handoffs))
	for _, h := range handoffs {
		snapshot := make([]dto.SnapshotTurnDTO, 0, len(h.ConversationSnapshot))
		for _, turn := range h.ConversationSnapshot {
			snapshot = append(snapshot, dto.SnapshotTurnDTO{Role: turn.Role, Body: turn.Body})
		}
		responses = append(responses, dto.PendingHandoffResponse{
			Id:                   h.Id,
			ChatId:               h.ChatSessionId,
			Status:               h.Status,
			RequestedAt:          h.RequestedAt,
			ConversationSnapshot: snapshot,
		})
	}
	return responses, nil
}

// Assign claims a pending handoff for an operator. Order matters: the
// capacity slot is taken first, then the pending -> active transition. If the
// transition loses the race the slot is handed straight back, so a failed
// assignment never leaks capacity.
func (s *handoffService) Assign(ctx context.Context, tenantId, handoffId, agentId uuid.UUID) (*dto.AssignHandoffResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	handoff, err := uow.HandoffRepository().FindOne(ctx,
		specification.ByID{ID: handoffId},
		specification.OwnedByTenant{TenantID: tenantId},
	)
	if err != nil {
		return nil, err
	}
	if handoff == nil {
		return nil, ErrNotFound
	}
	if handoff.Status != constant.HandoffStatusPending {
		return nil, ErrAssignConflict
	}

	acquired, err := uow.AgentRepository().TryAcquireSlot(ctx, tenantId, agentId)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrNoCapacity
	}

	now := time.Now()
	won, err := uow.HandoffRepository().MarkActive(ctx, tenantId, handoffId, agentId, now)
	if err != nil || !won {
		if releaseErr := uow.AgentRepository().ReleaseSlot(ctx, tenantId, agentId); releaseErr != nil {
			s.logger.Error("Handoff", "Failed to release slot after lost assignment", map[string]interface{}{
				"agent_id": agentId,
				"error":    releaseErr.Error(),
			})
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrAssignConflict
	}

	if err := uow.ChatSessionRepository().SetHandler(ctx, tenantId, handoff.ChatSessionId, constant.SessionHandlerAgent); err != nil {
		return nil, err
	}

	agent, err := uow.AgentRepository().FindOne(ctx,
		specification.ByID{ID: agentId},
		specification.OwnedByTenant{TenantID: tenantId},
	)
	if err != nil {
		return nil, err
	}
	agentName := "An operator"
	if agent != nil {
		agentName = agent.Name
	}
	s.appendSystemMessage(ctx, uow, tenantId, handoff.ChatSessionId, agentName+" joined the conversation")

	s.publisher.Publish(events.NewHandoffAssigned(tenantId, handoffId, handoff.ChatSessionId, agentId))

	s.logger.Info("Handoff", "Handoff assigned", map[string]interface{}{
		"handoff_id": handoffId,
		"agent_id":   agentId,
	})

	return &dto.AssignHandoffResponse{Success: true, HandoffId: handoffId, ChatId: handoff.ChatSessionId}, nil
}

// Resolve closes a handoff from the operator side and returns the session to
// the assistant. Safe to call twice: the slot decrement is tied to winning
// the active -> resolved transition, which only one caller can do.
func (s *handoffService) Resolve(ctx context.Context, tenantId, handoffId uuid.UUID) (*dto.ResolveHandoffResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	handoff, err := uow.HandoffRepository().FindOne(ctx,
		specification.ByID{ID: handoffId},
		specification.OwnedByTenant{TenantID: tenantId},
	)
	if err != nil {
		return nil, err
	}
	if handoff == nil {
		return nil, ErrNotFound
	}

	won, err := s.resolveHandoff(ctx, uow, handoff, constant.HandoffResolvedByAgent)
	if err != nil {
		return nil, err
	}
	if won {
		if err := uow.ChatSessionRepository().SetHandler(ctx, tenantId, handoff.ChatSessionId, constant.SessionHandlerAI); err != nil {
			return nil, err
		}
		s.appendSystemMessage(ctx, uow, tenantId, handoff.ChatSessionId, "The operator closed the conversation. You're back with the assistant.")
		s.publisher.Publish(events.NewHandoffResolved(tenantId, handoffId, handoff.ChatSessionId, constant.HandoffResolvedByAgent))
	}

	return &dto.ResolveHandoffResponse{Success: true}, nil
}

// EndChat is the visitor-side close. It resolves any live handoff on the
// session, frees the assignee's slot and marks the session ended. Calling it
// on an already-ended session is a no-op success.
func (s *handoffService) EndChat(ctx context.Context, tenantId uuid.UUID, request *dto.EndChatRequest) (*dto.EndChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatId},
		specification.OwnedByTenant{TenantID: tenantId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}

	handoff, err := uow.HandoffRepository().FindOne(ctx,
		specification.ByChatSessionID{ChatSessionID: request.ChatId},
		specification.OwnedByTenant{TenantID: tenantId},
		specification.NonTerminal{},
	)
	if err != nil {
		return nil, err
	}
	if handoff != nil {
		won, err := s.resolveHandoff(ctx, uow, handoff, constant.HandoffResolvedByUser)
		if err != nil {
			return nil, err
		}
		if won {
			s.publisher.Publish(events.NewHandoffResolved(tenantId, handoff.Id, request.ChatId, constant.HandoffResolvedByUser))
		}
	}

	if session.CurrentHandler != constant.SessionHandlerEnded {
		if err := uow.ChatSessionRepository().SetHandler(ctx, tenantId, request.ChatId, constant.SessionHandlerEnded); err != nil {
			return nil, err
		}
		s.publisher.Publish(events.NewSessionEnded(tenantId, request.ChatId))
	}

	return &dto.EndChatResponse{Success: true}, nil
}

// resolveHandoff tries active -> resolved first, then pending -> resolved.
// The capacity slot is released only on winning the active branch, using the
// assignee the transition itself reported. The handoff read taken earlier is
// stale by construction: an assignment can land between that read and the
// resolve, and its slot must still come back.
func (s *handoffService) resolveHandoff(ctx context.Context, uow unitofwork.UnitOfWork, handoff *entity.HandoffRequest, resolvedBy string) (bool, error) {
	now := time.Now()

	assignee, won, err := uow.HandoffRepository().MarkResolvedFromActive(ctx, handoff.TenantId, handoff.Id, resolvedBy, now)
	if err != nil {
		return false, err
	}
	if won {
		if assignee != nil {
			if err := uow.AgentRepository().ReleaseSlot(ctx, handoff.TenantId, *assignee); err != nil {
				s.logger.Error("Handoff", "Failed to release slot on resolve", map[string]interface{}{
					"handoff_id": handoff.Id,
					"agent_id":   *assignee,
					"error":      err.Error(),
				})
			}
		}
		return true, nil
	}

	return uow.HandoffRepository().MarkResolvedFromPending(ctx, handoff.TenantId, handoff.Id, resolvedBy, now)
}

func (s *handoffService) buildSnapshot(history []dto.SnapshotTurnDTO) []entity.SnapshotTurn {
	if len(history) > s.snapshotTurns {
		history = history[len(history)-s.snapshotTurns:]
	}
	snapshot := make([]entity.SnapshotTurn, 0, len(history))
	for _, turn := range history {
		snapshot = append(snapshot, entity.SnapshotTurn{Role: turn.Role, Body: turn.Body})
	}
	return snapshot
}

func (s *handoffService) appendSystemMessage(ctx context.Context, uow unitofwork.UnitOfWork, tenantId, chatId uuid.UUID, body string) {
	msg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatId,
		TenantId:      tenantId,
		Role:          constant.MessageRoleSystem,
		Body:          body,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, msg); err != nil {
		s.logger.Warn("Handoff", "Failed to persist system message", map[string]interface{}{
			"chat_id": chatId,
			"error":   err.Error(),
		})
	}
}

func (s *handoffService) notifyAfterHours(ctx context.Context, uow unitofwork.UnitOfWork, tenantId uuid.UUID, handoff *entity.HandoffRequest, lastUserMessage string) {
	tenant, err := uow.TenantRepository().FindOne(ctx, specification.ByID{ID: tenantId})
	if err != nil || tenant == nil || tenant.AfterHoursEmail == "" {
		return
	}

	go func() {
		if err := s.emailService.SendAfterHoursNotice(tenant.AfterHoursEmail, tenant.Name, derefOrEmpty(handoff.ContactInfo), lastUserMessage); err != nil {
			s.logger.Warn("Handoff", "After-hours notice failed", map[string]interface{}{
				"handoff_id": handoff.Id,
				"error":      err.Error(),
			})
		}
	}()
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
