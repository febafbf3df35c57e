package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"chat-handoff-be/internal/constant"
	"chat-handoff-be/internal/dto"
	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/pkg/logger"
	"chat-handoff-be/internal/repository/specification"
	"chat-handoff-be/internal/repository/unitofwork"
	"chat-handoff-be/pkg/assistant"
	"chat-handoff-be/pkg/events"

	"github.com/google/uuid"
)

const assistantHistoryLimit = 20

// IChatService routes inbound visitor messages to whichever side currently
// owns the session: the generative assistant or a human operator. It also
// serves the widget's poll loop and the operator reply path.
type IChatService interface {
	SendMessage(ctx context.Context, tenantId uuid.UUID, request *dto.SendChatMessageRequest) (*dto.SendChatMessageResponse, error)
	AgentReply(ctx context.Context, tenantId, agentId, handoffId uuid.UUID, request *dto.AgentReplyRequest) (*dto.AgentReplyResponse, error)
	PollMessages(ctx context.Context, tenantId, handoffId uuid.UUID, since string) (*dto.HandoffMessagesResponse, error)
	EndChat(ctx context.Context, tenantId uuid.UUID, request *dto.EndChatRequest) (*dto.EndChatResponse, error)
	ReapIdleSessions(now time.Time)
}

type chatService struct {
	uowFactory  unitofwork.RepositoryFactory
	provider    assistant.Provider
	handoffs    IHandoffService
	publisher   IEventPublisher
	idleTimeout time.Duration
	logger      logger.ILogger

	// One mutex per live session serializes the assistant round-trip, so two
	// rapid turns from the same visitor cannot interleave their completions.
	sessionLocks sync.Map
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	provider assistant.Provider,
	handoffs IHandoffService,
	publisher IEventPublisher,
	idleTimeout time.Duration,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:  uowFactory,
		provider:    provider,
		handoffs:    handoffs,
		publisher:   publisher,
		idleTimeout: idleTimeout,
		logger:      log,
	}
}

// SendMessage persists the visitor's turn and, when the assistant owns the
// session, produces a reply. When an operator owns it the message is stored
// and broadcast only; the operator answers through their own channel. A
// missing or ended chat id starts a fresh session rather than failing the
// visitor.
func (s *chatService) SendMessage(ctx context.Context, tenantId uuid.UUID, request *dto.SendChatMessageRequest) (*dto.SendChatMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOrCreateSession(ctx, uow, tenantId, request.ChatId)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		TenantId:      tenantId,
		Role:          constant.MessageRoleUser,
		Body:          request.Message,
		CreatedAt:     now,
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}
	if err := uow.ChatSessionRepository().TouchActivity(ctx, tenantId, session.Id, now); err != nil {
		return nil, err
	}
	s.publisher.Publish(events.NewChatMessageEvent(events.TypeUserMessage, tenantId, session.Id, userMessage.Id, constant.MessageRoleUser))

	response := &dto.SendChatMessageResponse{
		ChatId:   session.Id,
		Handler:  session.CurrentHandler,
		Messages: []dto.ChatMessageDTO{toMessageDTO(userMessage)},
	}

	if session.CurrentHandler != constant.SessionHandlerAI {
		return response, nil
	}

	assistantMessage, err := s.respondWithAssistant(ctx, uow, tenantId, session, request.Message)
	if err != nil {
		return nil, err
	}

	response.Messages = append(response.Messages, toMessageDTO(assistantMessage))
	return response, nil
}

// respondWithAssistant runs the upstream round-trip and persists the reply,
// all under the session lock: two rapid turns from the same visitor can
// neither interleave their completions nor store replies out of submission
// order.
func (s *chatService) respondWithAssistant(ctx context.Context, uow unitofwork.UnitOfWork, tenantId uuid.UUID, session *entity.ChatSession, message string) (*entity.ChatMessage, error) {
	lock, _ := s.sessionLocks.LoadOrStore(session.Id, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	reply := s.completeWithAssistant(ctx, uow, tenantId, session, message)

	assistantMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		TenantId:      tenantId,
		Role:          constant.MessageRoleAssistant,
		Body:          reply,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMessage); err != nil {
		return nil, err
	}
	if err := uow.ChatSessionRepository().TouchActivity(ctx, tenantId, session.Id, assistantMessage.CreatedAt); err != nil {
		return nil, err
	}
	return assistantMessage, nil
}

// AgentReply delivers an operator message into the session behind an active
// handoff. Only the assignee may speak through it.
func (s *chatService) AgentReply(ctx context.Context, tenantId, agentId, handoffId uuid.UUID, request *dto.AgentReplyRequest) (*dto.AgentReplyResponse, error) {
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
	if handoff.Status != constant.HandoffStatusActive || handoff.AssignedAgentId == nil || *handoff.AssignedAgentId != agentId {
		return nil, ErrAssignConflict
	}

	now := time.Now()
	message := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: handoff.ChatSessionId,
		TenantId:      tenantId,
		Role:          constant.MessageRoleAgent,
		Body:          request.Message,
		CreatedAt:     now,
	}
	if err := uow.ChatMessageRepository().Create(ctx, message); err != nil {
		return nil, err
	}
	if err := uow.ChatSessionRepository().TouchActivity(ctx, tenantId, handoff.ChatSessionId, now); err != nil {
		return nil, err
	}
	s.publisher.Publish(events.NewChatMessageEvent(events.TypeAgentMessage, tenantId, handoff.ChatSessionId, message.Id, constant.MessageRoleAgent))

	return &dto.AgentReplyResponse{Message: toMessageDTO(message)}, nil
}

// PollMessages serves the widget's polling loop. The cursor is the CreatedAt
// of the last row already seen, strictly exceeded by every returned row, so
// overlapping polls never yield duplicates.
func (s *chatService) PollMessages(ctx context.Context, tenantId, handoffId uuid.UUID, since string) (*dto.HandoffMessagesResponse, error) {
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

	specs := []specification.Specification{
		specification.ByChatSessionID{ChatSessionID: handoff.ChatSessionId},
		specification.OwnedByTenant{TenantID: tenantId},
		specification.OrderBy{Field: "created_at"},
	}
	if since != "" {
		cursor, err := time.Parse(time.RFC3339Nano, since)
		if err != nil {
			return nil, ErrInvalidCursor
		}
		specs = append(specs, specification.CreatedAfter{After: cursor})
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	response := &dto.HandoffMessagesResponse{
		Messages:   make([]dto.ChatMessageDTO, 0, len(messages)),
		NextCursor: since,
	}
	for _, m := range messages {
		response.Messages = append(response.Messages, toMessageDTO(m))
	}
	if len(messages) > 0 {
		response.NextCursor = messages[len(messages)-1].CreatedAt.Format(time.RFC3339Nano)
	}
	return response, nil
}

// EndChat is the visitor-side close (and the unload beacon target). It runs
// through the handoff service, then drops the session's serialization lock;
// an ended session never speaks to the assistant again.
func (s *chatService) EndChat(ctx context.Context, tenantId uuid.UUID, request *dto.EndChatRequest) (*dto.EndChatResponse, error) {
	res, err := s.handoffs.EndChat(ctx, tenantId, request)
	if err != nil {
		return nil, err
	}
	s.sessionLocks.Delete(request.ChatId)
	return res, nil
}

// ReapIdleSessions is the scheduler job body: sessions silent past the idle
// timeout are closed the same way a visitor-initiated end would close them.
func (s *chatService) ReapIdleSessions(now time.Time) {
	ctx := context.Background()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	cutoff := now.Add(-s.idleTimeout)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specification.IdleSince{Cutoff: cutoff})
	if err != nil {
		s.logger.Error("Chat", "Idle sweep failed", map[string]interface{}{"error": err.Error()})
		return
	}

	for _, session := range sessions {
		if _, err := s.handoffs.EndChat(ctx, session.TenantId, &dto.EndChatRequest{ChatId: session.Id}); err != nil {
			s.logger.Warn("Chat", "Failed to reap idle session", map[string]interface{}{
				"chat_id": session.Id,
				"error":   err.Error(),
			})
			continue
		}
		s.sessionLocks.Delete(session.Id)
	}
	if len(sessions) > 0 {
		s.logger.Info("Chat", "Reaped idle sessions", map[string]interface{}{"count": len(sessions)})
	}
}

func (s *chatService) findOrCreateSession(ctx context.Context, uow unitofwork.UnitOfWork, tenantId uuid.UUID, chatId *uuid.UUID) (*entity.ChatSession, error) {
	if chatId != nil {
		session, err := uow.ChatSessionRepository().FindOne(ctx,
			specification.ByID{ID: *chatId},
			specification.OwnedByTenant{TenantID: tenantId},
		)
		if err != nil {
			return nil, err
		}
		if session != nil && session.CurrentHandler != constant.SessionHandlerEnded {
			return session, nil
		}
	}

	session := &entity.ChatSession{
		Id:             uuid.New(),
		TenantId:       tenantId,
		CurrentHandler: constant.SessionHandlerAI,
		LastActivityAt: time.Now(),
		CreatedAt:      time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// completeWithAssistant produces the reply text. The caller holds the session
// lock. Every failure mode degrades to a canned reply; the visitor always
// gets an answer and the turn is never lost.
func (s *chatService) completeWithAssistant(ctx context.Context, uow unitofwork.UnitOfWork, tenantId uuid.UUID, session *entity.ChatSession, message string) string {
	ref, history, err := s.ensureUpstreamSession(ctx, uow, tenantId, session)
	if err != nil {
		s.logger.Error("Chat", "Assistant session unavailable", map[string]interface{}{
			"chat_id": session.Id,
			"error":   err.Error(),
		})
		return constant.AssistantUnavailableReply
	}

	reply, err := s.provider.Complete(ctx, ref, history, message)
	if errors.Is(err, assistant.ErrSessionInvalid) {
		// The upstream forgot us. Start over with a fresh session; prior
		// context is gone, which beats failing the turn.
		s.logger.Warn("Chat", "Upstream session ref rejected, recreating", map[string]interface{}{
			"chat_id": session.Id,
		})
		ref, history, err = s.recreateUpstreamSession(ctx, uow, tenantId, session)
		if err == nil {
			reply, err = s.provider.Complete(ctx, ref, history, message)
		}
	}
	if err != nil {
		s.logger.Error("Chat", "Assistant completion failed", map[string]interface{}{
			"chat_id": session.Id,
			"error":   err.Error(),
		})
		return constant.AssistantUnavailableReply
	}
	return reply
}

func (s *chatService) ensureUpstreamSession(ctx context.Context, uow unitofwork.UnitOfWork, tenantId uuid.UUID, session *entity.ChatSession) (string, []assistant.Turn, error) {
	if session.UpstreamSessionRef != nil && *session.UpstreamSessionRef != "" {
		history, err := s.loadHistory(ctx, uow, tenantId, session.Id)
		if err != nil {
			return "", nil, err
		}
		return *session.UpstreamSessionRef, history, nil
	}
	ref, _, err := s.recreateUpstreamSession(ctx, uow, tenantId, session)
	return ref, nil, err
}

func (s *chatService) recreateUpstreamSession(ctx context.Context, uow unitofwork.UnitOfWork, tenantId uuid.UUID, session *entity.ChatSession) (string, []assistant.Turn, error) {
	ref, err := s.provider.CreateSession(ctx)
	if err != nil {
		return "", nil, err
	}
	if err := uow.ChatSessionRepository().SetUpstreamRef(ctx, tenantId, session.Id, &ref); err != nil {
		return "", nil, err
	}
	session.UpstreamSessionRef = &ref
	return ref, nil, nil
}

// loadHistory feeds the most recent turns back upstream for context. System
// messages are routing chatter, not conversation, and are skipped.
func (s *chatService) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, tenantId, chatId uuid.UUID) ([]assistant.Turn, error) {
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: chatId},
		specification.OwnedByTenant{TenantID: tenantId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: assistantHistoryLimit},
	)
	if err != nil {
		return nil, err
	}

	history := make([]assistant.Turn, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == constant.MessageRoleSystem {
			continue
		}
		history = append(history, assistant.Turn{Role: messages[i].Role, Text: messages[i].Body})
	}
	return history, nil
}

func toMessageDTO(m *entity.ChatMessage) dto.ChatMessageDTO {
	return dto.ChatMessageDTO{
		Id:        m.Id,
		Role:      m.Role,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}
