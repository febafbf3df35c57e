package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"chat-handoff-be/internal/constant"
	"chat-handoff-be/internal/dto"
	"chat-handoff-be/internal/entity"
	"chat-handoff-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handoffFixture struct {
	store     *fakeStore
	publisher *capturingPublisher
	mailer    *capturingMailer
	service   IHandoffService
	tenantId  uuid.UUID
}

func newHandoffFixture(t *testing.T) *handoffFixture {
	t.Helper()
	store := newFakeStore()
	publisher := &capturingPublisher{}
	mail := &capturingMailer{}

	tenantId := uuid.New()
	store.tenants[tenantId] = &entity.Tenant{
		Id:              tenantId,
		Name:            "Acme",
		AfterHoursEmail: "inbox@acme.test",
	}

	return &handoffFixture{
		store:     store,
		publisher: publisher,
		mailer:    mail,
		service:   NewHandoffService(&fakeFactory{store: store}, publisher, mail, 10, nopLogger{}),
		tenantId:  tenantId,
	}
}

func (f *handoffFixture) addAgent(status string, active, max int) uuid.UUID {
	id := uuid.New()
	f.store.agents[id] = &entity.Agent{
		Id:              id,
		TenantId:        f.tenantId,
		Name:            "Op " + id.String()[:4],
		Status:          status,
		ActiveChatCount: active,
		MaxChatCount:    max,
		LastSeenAt:      time.Now(),
	}
	return id
}

func (f *handoffFixture) addSession() uuid.UUID {
	id := uuid.New()
	f.store.sessions[id] = &entity.ChatSession{
		Id:             id,
		TenantId:       f.tenantId,
		CurrentHandler: constant.SessionHandlerAI,
		LastActivityAt: time.Now(),
	}
	return id
}

func TestRequestHandoffWithCapacityGoesPending(t *testing.T) {
	f := newHandoffFixture(t)
	f.addAgent(constant.AgentStatusAvailable, 0, 3)
	chatId := f.addSession()

	res, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{
		ChatId: chatId,
		ConversationHistory: []dto.SnapshotTurnDTO{
			{Role: "user", Body: "I need a human"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, constant.HandoffStatusPending, res.Status)
	assert.Equal(t, 1, f.publisher.countOf(events.TypeHandoffRequested))

	stored := f.store.handoffs[res.HandoffId]
	require.NotNil(t, stored)
	assert.Len(t, stored.ConversationSnapshot, 1)
}

func TestRequestHandoffWithoutCapacityGoesAfterHours(t *testing.T) {
	f := newHandoffFixture(t)
	f.addAgent(constant.AgentStatusOffline, 0, 3)
	f.addAgent(constant.AgentStatusAvailable, 2, 2) // full
	chatId := f.addSession()
	email := "visitor@example.com"

	res, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{
		ChatId:          chatId,
		UserEmail:       &email,
		LastUserMessage: "anyone there?",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.HandoffStatusAfterHours, res.Status)
	assert.Equal(t, 1, f.publisher.countOf(events.TypeHandoffAfterHours))
	assert.Equal(t, 0, f.publisher.countOf(events.TypeHandoffRequested))
}

func TestRequestHandoffIsIdempotentWhileLive(t *testing.T) {
	f := newHandoffFixture(t)
	f.addAgent(constant.AgentStatusAvailable, 0, 3)
	chatId := f.addSession()

	first, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{ChatId: chatId})
	require.NoError(t, err)

	second, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{ChatId: chatId})
	require.NoError(t, err)

	assert.Equal(t, first.HandoffId, second.HandoffId)
	assert.Len(t, f.store.handoffs, 1)
	assert.Equal(t, 1, f.publisher.countOf(events.TypeHandoffRequested))
}

func TestRequestHandoffSnapshotKeepsMostRecentTurns(t *testing.T) {
	f := newHandoffFixture(t)
	f.addAgent(constant.AgentStatusAvailable, 0, 3)
	chatId := f.addSession()

	history := make([]dto.SnapshotTurnDTO, 15)
	for i := range history {
		history[i] = dto.SnapshotTurnDTO{Role: "user", Body: string(rune('a' + i))}
	}

	res, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{
		ChatId:              chatId,
		ConversationHistory: history,
	})
	require.NoError(t, err)

	stored := f.store.handoffs[res.HandoffId]
	require.Len(t, stored.ConversationSnapshot, 10)
	assert.Equal(t, history[5].Body, stored.ConversationSnapshot[0].Body)
	assert.Equal(t, history[14].Body, stored.ConversationSnapshot[9].Body)
}

func TestConcurrentAssignHasExactlyOneWinner(t *testing.T) {
	f := newHandoffFixture(t)
	chatId := f.addSession()
	f.addAgent(constant.AgentStatusAvailable, 0, 3)

	res, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{ChatId: chatId})
	require.NoError(t, err)

	const competitors = 8
	agentIds := make([]uuid.UUID, competitors)
	for i := range agentIds {
		agentIds[i] = f.addAgent(constant.AgentStatusAvailable, 0, 3)
	}

	var wg sync.WaitGroup
	wins := make(chan uuid.UUID, competitors)
	for _, agentId := range agentIds {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if _, err := f.service.Assign(context.Background(), f.tenantId, res.HandoffId, id); err == nil {
				wins <- id
			}
		}(agentId)
	}
	wg.Wait()
	close(wins)

	var winners []uuid.UUID
	for id := range wins {
		winners = append(winners, id)
	}
	require.Len(t, winners, 1)

	// The winner holds exactly one slot, every loser holds none.
	for _, agentId := range agentIds {
		agent := f.store.agents[agentId]
		if agentId == winners[0] {
			assert.Equal(t, 1, agent.ActiveChatCount)
		} else {
			assert.Equal(t, 0, agent.ActiveChatCount, "loser must not leak a slot")
		}
	}

	handoff := f.store.handoffs[res.HandoffId]
	assert.Equal(t, constant.HandoffStatusActive, handoff.Status)
	assert.Equal(t, winners[0], *handoff.AssignedAgentId)
	assert.Equal(t, constant.SessionHandlerAgent, f.store.sessions[chatId].CurrentHandler)
	assert.Equal(t, 1, f.publisher.countOf(events.TypeHandoffAssigned))
}

func TestAssignFullAgentReturnsNoCapacity(t *testing.T) {
	f := newHandoffFixture(t)
	chatId := f.addSession()
	f.addAgent(constant.AgentStatusAvailable, 0, 3)

	res, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{ChatId: chatId})
	require.NoError(t, err)

	fullAgent := f.addAgent(constant.AgentStatusAvailable, 2, 2)
	_, err = f.service.Assign(context.Background(), f.tenantId, res.HandoffId, fullAgent)
	assert.ErrorIs(t, err, ErrNoCapacity)

	assert.Equal(t, constant.HandoffStatusPending, f.store.handoffs[res.HandoffId].Status)
}

func TestDoubleResolveReleasesSlotOnce(t *testing.T) {
	f := newHandoffFixture(t)
	chatId := f.addSession()
	agentId := f.addAgent(constant.AgentStatusAvailable, 0, 3)

	res, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{ChatId: chatId})
	require.NoError(t, err)
	_, err = f.service.Assign(context.Background(), f.tenantId, res.HandoffId, agentId)
	require.NoError(t, err)
	require.Equal(t, 1, f.store.agents[agentId].ActiveChatCount)

	_, err = f.service.Resolve(context.Background(), f.tenantId, res.HandoffId)
	require.NoError(t, err)
	_, err = f.service.Resolve(context.Background(), f.tenantId, res.HandoffId)
	require.NoError(t, err)

	assert.Equal(t, 0, f.store.agents[agentId].ActiveChatCount, "slot must be released exactly once")
	assert.Equal(t, constant.HandoffStatusResolved, f.store.handoffs[res.HandoffId].Status)
	assert.Equal(t, constant.SessionHandlerAI, f.store.sessions[chatId].CurrentHandler)
	assert.Equal(t, 1, f.publisher.countOf(events.TypeHandoffResolved))
}

func TestResolvePendingHandoffSkipsSlotRelease(t *testing.T) {
	f := newHandoffFixture(t)
	chatId := f.addSession()
	agentId := f.addAgent(constant.AgentStatusAvailable, 1, 3)

	res, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{ChatId: chatId})
	require.NoError(t, err)

	_, err = f.service.Resolve(context.Background(), f.tenantId, res.HandoffId)
	require.NoError(t, err)

	assert.Equal(t, constant.HandoffStatusResolved, f.store.handoffs[res.HandoffId].Status)
	assert.Equal(t, 1, f.store.agents[agentId].ActiveChatCount, "no slot was held for a pending handoff")
}

func TestEndChatResolvesLiveHandoffAndEndsSession(t *testing.T) {
	f := newHandoffFixture(t)
	chatId := f.addSession()
	agentId := f.addAgent(constant.AgentStatusAvailable, 0, 3)

	res, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{ChatId: chatId})
	require.NoError(t, err)
	_, err = f.service.Assign(context.Background(), f.tenantId, res.HandoffId, agentId)
	require.NoError(t, err)

	_, err = f.service.EndChat(context.Background(), f.tenantId, &dto.EndChatRequest{ChatId: chatId})
	require.NoError(t, err)

	handoff := f.store.handoffs[res.HandoffId]
	assert.Equal(t, constant.HandoffStatusResolved, handoff.Status)
	assert.Equal(t, constant.HandoffResolvedByUser, *handoff.ResolvedBy)
	assert.Equal(t, 0, f.store.agents[agentId].ActiveChatCount)
	assert.Equal(t, constant.SessionHandlerEnded, f.store.sessions[chatId].CurrentHandler)
	assert.Equal(t, 1, f.publisher.countOf(events.TypeSessionEnded))

	// Second call is a no-op success.
	_, err = f.service.EndChat(context.Background(), f.tenantId, &dto.EndChatRequest{ChatId: chatId})
	require.NoError(t, err)
	assert.Equal(t, 1, f.publisher.countOf(events.TypeSessionEnded))
}

func TestEndChatRaceWithResolveReleasesSlotOnce(t *testing.T) {
	f := newHandoffFixture(t)
	chatId := f.addSession()
	agentId := f.addAgent(constant.AgentStatusAvailable, 0, 3)

	res, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{ChatId: chatId})
	require.NoError(t, err)
	_, err = f.service.Assign(context.Background(), f.tenantId, res.HandoffId, agentId)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		f.service.Resolve(context.Background(), f.tenantId, res.HandoffId)
	}()
	go func() {
		defer wg.Done()
		f.service.EndChat(context.Background(), f.tenantId, &dto.EndChatRequest{ChatId: chatId})
	}()
	wg.Wait()

	assert.Equal(t, 0, f.store.agents[agentId].ActiveChatCount)
	assert.Equal(t, constant.HandoffStatusResolved, f.store.handoffs[res.HandoffId].Status)
	assert.Equal(t, 1, f.publisher.countOf(events.TypeHandoffResolved))
}

func TestEndChatReleasesSlotWhenAssignLandsMidResolve(t *testing.T) {
	f := newHandoffFixture(t)
	chatId := f.addSession()
	agentId := f.addAgent(constant.AgentStatusAvailable, 0, 3)

	res, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{ChatId: chatId})
	require.NoError(t, err)

	// The assignment lands after EndChat has already read the handoff as
	// pending, so EndChat's snapshot carries no assignee.
	var once sync.Once
	f.store.beforeResolveActive = func() {
		once.Do(func() {
			_, err := f.service.Assign(context.Background(), f.tenantId, res.HandoffId, agentId)
			require.NoError(t, err)
		})
	}

	_, err = f.service.EndChat(context.Background(), f.tenantId, &dto.EndChatRequest{ChatId: chatId})
	require.NoError(t, err)

	assert.Equal(t, constant.HandoffStatusResolved, f.store.handoffs[res.HandoffId].Status)
	assert.Equal(t, 0, f.store.agents[agentId].ActiveChatCount,
		"assignee slot must be released when the active handoff is resolved")
}

func TestAfterHoursRequestSendsEmailNotice(t *testing.T) {
	f := newHandoffFixture(t)
	chatId := f.addSession()
	email := "visitor@example.com"

	_, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{
		ChatId:          chatId,
		UserEmail:       &email,
		LastUserMessage: "help",
	})
	require.NoError(t, err)

	// The notice is sent on a goroutine.
	assert.Eventually(t, func() bool {
		f.mailer.mu.Lock()
		defer f.mailer.mu.Unlock()
		return len(f.mailer.sends) == 1 && f.mailer.sends[0] == "inbox@acme.test"
	}, time.Second, 10*time.Millisecond)
}

func TestPendingForTenantExcludesOtherStatesAndTenants(t *testing.T) {
	f := newHandoffFixture(t)
	f.addAgent(constant.AgentStatusAvailable, 0, 3)
	chatId := f.addSession()

	res, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{ChatId: chatId})
	require.NoError(t, err)

	otherTenant := uuid.New()
	f.store.handoffs[uuid.New()] = &entity.HandoffRequest{
		Id:            uuid.New(),
		ChatSessionId: uuid.New(),
		TenantId:      otherTenant,
		Status:        constant.HandoffStatusPending,
		RequestedAt:   time.Now(),
	}

	pending, err := f.service.PendingForTenant(context.Background(), f.tenantId)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, res.HandoffId, pending[0].Id)
}

func TestStatusForWidgetIncludesAssigneeName(t *testing.T) {
	f := newHandoffFixture(t)
	chatId := f.addSession()
	agentId := f.addAgent(constant.AgentStatusAvailable, 0, 3)
	f.store.agents[agentId].Name = "Alice"

	res, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{ChatId: chatId})
	require.NoError(t, err)

	status, err := f.service.StatusForWidget(context.Background(), f.tenantId, res.HandoffId)
	require.NoError(t, err)
	assert.Equal(t, constant.HandoffStatusPending, status.Status)
	assert.Nil(t, status.AgentName)

	_, err = f.service.Assign(context.Background(), f.tenantId, res.HandoffId, agentId)
	require.NoError(t, err)

	status, err = f.service.StatusForWidget(context.Background(), f.tenantId, res.HandoffId)
	require.NoError(t, err)
	assert.Equal(t, constant.HandoffStatusActive, status.Status)
	require.NotNil(t, status.AgentName)
	assert.Equal(t, "Alice", *status.AgentName)
}

func TestStatusForWidgetRejectsForeignTenant(t *testing.T) {
	f := newHandoffFixture(t)
	f.addAgent(constant.AgentStatusAvailable, 0, 3)
	chatId := f.addSession()

	res, err := f.service.Request(context.Background(), f.tenantId, &dto.RequestHandoffRequest{ChatId: chatId})
	require.NoError(t, err)

	_, err = f.service.StatusForWidget(context.Background(), uuid.New(), res.HandoffId)
	assert.ErrorIs(t, err, ErrNotFound)
}
