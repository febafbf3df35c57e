package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"chat-handoff-be/internal/constant"
	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/repository/contract"
	"chat-handoff-be/internal/repository/specification"
	"chat-handoff-be/internal/repository/unitofwork"
	"chat-handoff-be/pkg/assistant"
	"chat-handoff-be/pkg/events"

	"github.com/google/uuid"
)

// ---- logger ----

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// ---- event publisher ----

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturingPublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturingPublisher) typesSeen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func (p *capturingPublisher) countOf(eventType string) int {
	n := 0
	for _, t := range p.typesSeen() {
		if t == eventType {
			n++
		}
	}
	return n
}

// ---- mailer ----

type capturingMailer struct {
	mu    sync.Mutex
	sends []string
}

func (m *capturingMailer) SendAfterHoursNotice(toEmail, tenantName, contactInfo, lastUserMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, toEmail)
	return nil
}

// ---- assistant provider ----

type scriptedProvider struct {
	mu             sync.Mutex
	sessionCounter int
	completeFn     func(sessionRef string, history []assistant.Turn, message string) (string, error)
	completeCalls  int
}

func (p *scriptedProvider) CreateSession(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessionCounter++
	return fmt.Sprintf("sess-%d", p.sessionCounter), nil
}

func (p *scriptedProvider) Complete(ctx context.Context, sessionRef string, history []assistant.Turn, message string) (string, error) {
	p.mu.Lock()
	fn := p.completeFn
	p.completeCalls++
	p.mu.Unlock()
	if fn != nil {
		return fn(sessionRef, history, message)
	}
	return "echo: " + message, nil
}

// ---- in-memory store ----

type fakeStore struct {
	mu       sync.Mutex
	tenants  map[uuid.UUID]*entity.Tenant
	bindings map[string]*entity.TenantAgentBinding
	agents   map[uuid.UUID]*entity.Agent
	sessions map[uuid.UUID]*entity.ChatSession
	messages []*entity.ChatMessage
	handoffs map[uuid.UUID]*entity.HandoffRequest

	// beforeResolveActive, when set, runs just before the active -> resolved
	// transition. Tests use it to wedge another operation into the window
	// between a service's read and its resolve.
	beforeResolveActive func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants:  make(map[uuid.UUID]*entity.Tenant),
		bindings: make(map[string]*entity.TenantAgentBinding),
		agents:   make(map[uuid.UUID]*entity.Agent),
		sessions: make(map[uuid.UUID]*entity.ChatSession),
		handoffs: make(map[uuid.UUID]*entity.HandoffRequest),
	}
}

type fakeFactory struct {
	store *fakeStore
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) TenantRepository() contract.TenantRepository {
	return &fakeTenantRepo{store: u.store}
}
func (u *fakeUow) BindingRepository() contract.BindingRepository {
	return &fakeBindingRepo{store: u.store}
}
func (u *fakeUow) AgentRepository() contract.AgentRepository {
	return &fakeAgentRepo{store: u.store}
}
func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return &fakeSessionRepo{store: u.store}
}
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &fakeMessageRepo{store: u.store}
}
func (u *fakeUow) HandoffRepository() contract.HandoffRepository {
	return &fakeHandoffRepo{store: u.store}
}

// criteria mirrors the subset of specifications the services actually use.
type criteria struct {
	id            *uuid.UUID
	tenantId      *uuid.UUID
	chatSessionId *uuid.UUID
	status        *string
	nonTerminal   bool
	createdAfter  *time.Time
	idleCutoff    *time.Time
	orderDesc     bool
	limit         int
}

func parseSpecs(specs []specification.Specification) criteria {
	var c criteria
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ByID:
			id := v.ID
			c.id = &id
		case specification.OwnedByTenant:
			t := v.TenantID
			c.tenantId = &t
		case specification.ByChatSessionID:
			cs := v.ChatSessionID
			c.chatSessionId = &cs
		case specification.ByStatus:
			st := v.Status
			c.status = &st
		case specification.NonTerminal:
			c.nonTerminal = true
		case specification.CreatedAfter:
			after := v.After
			c.createdAfter = &after
		case specification.IdleSince:
			cut := v.Cutoff
			c.idleCutoff = &cut
		case specification.OrderBy:
			c.orderDesc = v.Desc
		case specification.Pagination:
			c.limit = v.Limit
		}
	}
	return c
}

// ---- tenant repo ----

type fakeTenantRepo struct{ store *fakeStore }

func (r *fakeTenantRepo) Create(ctx context.Context, tenant *entity.Tenant) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *tenant
	r.store.tenants[tenant.Id] = &cp
	return nil
}

func (r *fakeTenantRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Tenant, error) {
	c := parseSpecs(specs)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if c.id != nil {
		if t, ok := r.store.tenants[*c.id]; ok {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTenantRepo) FindByLegacyWidgetKey(ctx context.Context, key string) (*entity.Tenant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.tenants {
		if t.LegacyWidgetKey != nil && *t.LegacyWidgetKey == key {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

// ---- binding repo ----

type fakeBindingRepo struct{ store *fakeStore }

func (r *fakeBindingRepo) Upsert(ctx context.Context, binding *entity.TenantAgentBinding) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *binding
	r.store.bindings[binding.ExternalAgentId] = &cp
	return nil
}

func (r *fakeBindingRepo) FindByExternalAgentId(ctx context.Context, externalAgentId string) (*entity.TenantAgentBinding, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if b, ok := r.store.bindings[externalAgentId]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeBindingRepo) DeleteByExternalAgentId(ctx context.Context, tenantId uuid.UUID, externalAgentId string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if b, ok := r.store.bindings[externalAgentId]; ok && b.TenantId == tenantId {
		delete(r.store.bindings, externalAgentId)
	}
	return nil
}

// ---- agent repo ----

type fakeAgentRepo struct{ store *fakeStore }

func (r *fakeAgentRepo) Create(ctx context.Context, agent *entity.Agent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *agent
	r.store.agents[agent.Id] = &cp
	return nil
}

func (r *fakeAgentRepo) Update(ctx context.Context, agent *entity.Agent) error {
	return r.Create(ctx, agent)
}

func (r *fakeAgentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Agent, error) {
	c := parseSpecs(specs)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if c.id != nil {
		if a, ok := r.store.agents[*c.id]; ok {
			if c.tenantId != nil && a.TenantId != *c.tenantId {
				return nil, nil
			}
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAgentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Agent, error) {
	c := parseSpecs(specs)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Agent
	for _, a := range r.store.agents {
		if c.tenantId != nil && a.TenantId != *c.tenantId {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeAgentRepo) FindByEmail(ctx context.Context, email string) (*entity.Agent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.agents {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAgentRepo) TryAcquireSlot(ctx context.Context, tenantId, agentId uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.agents[agentId]
	if !ok || a.TenantId != tenantId || a.ActiveChatCount >= a.MaxChatCount {
		return false, nil
	}
	a.ActiveChatCount++
	return true, nil
}

func (r *fakeAgentRepo) ReleaseSlot(ctx context.Context, tenantId, agentId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if a, ok := r.store.agents[agentId]; ok && a.TenantId == tenantId && a.ActiveChatCount > 0 {
		a.ActiveChatCount--
	}
	return nil
}

func (r *fakeAgentRepo) CountSpareCapacity(ctx context.Context, tenantId uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, a := range r.store.agents {
		if a.TenantId == tenantId && a.Status == constant.AgentStatusAvailable && a.ActiveChatCount < a.MaxChatCount {
			n++
		}
	}
	return n, nil
}

func (r *fakeAgentRepo) Heartbeat(ctx context.Context, tenantId, agentId uuid.UUID, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if a, ok := r.store.agents[agentId]; ok && a.TenantId == tenantId {
		a.LastSeenAt = at
		if a.Status == constant.AgentStatusOffline {
			a.Status = constant.AgentStatusAvailable
		}
	}
	return nil
}

func (r *fakeAgentRepo) SetStatus(ctx context.Context, tenantId, agentId uuid.UUID, status string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if a, ok := r.store.agents[agentId]; ok && a.TenantId == tenantId {
		a.Status = status
	}
	return nil
}

func (r *fakeAgentRepo) MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, a := range r.store.agents {
		if a.Status == constant.AgentStatusAvailable && a.LastSeenAt.Before(cutoff) {
			a.Status = constant.AgentStatusOffline
			n++
		}
	}
	return n, nil
}

// ---- session repo ----

type fakeSessionRepo struct{ store *fakeStore }

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *session
	r.store.sessions[session.Id] = &cp
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.ChatSession) error {
	return r.Create(ctx, session)
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	c := parseSpecs(specs)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if c.id != nil {
		if s, ok := r.store.sessions[*c.id]; ok {
			if c.tenantId != nil && s.TenantId != *c.tenantId {
				return nil, nil
			}
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	c := parseSpecs(specs)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.ChatSession
	for _, s := range r.store.sessions {
		if c.tenantId != nil && s.TenantId != *c.tenantId {
			continue
		}
		if c.idleCutoff != nil {
			if !s.LastActivityAt.Before(*c.idleCutoff) || s.CurrentHandler == constant.SessionHandlerEnded {
				continue
			}
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeSessionRepo) TouchActivity(ctx context.Context, tenantId, id uuid.UUID, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.sessions[id]; ok && s.TenantId == tenantId {
		s.LastActivityAt = at
	}
	return nil
}

func (r *fakeSessionRepo) SetHandler(ctx context.Context, tenantId, id uuid.UUID, handler string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.sessions[id]; ok && s.TenantId == tenantId {
		s.CurrentHandler = handler
	}
	return nil
}

func (r *fakeSessionRepo) SetUpstreamRef(ctx context.Context, tenantId, id uuid.UUID, ref *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.sessions[id]; ok && s.TenantId == tenantId {
		s.UpstreamSessionRef = ref
	}
	return nil
}

// ---- message repo ----

type fakeMessageRepo struct{ store *fakeStore }

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *message
	r.store.messages = append(r.store.messages, &cp)
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	c := parseSpecs(specs)
	r.store.mu.Lock()
	var out []*entity.ChatMessage
	for _, m := range r.store.messages {
		if c.tenantId != nil && m.TenantId != *c.tenantId {
			continue
		}
		if c.chatSessionId != nil && m.ChatSessionId != *c.chatSessionId {
			continue
		}
		if c.createdAfter != nil && !m.CreatedAt.After(*c.createdAfter) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	r.store.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if c.orderDesc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if c.limit > 0 && len(out) > c.limit {
		out = out[:c.limit]
	}
	return out, nil
}

func (r *fakeMessageRepo) DeleteByChatSessionId(ctx context.Context, tenantId, chatSessionId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.messages[:0]
	for _, m := range r.store.messages {
		if m.TenantId == tenantId && m.ChatSessionId == chatSessionId {
			continue
		}
		kept = append(kept, m)
	}
	r.store.messages = kept
	return nil
}

// ---- handoff repo ----

type fakeHandoffRepo struct{ store *fakeStore }

func (r *fakeHandoffRepo) Create(ctx context.Context, handoff *entity.HandoffRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *handoff
	r.store.handoffs[handoff.Id] = &cp
	return nil
}

func (r *fakeHandoffRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.HandoffRequest, error) {
	c := parseSpecs(specs)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, h := range r.store.handoffs {
		if matchHandoff(h, c) {
			cp := *h
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeHandoffRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.HandoffRequest, error) {
	c := parseSpecs(specs)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.HandoffRequest
	for _, h := range r.store.handoffs {
		if matchHandoff(h, c) {
			cp := *h
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func matchHandoff(h *entity.HandoffRequest, c criteria) bool {
	if c.id != nil && h.Id != *c.id {
		return false
	}
	if c.tenantId != nil && h.TenantId != *c.tenantId {
		return false
	}
	if c.chatSessionId != nil && h.ChatSessionId != *c.chatSessionId {
		return false
	}
	if c.status != nil && h.Status != *c.status {
		return false
	}
	if c.nonTerminal && h.Status != constant.HandoffStatusPending && h.Status != constant.HandoffStatusActive {
		return false
	}
	return true
}

func (r *fakeHandoffRepo) MarkActive(ctx context.Context, tenantId, handoffId, agentId uuid.UUID, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	h, ok := r.store.handoffs[handoffId]
	if !ok || h.TenantId != tenantId || h.Status != constant.HandoffStatusPending {
		return false, nil
	}
	h.Status = constant.HandoffStatusActive
	h.AssignedAgentId = &agentId
	h.PickedUpAt = &at
	return true, nil
}

func (r *fakeHandoffRepo) MarkResolvedFromActive(ctx context.Context, tenantId, handoffId uuid.UUID, resolvedBy string, at time.Time) (*uuid.UUID, bool, error) {
	if hook := r.store.beforeResolveActive; hook != nil {
		hook()
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	h, ok := r.store.handoffs[handoffId]
	if !ok || h.TenantId != tenantId || h.Status != constant.HandoffStatusActive {
		return nil, false, nil
	}
	h.Status = constant.HandoffStatusResolved
	h.ResolvedBy = &resolvedBy
	h.ResolvedAt = &at
	if h.AssignedAgentId == nil {
		return nil, true, nil
	}
	assignee := *h.AssignedAgentId
	return &assignee, true, nil
}

func (r *fakeHandoffRepo) MarkResolvedFromPending(ctx context.Context, tenantId, handoffId uuid.UUID, resolvedBy string, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	h, ok := r.store.handoffs[handoffId]
	if !ok || h.TenantId != tenantId || h.Status != constant.HandoffStatusPending {
		return false, nil
	}
	h.Status = constant.HandoffStatusResolved
	h.ResolvedBy = &resolvedBy
	h.ResolvedAt = &at
	return true, nil
}
