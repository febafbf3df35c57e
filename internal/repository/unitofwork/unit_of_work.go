package unitofwork

import (
	"context"

	"chat-handoff-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	TenantRepository() contract.TenantRepository
	BindingRepository() contract.BindingRepository
	AgentRepository() contract.AgentRepository
	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	HandoffRepository() contract.HandoffRepository
}
