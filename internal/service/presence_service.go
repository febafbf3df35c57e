package service

import (
	"context"
	"time"

	"chat-handoff-be/internal/pkg/logger"
	"chat-handoff-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IPresenceService tracks operator liveness. Heartbeats keep an agent
// available; the periodic sweep flips silent agents offline. Eventually
// consistent: staleness of up to one sweep interval is expected.
type IPresenceService interface {
	Heartbeat(ctx context.Context, tenantId, agentId uuid.UUID) error
	SetStatus(ctx context.Context, tenantId, agentId uuid.UUID, status string) error
	SweepStale(now time.Time)
}

type presenceService struct {
	uowFactory unitofwork.RepositoryFactory
	threshold  time.Duration
	logger     logger.ILogger
}

func NewPresenceService(uowFactory unitofwork.RepositoryFactory, threshold time.Duration, log logger.ILogger) IPresenceService {
	return &presenceService{
		uowFactory: uowFactory,
		threshold:  threshold,
		logger:     log,
	}
}

func (s *presenceService) Heartbeat(ctx context.Context, tenantId, agentId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.AgentRepository().Heartbeat(ctx, tenantId, agentId, time.Now())
}

// SetStatus records an operator's manual choice. Manual busy/offline is
// sticky: the sweep and heartbeats leave it alone until the operator changes
// it or logs in again.
func (s *presenceService) SetStatus(ctx context.Context, tenantId, agentId uuid.UUID, status string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.AgentRepository().SetStatus(ctx, tenantId, agentId, status)
}

// SweepStale is the scheduler job body. Runs across all tenants: staleness
// is a property of the agent row, not of the request path.
func (s *presenceService) SweepStale(now time.Time) {
	ctx := context.Background()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	cutoff := now.Add(-s.threshold)
	flipped, err := uow.AgentRepository().MarkStaleOffline(ctx, cutoff)
	if err != nil {
		s.logger.Error("Presence", "Stale sweep failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if flipped > 0 {
		s.logger.Info("Presence", "Flipped stale agents offline", map[string]interface{}{
			"count":  flipped,
			"cutoff": cutoff,
		})
	}
}
