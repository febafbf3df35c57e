package implementation

import (
	"context"
	"errors"
	"time"

	"chat-handoff-be/internal/constant"
	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/mapper"
	"chat-handoff-be/internal/model"
	"chat-handoff-be/internal/repository/contract"
	"chat-handoff-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AgentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AgentMapper
}

func NewAgentRepository(db *gorm.DB) contract.AgentRepository {
	return &AgentRepositoryImpl{
		db:     db,
		mapper: mapper.NewAgentMapper(),
	}
}

func (r *AgentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AgentRepositoryImpl) Create(ctx context.Context, agent *entity.Agent) error {
	m := r.mapper.ToModel(agent)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*agent = *r.mapper.ToEntity(m)
	return nil
}

func (r *AgentRepositoryImpl) Update(ctx context.Context, agent *entity.Agent) error {
	m := r.mapper.ToModel(agent)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*agent = *r.mapper.ToEntity(m)
	return nil
}

func (r *AgentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Agent, error) {
	var m model.Agent
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AgentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Agent, error) {
	var models []*model.Agent
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Agent, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *AgentRepositoryImpl) FindByEmail(ctx context.Context, email string) (*entity.Agent, error) {
	var m model.Agent
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

// TryAcquireSlot is the conditional increment guarding the capacity
// invariant. The WHERE clause re-checks the limit inside the statement, so a
// racing assignment can never push the counter past max_chat_count.
func (r *AgentRepositoryImpl) TryAcquireSlot(ctx context.Context, tenantId, agentId uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Agent{}).
		Where("id = ? AND tenant_id = ? AND active_chat_count < max_chat_count", agentId, tenantId).
		UpdateColumn("active_chat_count", gorm.Expr("active_chat_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *AgentRepositoryImpl) ReleaseSlot(ctx context.Context, tenantId, agentId uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Agent{}).
		Where("id = ? AND tenant_id = ? AND active_chat_count > 0", agentId, tenantId).
		UpdateColumn("active_chat_count", gorm.Expr("active_chat_count - 1")).Error
}

func (r *AgentRepositoryImpl) CountSpareCapacity(ctx context.Context, tenantId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Agent{}).
		Where("tenant_id = ? AND status = ? AND active_chat_count < max_chat_count",
			tenantId, constant.AgentStatusAvailable).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Heartbeat only flips offline -> available; a manual busy stays busy.
func (r *AgentRepositoryImpl) Heartbeat(ctx context.Context, tenantId, agentId uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Agent{}).
		Where("id = ? AND tenant_id = ?", agentId, tenantId).
		Updates(map[string]interface{}{
			"last_seen_at": at,
			"status": gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END",
				constant.AgentStatusOffline, constant.AgentStatusAvailable),
		}).Error
}

func (r *AgentRepositoryImpl) SetStatus(ctx context.Context, tenantId, agentId uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Agent{}).
		Where("id = ? AND tenant_id = ?", agentId, tenantId).
		UpdateColumn("status", status).Error
}

func (r *AgentRepositoryImpl) MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Agent{}).
		Where("status = ? AND last_seen_at < ?", constant.AgentStatusAvailable, cutoff).
		UpdateColumn("status", constant.AgentStatusOffline)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
