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
	"gorm.io/gorm/clause"
)

type HandoffRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.HandoffMapper
}

func NewHandoffRepository(db *gorm.DB) contract.HandoffRepository {
	return &HandoffRepositoryImpl{
		db:     db,
		mapper: mapper.NewHandoffMapper(),
	}
}

func (r *HandoffRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *HandoffRepositoryImpl) Create(ctx context.Context, handoff *entity.HandoffRequest) error {
	m := r.mapper.ToModel(handoff)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*handoff = *r.mapper.ToEntity(m)
	return nil
}

func (r *HandoffRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.HandoffRequest, error) {
	var m model.HandoffRequest
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *HandoffRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.HandoffRequest, error) {
	var models []*model.HandoffRequest
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.HandoffRequest, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

// MarkActive is guarded on status = pending, so N racing assignments yield
// exactly one winner; losers see RowsAffected = 0 and report a conflict.
func (r *HandoffRepositoryImpl) MarkActive(ctx context.Context, tenantId, handoffId, agentId uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.HandoffRequest{}).
		Where("id = ? AND tenant_id = ? AND status = ?", handoffId, tenantId, constant.HandoffStatusPending).
		Updates(map[string]interface{}{
			"status":            constant.HandoffStatusActive,
			"assigned_agent_id": agentId,
			"picked_up_at":      at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkResolvedFromActive reads the assignee back from the UPDATE itself via
// RETURNING, so the slot release always targets whoever held the handoff at
// the moment it resolved.
func (r *HandoffRepositoryImpl) MarkResolvedFromActive(ctx context.Context, tenantId, handoffId uuid.UUID, resolvedBy string, at time.Time) (*uuid.UUID, bool, error) {
	var rows []model.HandoffRequest
	res := r.db.WithContext(ctx).Model(&rows).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "assigned_agent_id"}}}).
		Where("id = ? AND tenant_id = ? AND status = ?", handoffId, tenantId, constant.HandoffStatusActive).
		Updates(map[string]interface{}{
			"status":      constant.HandoffStatusResolved,
			"resolved_by": resolvedBy,
			"resolved_at": at,
		})
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected != 1 || len(rows) != 1 {
		return nil, false, nil
	}
	return rows[0].AssignedAgentId, true, nil
}

func (r *HandoffRepositoryImpl) MarkResolvedFromPending(ctx context.Context, tenantId, handoffId uuid.UUID, resolvedBy string, at time.Time) (bool, error) {
	return r.markResolved(ctx, tenantId, handoffId, constant.HandoffStatusPending, resolvedBy, at)
}

func (r *HandoffRepositoryImpl) markResolved(ctx context.Context, tenantId, handoffId uuid.UUID, fromStatus, resolvedBy string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.HandoffRequest{}).
		Where("id = ? AND tenant_id = ? AND status = ?", handoffId, tenantId, fromStatus).
		Updates(map[string]interface{}{
			"status":      constant.HandoffStatusResolved,
			"resolved_by": resolvedBy,
			"resolved_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
