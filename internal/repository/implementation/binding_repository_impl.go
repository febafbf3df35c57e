package implementation

import (
	"context"
	"errors"

	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/mapper"
	"chat-handoff-be/internal/model"
	"chat-handoff-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BindingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TenantMapper
}

func NewBindingRepository(db *gorm.DB) contract.BindingRepository {
	return &BindingRepositoryImpl{
		db:     db,
		mapper: mapper.NewTenantMapper(),
	}
}

func (r *BindingRepositoryImpl) Upsert(ctx context.Context, binding *entity.TenantAgentBinding) error {
	m := r.mapper.BindingToModel(binding)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_agent_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tenant_id", "channel"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*binding = *r.mapper.BindingToEntity(m)
	return nil
}

func (r *BindingRepositoryImpl) FindByExternalAgentId(ctx context.Context, externalAgentId string) (*entity.TenantAgentBinding, error) {
	var m model.TenantAgentBinding
	if err := r.db.WithContext(ctx).Where("external_agent_id = ?", externalAgentId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.BindingToEntity(&m), nil
}

func (r *BindingRepositoryImpl) DeleteByExternalAgentId(ctx context.Context, tenantId uuid.UUID, externalAgentId string) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_agent_id = ?", tenantId, externalAgentId).
		Delete(&model.TenantAgentBinding{}).Error
}
