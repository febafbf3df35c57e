package implementation

import (
	"context"
	"errors"

	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/mapper"
	"chat-handoff-be/internal/model"
	"chat-handoff-be/internal/repository/contract"
	"chat-handoff-be/internal/repository/specification"

	"gorm.io/gorm"
)

type TenantRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TenantMapper
}

func NewTenantRepository(db *gorm.DB) contract.TenantRepository {
	return &TenantRepositoryImpl{
		db:     db,
		mapper: mapper.NewTenantMapper(),
	}
}

func (r *TenantRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TenantRepositoryImpl) Create(ctx context.Context, tenant *entity.Tenant) error {
	m := r.mapper.ToModel(tenant)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*tenant = *r.mapper.ToEntity(m)
	return nil
}

func (r *TenantRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Tenant, error) {
	var m model.Tenant
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TenantRepositoryImpl) FindByLegacyWidgetKey(ctx context.Context, key string) (*entity.Tenant, error) {
	var m model.Tenant
	if err := r.db.WithContext(ctx).Where("legacy_widget_key = ?", key).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
