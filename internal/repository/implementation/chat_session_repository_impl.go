package implementation

import (
	"context"
	"errors"
	"time"

	"chat-handoff-be/internal/entity"
	"chat-handoff-be/internal/mapper"
	"chat-handoff-be/internal/model"
	"chat-handoff-be/internal/repository/contract"
	"chat-handoff-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatSessionRepository(db *gorm.DB) contract.ChatSessionRepository {
	return &ChatSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatSessionRepositoryImpl) Create(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.ChatSessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ChatSessionToEntity(m)
	return nil
}

func (r *ChatSessionRepositoryImpl) Update(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.ChatSessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ChatSessionToEntity(m)
	return nil
}

func (r *ChatSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	var m model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatSessionToEntity(&m), nil
}

func (r *ChatSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var models []*model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChatSessionToEntity(m)
	}
	return entities, nil
}

func (r *ChatSessionRepositoryImpl) TouchActivity(ctx context.Context, tenantId, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("id = ? AND tenant_id = ?", id, tenantId).
		UpdateColumn("last_activity_at", at).Error
}

func (r *ChatSessionRepositoryImpl) SetHandler(ctx context.Context, tenantId, id uuid.UUID, handler string) error {
	return r.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("id = ? AND tenant_id = ?", id, tenantId).
		UpdateColumn("current_handler", handler).Error
}

func (r *ChatSessionRepositoryImpl) SetUpstreamRef(ctx context.Context, tenantId, id uuid.UUID, ref *string) error {
	return r.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("id = ? AND tenant_id = ?", id, tenantId).
		UpdateColumn("upstream_session_ref", ref).Error
}
