package implementation

import (
	"context"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/mapper"
	"ai-facilityops-be/internal/model"
	"ai-facilityops-be/internal/repository/contract"

	"gorm.io/gorm"
)

type ChatHistoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatHistoryRepository(db *gorm.DB) contract.ChatHistoryRepository {
	return &ChatHistoryRepositoryImpl{db: db, mapper: mapper.NewChatMapper()}
}

func (r *ChatHistoryRepositoryImpl) CreateBatch(ctx context.Context, records []*entity.ChatHistory) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]*model.ChatHistory, len(records))
	for i, rec := range records {
		models[i] = r.mapper.HistoryToModel(rec)
	}
	return r.db.WithContext(ctx).Create(models).Error
}

func (r *ChatHistoryRepositoryImpl) FindRecent(ctx context.Context, sessionId string, limit int) ([]*entity.ChatHistory, error) {
	var models []*model.ChatHistory
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	// Newest-first from the query; flip to chronological order for prompt building.
	entities := make([]*entity.ChatHistory, len(models))
	for i, m := range models {
		entities[len(models)-1-i] = r.mapper.HistoryToEntity(m)
	}
	return entities, nil
}
