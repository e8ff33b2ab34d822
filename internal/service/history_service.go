package service

import (
	"context"

	"ai-facilityops-be/internal/dto"
	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/repository/unitofwork"
	"ai-facilityops-be/pkg/turn"
)

// contentPreviewLimit trims rendered menus and result dumps before they are
// fed back to the classifier as history.
const contentPreviewLimit = 2000

type IHistoryService interface {
	// LoadRecent returns the newest messages for a session in chronological
	// order, shaped for the turn pipeline.
	LoadRecent(ctx context.Context, sessionId string, limit int) ([]turn.Message, error)
	GetHistory(ctx context.Context, sessionId string, limit int) ([]*dto.ChatHistoryItem, error)
	SaveTurn(ctx context.Context, records []*entity.ChatHistory) error
}

type historyService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewHistoryService(uowFactory unitofwork.RepositoryFactory) IHistoryService {
	return &historyService{uowFactory: uowFactory}
}

func (s *historyService) LoadRecent(ctx context.Context, sessionId string, limit int) ([]turn.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	records, err := uow.ChatHistoryRepository().FindRecent(ctx, sessionId, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]turn.Message, 0, len(records))
	for _, record := range records {
		content := record.Content
		if len(content) > contentPreviewLimit {
			content = content[:contentPreviewLimit]
		}
		messages = append(messages, turn.Message{Role: record.Role, Content: content})
	}
	return messages, nil
}

func (s *historyService) GetHistory(ctx context.Context, sessionId string, limit int) ([]*dto.ChatHistoryItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	records, err := uow.ChatHistoryRepository().FindRecent(ctx, sessionId, limit)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ChatHistoryItem, len(records))
	for i, record := range records {
		items[i] = &dto.ChatHistoryItem{
			Role:      record.Role,
			Content:   record.Content,
			CreatedAt: record.CreatedAt,
		}
	}
	return items, nil
}

func (s *historyService) SaveTurn(ctx context.Context, records []*entity.ChatHistory) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatHistoryRepository().CreateBatch(ctx, records)
}
