package implementation

import (
	"context"
	"errors"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/mapper"
	"ai-facilityops-be/internal/model"
	"ai-facilityops-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkflowStateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewWorkflowStateRepository(db *gorm.DB) contract.WorkflowStateRepository {
	return &WorkflowStateRepositoryImpl{db: db, mapper: mapper.NewChatMapper()}
}

func (r *WorkflowStateRepositoryImpl) FindBySession(ctx context.Context, sessionId string) (*entity.WorkflowState, error) {
	var m model.WorkflowState
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.WorkflowStateToEntity(&m), nil
}

func (r *WorkflowStateRepositoryImpl) Upsert(ctx context.Context, state *entity.WorkflowState) error {
	m := r.mapper.WorkflowStateToModel(state)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"workflow_name", "current_step", "state_data", "active", "updated_at"}),
		}).
		Create(m).Error
}
