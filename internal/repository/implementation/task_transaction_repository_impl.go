package implementation

import (
	"context"
	"fmt"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/mapper"
	"ai-facilityops-be/internal/model"
	"ai-facilityops-be/internal/repository/contract"
	"ai-facilityops-be/internal/repository/specification"

	"gorm.io/gorm"
)

type TaskTransactionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.OpsMapper
}

func NewTaskTransactionRepository(db *gorm.DB) contract.TaskTransactionRepository {
	return &TaskTransactionRepositoryImpl{db: db, mapper: mapper.NewOpsMapper()}
}

func (r *TaskTransactionRepositoryImpl) Create(ctx context.Context, task *entity.TaskTransaction) error {
	m := r.mapper.TaskTransactionToModel(task)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	task.Id = m.Id
	task.DateCreated = m.DateCreated
	return nil
}

func (r *TaskTransactionRepositoryImpl) UpdateStatus(ctx context.Context, companyId, taskId int64, status int) error {
	res := r.db.WithContext(ctx).
		Model(&model.TaskTransaction{}).
		Where("id = ? AND company_id = ?", taskId, companyId).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task %d not found in company %d", taskId, companyId)
	}
	return nil
}

func (r *TaskTransactionRepositoryImpl) FindAllWithTaskName(ctx context.Context, specs ...specification.Specification) ([]*entity.TaskTransaction, error) {
	var models []*model.TaskTransaction
	query := applySpecifications(r.db.WithContext(ctx).Preload("TaskDescription"), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.TaskTransaction, len(models))
	for i, m := range models {
		entities[i] = r.mapper.TaskTransactionToEntity(m)
	}
	return entities, nil
}

func (r *TaskTransactionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.TaskTransaction{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
