package unitofwork

import (
	"context"
	"fmt"

	"ai-facilityops-be/internal/repository/contract"
	"ai-facilityops-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // active transaction, nil when operating outside one
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) UserRepository() contract.UserRepository {
	return implementation.NewUserRepository(u.getDB())
}

func (u *UnitOfWorkImpl) FacilityRepository() contract.FacilityRepository {
	return implementation.NewFacilityRepository(u.getDB())
}

func (u *UnitOfWorkImpl) TaskDescriptionRepository() contract.TaskDescriptionRepository {
	return implementation.NewTaskDescriptionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SchedulerSlotRepository() contract.SchedulerSlotRepository {
	return implementation.NewSchedulerSlotRepository(u.getDB())
}

func (u *UnitOfWorkImpl) TaskTransactionRepository() contract.TaskTransactionRepository {
	return implementation.NewTaskTransactionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ChatHistoryRepository() contract.ChatHistoryRepository {
	return implementation.NewChatHistoryRepository(u.getDB())
}

func (u *UnitOfWorkImpl) WorkflowStateRepository() contract.WorkflowStateRepository {
	return implementation.NewWorkflowStateRepository(u.getDB())
}

func (u *UnitOfWorkImpl) UsageMetricRepository() contract.UsageMetricRepository {
	return implementation.NewUsageMetricRepository(u.getDB())
}

func (u *UnitOfWorkImpl) TaskDocumentRepository() contract.TaskDocumentRepository {
	return implementation.NewTaskDocumentRepository(u.getDB())
}
