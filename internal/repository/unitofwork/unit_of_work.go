package unitofwork

import (
	"context"

	"ai-facilityops-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	FacilityRepository() contract.FacilityRepository
	TaskDescriptionRepository() contract.TaskDescriptionRepository
	SchedulerSlotRepository() contract.SchedulerSlotRepository
	TaskTransactionRepository() contract.TaskTransactionRepository

	ChatHistoryRepository() contract.ChatHistoryRepository
	WorkflowStateRepository() contract.WorkflowStateRepository
	UsageMetricRepository() contract.UsageMetricRepository
	TaskDocumentRepository() contract.TaskDocumentRepository
}
