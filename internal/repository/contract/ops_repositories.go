package contract

import (
	"context"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/repository/specification"
)

type UserRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type FacilityRepository interface {
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Facility, error)
}

type TaskDescriptionRepository interface {
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TaskDescription, error)
}

type SchedulerSlotRepository interface {
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SchedulerSlot, error)
}

type TaskTransactionRepository interface {
	Create(ctx context.Context, task *entity.TaskTransaction) error
	// UpdateStatus touches exactly one row, scoped by tenant.
	UpdateStatus(ctx context.Context, companyId, taskId int64, status int) error
	FindAllWithTaskName(ctx context.Context, specs ...specification.Specification) ([]*entity.TaskTransaction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
