package workflow

import "context"

// NewTask is the record a completed scheduling workflow writes.
type NewTask struct {
	TaskDescriptionId int64
	Priority          int
	Remarks           string
	AssignedUserId    int64
	FacilityId        int64
	CompanyId         int64
}

// Catalog is the narrow data surface workflows run against. Every call is
// scoped by the verified company id; implementations must never widen it.
type Catalog interface {
	// ActiveSlots returns one page of schedulable slots plus whether more exist.
	ActiveSlots(ctx context.Context, companyId int64, offset, limit int) (OptionSet, bool, error)
	Facilities(ctx context.Context, companyId int64, limit int) (OptionSet, error)
	TaskTypes(ctx context.Context, companyId int64, limit int) (OptionSet, error)
	Assignees(ctx context.Context, companyId int64, limit int) (OptionSet, error)

	// OpenTasksFor lists not-completed tasks assigned to the user, labeled
	// "Name (#id) - Status".
	OpenTasksFor(ctx context.Context, companyId, userId int64, limit int) (OptionSet, error)

	CreateTask(ctx context.Context, task NewTask) (int64, error)
	UpdateTaskStatus(ctx context.Context, companyId, taskId int64, status int) error
}
