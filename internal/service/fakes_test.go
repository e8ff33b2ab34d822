package service

import (
	"context"
	"time"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/repository/contract"
	"ai-facilityops-be/internal/repository/specification"
	"ai-facilityops-be/internal/repository/unitofwork"
)

// fakeUow satisfies unitofwork.UnitOfWork with whatever fake repositories a
// test plugs in. Accessors for repositories a test never touches return nil.
type fakeUow struct {
	users          contract.UserRepository
	facilities     contract.FacilityRepository
	descriptions   contract.TaskDescriptionRepository
	slots          contract.SchedulerSlotRepository
	tasks          contract.TaskTransactionRepository
	histories      contract.ChatHistoryRepository
	workflowStates contract.WorkflowStateRepository
	metrics        contract.UsageMetricRepository
	documents      contract.TaskDocumentRepository
}

func (f *fakeUow) Begin(ctx context.Context) error { return nil }
func (f *fakeUow) Commit() error                   { return nil }
func (f *fakeUow) Rollback() error                 { return nil }

func (f *fakeUow) UserRepository() contract.UserRepository                       { return f.users }
func (f *fakeUow) FacilityRepository() contract.FacilityRepository               { return f.facilities }
func (f *fakeUow) TaskDescriptionRepository() contract.TaskDescriptionRepository { return f.descriptions }
func (f *fakeUow) SchedulerSlotRepository() contract.SchedulerSlotRepository     { return f.slots }
func (f *fakeUow) TaskTransactionRepository() contract.TaskTransactionRepository { return f.tasks }
func (f *fakeUow) ChatHistoryRepository() contract.ChatHistoryRepository         { return f.histories }
func (f *fakeUow) WorkflowStateRepository() contract.WorkflowStateRepository     { return f.workflowStates }
func (f *fakeUow) UsageMetricRepository() contract.UsageMetricRepository         { return f.metrics }
func (f *fakeUow) TaskDocumentRepository() contract.TaskDocumentRepository       { return f.documents }

type fakeUowFactory struct {
	uow *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakeUserRepo struct {
	user *entity.User
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	return r.user, nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	if r.user == nil {
		return nil, nil
	}
	return []*entity.User{r.user}, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if r.user != nil && r.user.Email == email {
		return r.user, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	if r.user == nil {
		return 0, nil
	}
	return 1, nil
}

type statusUpdate struct {
	CompanyId int64
	TaskId    int64
	Status    int
}

type fakeTaskRepo struct {
	tasks   []*entity.TaskTransaction
	created []*entity.TaskTransaction
	updated []statusUpdate
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *entity.TaskTransaction) error {
	task.Id = int64(len(r.created) + 100)
	r.created = append(r.created, task)
	return nil
}

func (r *fakeTaskRepo) UpdateStatus(ctx context.Context, companyId, taskId int64, status int) error {
	r.updated = append(r.updated, statusUpdate{CompanyId: companyId, TaskId: taskId, Status: status})
	return nil
}

func (r *fakeTaskRepo) FindAllWithTaskName(ctx context.Context, specs ...specification.Specification) ([]*entity.TaskTransaction, error) {
	return r.tasks, nil
}

func (r *fakeTaskRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.tasks)), nil
}

type fakeHistoryRepo struct {
	records []*entity.ChatHistory
}

func (r *fakeHistoryRepo) CreateBatch(ctx context.Context, records []*entity.ChatHistory) error {
	r.records = append(r.records, records...)
	return nil
}

func (r *fakeHistoryRepo) FindRecent(ctx context.Context, sessionId string, limit int) ([]*entity.ChatHistory, error) {
	return r.records, nil
}

type fakeWorkflowStateRepo struct {
	state    *entity.WorkflowState
	upserted []*entity.WorkflowState
}

func (r *fakeWorkflowStateRepo) FindBySession(ctx context.Context, sessionId string) (*entity.WorkflowState, error) {
	return r.state, nil
}

func (r *fakeWorkflowStateRepo) Upsert(ctx context.Context, state *entity.WorkflowState) error {
	r.upserted = append(r.upserted, state)
	return nil
}

type fakeMetricRepo struct {
	metrics []*entity.UsageMetric
}

func (r *fakeMetricRepo) Create(ctx context.Context, metric *entity.UsageMetric) error {
	r.metrics = append(r.metrics, metric)
	return nil
}

func (r *fakeMetricRepo) TokensByRole(ctx context.Context, since time.Time) ([]contract.RoleUsage, error) {
	return nil, nil
}

func (r *fakeMetricRepo) FeatureCounts(ctx context.Context, since time.Time) ([]contract.FeatureCount, error) {
	return nil, nil
}

func (r *fakeMetricRepo) PerUserUsage(ctx context.Context, since time.Time) ([]contract.UserUsage, error) {
	return nil, nil
}

func (r *fakeMetricRepo) RecentLog(ctx context.Context, since time.Time, limit int) ([]*entity.UsageMetric, error) {
	return r.metrics, nil
}
