package service

import (
	"context"
	"fmt"
	"strings"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/internal/repository/specification"
	"ai-facilityops-be/internal/repository/unitofwork"
	"ai-facilityops-be/pkg/embedding"
	"ai-facilityops-be/pkg/events"
	pktNats "ai-facilityops-be/pkg/nats"
	"ai-facilityops-be/pkg/workflow"
)

// catalogService backs the workflow engine with the operational tables. Reads
// feed the selection menus; writes land the terminal records and refresh the
// search index row for the touched task.
type catalogService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
	logger            logger.ILogger
}

func NewCatalogService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) workflow.Catalog {
	return &catalogService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		logger:            log,
	}
}

func (s *catalogService) ActiveSlots(ctx context.Context, companyId int64, offset, limit int) (workflow.OptionSet, bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Fetch one extra row to learn whether another page exists.
	slots, err := uow.SchedulerSlotRepository().FindAll(ctx,
		specification.ByCompanyID{CompanyID: companyId},
		specification.ActiveOnly{},
		specification.OrderBy{Field: "id"},
		specification.Pagination{Limit: limit + 1, Offset: offset},
	)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(slots) > limit
	if hasMore {
		slots = slots[:limit]
	}

	options := make(workflow.OptionSet, len(slots))
	for i, slot := range slots {
		options[i] = workflow.Option{Label: slot.Name, Id: slot.Id, Name: slot.Name}
	}
	return options, hasMore, nil
}

func (s *catalogService) Facilities(ctx context.Context, companyId int64, limit int) (workflow.OptionSet, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	facilities, err := uow.FacilityRepository().FindAll(ctx,
		specification.ByCompanyID{CompanyID: companyId},
		specification.OrderBy{Field: "name"},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	options := make(workflow.OptionSet, len(facilities))
	for i, facility := range facilities {
		options[i] = workflow.Option{Label: facility.Name, Id: facility.Id, Name: facility.Name}
	}
	return options, nil
}

func (s *catalogService) TaskTypes(ctx context.Context, companyId int64, limit int) (workflow.OptionSet, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	descriptions, err := uow.TaskDescriptionRepository().FindAll(ctx,
		specification.ByCompanyID{CompanyID: companyId},
		specification.OrderBy{Field: "name"},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	options := make(workflow.OptionSet, len(descriptions))
	for i, description := range descriptions {
		options[i] = workflow.Option{Label: description.Name, Id: description.Id, Name: description.Name}
	}
	return options, nil
}

func (s *catalogService) Assignees(ctx context.Context, companyId int64, limit int) (workflow.OptionSet, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	users, err := uow.UserRepository().FindAll(ctx,
		specification.ByCompanyID{CompanyID: companyId},
		specification.Filter("is_active", true),
		specification.OrderBy{Field: "first_name"},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	options := make(workflow.OptionSet, len(users))
	for i, user := range users {
		name := user.FullName()
		options[i] = workflow.Option{Label: name, Id: user.Id, Name: name}
	}
	return options, nil
}

func (s *catalogService) OpenTasksFor(ctx context.Context, companyId, userId int64, limit int) (workflow.OptionSet, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	tasks, err := uow.TaskTransactionRepository().FindAllWithTaskName(ctx,
		specification.ByCompanyID{CompanyID: companyId},
		specification.AssignedToUser{UserID: userId},
		specification.StatusNot{Status: entity.TaskStatusCompleted},
		specification.OrderBy{Field: "date_created", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	options := make(workflow.OptionSet, len(tasks))
	for i, task := range tasks {
		label := fmt.Sprintf("%s (#%d) - %s", task.TaskName, task.Id, entity.TaskStatusLabel(task.Status))
		options[i] = workflow.Option{Label: label, Id: task.Id, Name: task.TaskName}
	}
	return options, nil
}

func (s *catalogService) CreateTask(ctx context.Context, task workflow.NewTask) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	record := &entity.TaskTransaction{
		TaskDescriptionId: task.TaskDescriptionId,
		Status:            entity.TaskStatusPending,
		Priority:          task.Priority,
		Remarks:           task.Remarks,
		AssignedUserId:    task.AssignedUserId,
		FacilityId:        task.FacilityId,
		CompanyId:         task.CompanyId,
	}
	if err := uow.TaskTransactionRepository().Create(ctx, record); err != nil {
		return 0, fmt.Errorf("failed to create the task: %w", err)
	}

	s.publishEvent(ctx, events.NewTaskCreated("", "", record.Id, task.CompanyId))
	s.syncDocument(ctx, record.Id, task.CompanyId)
	return record.Id, nil
}

func (s *catalogService) UpdateTaskStatus(ctx context.Context, companyId, taskId int64, status int) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.TaskTransactionRepository().UpdateStatus(ctx, companyId, taskId, status); err != nil {
		return fmt.Errorf("failed to update the task: %w", err)
	}

	s.publishEvent(ctx, events.NewTaskStatusChanged("", "", taskId, entity.TaskStatusLabel(status)))
	s.syncDocument(ctx, taskId, companyId)
	return nil
}

func (s *catalogService) publishEvent(ctx context.Context, event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("catalog", "event publish failed", map[string]interface{}{"error": err.Error()})
	}
}

// syncDocument refreshes the search index row for a task after a write. Index
// staleness is tolerable; write failures here are logged and swallowed.
func (s *catalogService) syncDocument(ctx context.Context, taskId, companyId int64) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	tasks, err := uow.TaskTransactionRepository().FindAllWithTaskName(ctx,
		specification.ByID{ID: taskId},
		specification.ByCompanyID{CompanyID: companyId},
	)
	if err != nil || len(tasks) == 0 {
		s.logger.Warn("catalog", "document sync skipped, task reload failed", map[string]interface{}{
			"task_id": taskId,
		})
		return
	}
	task := tasks[0]

	facilityName := s.lookupFacilityName(ctx, uow, task.FacilityId, companyId)
	assigneeName := s.lookupAssigneeName(ctx, uow, task.AssignedUserId)

	content := s.renderDocument(task, facilityName, assigneeName)

	response, err := s.embeddingProvider.Generate(ctx, content, "RETRIEVAL_DOCUMENT")
	if err != nil {
		s.logger.Warn("catalog", "document sync skipped, embedding failed", map[string]interface{}{
			"task_id": taskId,
			"error":   err.Error(),
		})
		return
	}

	doc := &entity.TaskDocument{
		TaskId:       task.Id,
		CompanyId:    task.CompanyId,
		Content:      content,
		Status:       task.Status,
		FacilityName: facilityName,
		AssigneeName: assigneeName,
		SlotName:     task.Remarks,
	}
	if err := uow.TaskDocumentRepository().Upsert(ctx, doc, response.Embedding.Values); err != nil {
		s.logger.Warn("catalog", "document upsert failed", map[string]interface{}{
			"task_id": taskId,
			"error":   err.Error(),
		})
	}
}

func (s *catalogService) renderDocument(task *entity.TaskTransaction, facilityName, assigneeName string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: %s\n", task.TaskName)
	fmt.Fprintf(&sb, "Status: %s\n", entity.TaskStatusLabel(task.Status))
	if facilityName != "" {
		fmt.Fprintf(&sb, "Facility: %s\n", facilityName)
	}
	if assigneeName != "" {
		fmt.Fprintf(&sb, "Assigned to: %s\n", assigneeName)
	}
	if task.Remarks != "" {
		fmt.Fprintf(&sb, "Remarks: %s\n", task.Remarks)
	}
	return sb.String()
}

func (s *catalogService) lookupFacilityName(ctx context.Context, uow unitofwork.UnitOfWork, facilityId, companyId int64) string {
	if facilityId == 0 {
		return ""
	}
	facilities, err := uow.FacilityRepository().FindAll(ctx,
		specification.ByID{ID: facilityId},
		specification.ByCompanyID{CompanyID: companyId},
	)
	if err != nil || len(facilities) == 0 {
		return ""
	}
	return facilities[0].Name
}

func (s *catalogService) lookupAssigneeName(ctx context.Context, uow unitofwork.UnitOfWork, userId int64) string {
	if userId == 0 {
		return ""
	}
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil || user == nil {
		return ""
	}
	// Index rows carry the first name; "me" filters resolve against it.
	return user.FirstName
}
