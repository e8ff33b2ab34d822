package service

import (
	"context"
	"time"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/repository/unitofwork"
	"ai-facilityops-be/pkg/workflow"
)

type IWorkflowStateService interface {
	// Load returns the resumable workflow for a session, or empty values when
	// none is active.
	Load(ctx context.Context, sessionId string) (name, step string, envelope workflow.Envelope, err error)
	Persist(ctx context.Context, sessionId, name, step string, envelope workflow.Envelope) error
	Clear(ctx context.Context, sessionId string) error
}

type workflowStateService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewWorkflowStateService(uowFactory unitofwork.RepositoryFactory) IWorkflowStateService {
	return &workflowStateService{uowFactory: uowFactory}
}

func (s *workflowStateService) Load(ctx context.Context, sessionId string) (string, string, workflow.Envelope, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	state, err := uow.WorkflowStateRepository().FindBySession(ctx, sessionId)
	if err != nil {
		return "", "", nil, err
	}
	if state == nil || !state.Active {
		return "", "", workflow.Envelope{}, nil
	}
	return state.WorkflowName, state.CurrentStep, workflow.Envelope(state.StateData), nil
}

func (s *workflowStateService) Persist(ctx context.Context, sessionId, name, step string, envelope workflow.Envelope) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// A finished workflow stays on record but is no longer resumable.
	active := name != "" && step != "" && step != workflow.StepEnd

	return uow.WorkflowStateRepository().Upsert(ctx, &entity.WorkflowState{
		SessionId:    sessionId,
		WorkflowName: name,
		CurrentStep:  step,
		StateData:    envelope,
		Active:       active,
		UpdatedAt:    time.Now(),
	})
}

func (s *workflowStateService) Clear(ctx context.Context, sessionId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	return uow.WorkflowStateRepository().Upsert(ctx, &entity.WorkflowState{
		SessionId:    sessionId,
		WorkflowName: "",
		CurrentStep:  workflow.StepEnd,
		StateData:    map[string]interface{}{},
		Active:       false,
		UpdatedAt:    time.Now(),
	})
}
