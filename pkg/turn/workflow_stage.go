package turn

import (
	"context"

	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/pkg/events"
	"ai-facilityops-be/pkg/workflow"
)

const noWorkflowResponse = "I'm sorry, I couldn't determine which workflow to start. Could you please be more specific?"

// WorkflowStage advances the active (or newly started) workflow by one step.
// The view text becomes the turn's final response, so the reply stage
// short-circuits instead of paraphrasing a menu.
type WorkflowStage struct {
	engine *workflow.Engine
	trace  TracePublisher
	logger logger.ILogger
}

func NewWorkflowStage(engine *workflow.Engine, trace TracePublisher, log logger.ILogger) *WorkflowStage {
	return &WorkflowStage{engine: engine, trace: trace, logger: log}
}

func (w *WorkflowStage) Name() string { return "workflow" }

func (w *WorkflowStage) Run(ctx context.Context, state *State) (*Patch, error) {
	if state.WorkflowName == "" {
		w.logger.Warn("workflow", "stage entered without a workflow name", map[string]interface{}{
			"session": state.SessionId,
			"intent":  state.Intent,
		})
		return &Patch{
			Intent:        ptr(IntentChat),
			FinalResponse: ptr(noWorkflowResponse),
		}, nil
	}

	step := state.WorkflowStep
	if step == workflow.StepEnd {
		step = "" // finished workflow restarts from the top
	}

	result, err := w.engine.GetNextStep(ctx, state.WorkflowName, workflow.StepRequest{
		CurrentStep: step,
		Input:       state.LastUserMessage(),
		UserId:      state.UserId,
		UserName:    state.UserName,
		CompanyId:   state.CompanyId,
		Context:     state.WorkflowContext,
	})
	if err != nil {
		// The one failure allowed to cross the graph boundary: a lost
		// terminal write must not be reported as success.
		return nil, err
	}

	if w.trace != nil {
		event := events.NewWorkflowStepped(state.SessionId, state.TraceId, state.WorkflowName, state.WorkflowStep, result.WorkflowStep)
		if perr := w.trace.Publish(ctx, event); perr != nil {
			w.logger.Warn("workflow", "trace publish failed", map[string]interface{}{"error": perr.Error()})
		}
	}

	view := result.View
	text := view.Payload.Text
	if text == "" {
		text = "Workflow Updated."
	}

	return &Patch{
		WorkflowName:    ptr(state.WorkflowName),
		WorkflowStep:    ptr(result.WorkflowStep),
		WorkflowView:    &view,
		WorkflowContext: result.Context,
		FinalResponse:   ptr(text),
	}, nil
}
