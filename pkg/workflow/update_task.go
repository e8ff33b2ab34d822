package workflow

import (
	"context"
	"fmt"
	"strings"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/pkg/logger"
)

var statusOptions = []string{"Pending", "In Progress", "Completed"}

// UpdateTaskWorkflow lets a user change the status of one of their open
// tasks: pick the task, pick the new status, confirm, write.
type UpdateTaskWorkflow struct {
	catalog Catalog
	logger  logger.ILogger
}

var _ Workflow = &UpdateTaskWorkflow{}

func NewUpdateTaskWorkflow(catalog Catalog, log logger.ILogger) *UpdateTaskWorkflow {
	return &UpdateTaskWorkflow{catalog: catalog, logger: log}
}

func (w *UpdateTaskWorkflow) Name() string {
	return "update_task"
}

func (w *UpdateTaskWorkflow) Step(ctx context.Context, req StepRequest) (*StepResult, error) {
	var uc UpdateTaskContext
	if err := DecodeContext(req.Context, &uc); err != nil {
		w.logger.Warn("workflow", "update_task context corrupt, restarting", map[string]interface{}{"error": err.Error()})
		uc = UpdateTaskContext{}
		req.CurrentStep = ""
	}

	switch req.CurrentStep {
	case "":
		return w.renderSelectTask(ctx, req, &uc, "")

	case "select_task":
		selected, ok := ResolveSelection(req.Input, uc.TaskOptions)
		if !ok {
			return w.renderSelectTask(ctx, req, &uc, "Invalid task. Please select again.")
		}
		uc.SelectedTaskId = selected.Id
		uc.SelectedTaskName = selected.Name
		return w.result("select_status", &uc, View{
			Type: ViewTypeMenu,
			Payload: ViewPayload{
				Text:    fmt.Sprintf("Update status for '%s':", selected.Name),
				Options: append(append([]string{}, statusOptions...), "Cancel"),
			},
		})

	case "select_status":
		status := normalizeStatus(req.Input)
		if status == "" {
			return w.result("select_status", &uc, View{
				Type: ViewTypeMenu,
				Payload: ViewPayload{
					Text:    "Invalid status. Please select:",
					Options: append(append([]string{}, statusOptions...), "Cancel"),
				},
			})
		}
		uc.NewStatus = status
		return w.result("confirm", &uc, View{
			Type: ViewTypeMenu,
			Payload: ViewPayload{
				Text:    fmt.Sprintf("Confirm updating '%s' to '%s'?", uc.SelectedTaskName, status),
				Options: []string{"Confirm", "Cancel"},
			},
		})

	case "confirm":
		if !strings.EqualFold(strings.TrimSpace(req.Input), "confirm") {
			return w.result(StepEnd, &uc, View{
				Type:    ViewTypeEnd,
				Payload: ViewPayload{Text: "Update cancelled."},
			})
		}
		code, _ := entity.TaskStatusCode(uc.NewStatus)
		if err := w.catalog.UpdateTaskStatus(ctx, req.CompanyId, uc.SelectedTaskId, code); err != nil {
			// Confirming success on a failed write would be a lie.
			return nil, fmt.Errorf("update task status: %w", err)
		}
		w.logger.Info("workflow", "task status updated", map[string]interface{}{
			"task_id":    uc.SelectedTaskId,
			"company_id": req.CompanyId,
			"status":     uc.NewStatus,
		})
		return w.result(StepEnd, &uc, View{
			Type:    ViewTypeEnd,
			Payload: ViewPayload{Text: fmt.Sprintf("Task '%s' updated to %s.", uc.SelectedTaskName, uc.NewStatus)},
		})
	}

	return nil, fmt.Errorf("update_task: invalid step '%s'", req.CurrentStep)
}

func (w *UpdateTaskWorkflow) renderSelectTask(ctx context.Context, req StepRequest, uc *UpdateTaskContext, errText string) (*StepResult, error) {
	options, err := w.catalog.OpenTasksFor(ctx, req.CompanyId, req.UserId, 10)
	if err != nil {
		w.logger.Warn("workflow", "open task lookup failed", map[string]interface{}{"error": err.Error()})
		options = OptionSet{}
	}

	if options.IsEmpty() {
		return w.result(StepEnd, uc, View{
			Type:    ViewTypeEnd,
			Payload: ViewPayload{Text: fmt.Sprintf("No active tasks found for you (User %d).", req.UserId)},
		})
	}

	uc.TaskOptions = options
	text := "Select a Task to Update:"
	if errText != "" {
		text = errText
	}
	return w.result("select_task", uc, View{
		Type:    ViewTypeMenu,
		Payload: ViewPayload{Text: text, Options: append(options.Labels(), "Cancel")},
	})
}

func (w *UpdateTaskWorkflow) result(step string, uc *UpdateTaskContext, view View) (*StepResult, error) {
	env, err := EncodeContext(uc)
	if err != nil {
		return nil, err
	}
	return &StepResult{WorkflowStep: step, View: view, Context: env}, nil
}

// normalizeStatus maps free-text input onto one of the fixed status labels.
func normalizeStatus(input string) string {
	trimmed := strings.TrimSpace(input)
	for _, s := range statusOptions {
		if strings.EqualFold(s, trimmed) {
			return s
		}
	}
	return ""
}
