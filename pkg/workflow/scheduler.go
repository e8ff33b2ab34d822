package workflow

import (
	"context"
	"fmt"
	"strings"

	"ai-facilityops-be/internal/pkg/logger"
)

// SlotPageSize is how many slots one menu page shows; a "More" entry is
// appended when another page exists.
const SlotPageSize = 5

// SchedulerWorkflow walks the user through creating a scheduled task:
// slot, facility, task type, assignee (optional), duration estimate, then a
// single insert. At start it scans the initial message for facility, assignee
// and task names so confidently matched steps are skipped.
type SchedulerWorkflow struct {
	catalog Catalog
	logger  logger.ILogger
}

var _ Workflow = &SchedulerWorkflow{}

func NewSchedulerWorkflow(catalog Catalog, log logger.ILogger) *SchedulerWorkflow {
	return &SchedulerWorkflow{catalog: catalog, logger: log}
}

func (w *SchedulerWorkflow) Name() string {
	return "scheduler"
}

func (w *SchedulerWorkflow) Step(ctx context.Context, req StepRequest) (*StepResult, error) {
	var sc SchedulerContext
	if err := DecodeContext(req.Context, &sc); err != nil {
		w.logger.Warn("workflow", "scheduler context corrupt, restarting", map[string]interface{}{"error": err.Error()})
		sc = SchedulerContext{}
		req.CurrentStep = ""
	}

	switch req.CurrentStep {
	case "":
		sc.SlotOffset = 0
		w.prefillFromInput(ctx, req.Input, req.CompanyId, &sc)
		return w.renderSelectSlot(ctx, req.CompanyId, &sc, "")

	case "select_slot":
		if strings.EqualFold(strings.TrimSpace(req.Input), "more") {
			sc.SlotOffset += SlotPageSize
			return w.renderSelectSlot(ctx, req.CompanyId, &sc, "")
		}
		selected, ok := ResolveSelection(req.Input, sc.SlotOptions)
		if !ok {
			return w.renderSelectSlot(ctx, req.CompanyId, &sc, "Invalid slot. Please select again.")
		}
		sc.SelectedSlotId = selected.Id
		sc.SelectedSlotName = selected.Name
		sc.SlotOffset = 0
		return w.advanceAfterSlot(ctx, req, &sc)

	case "select_facility":
		selected, ok := ResolveSelection(req.Input, sc.FacilityOptions)
		if !ok {
			return w.renderSelectFacility(ctx, req.CompanyId, &sc, "Invalid facility. Please select again.")
		}
		sc.SelectedFacilityId = selected.Id
		sc.SelectedFacilityName = selected.Name
		return w.advanceAfterFacility(ctx, req, &sc)

	case "select_task":
		selected, ok := ResolveSelection(req.Input, sc.TaskOptions)
		if !ok {
			return w.renderSelectTask(ctx, req.CompanyId, &sc, "Invalid task. Please select again.")
		}
		sc.SelectedTaskId = selected.Id
		sc.SelectedTaskName = selected.Name
		return w.advanceAfterTask(ctx, req, &sc)

	case "select_assignee":
		if selected, ok := ResolveSelection(req.Input, sc.AssigneeOptions); ok {
			sc.SelectedAssigneeId = selected.Id
			sc.SelectedAssigneeName = selected.Name
		} else {
			// Unrecognized or "skip": default to the acting user.
			sc.SelectedAssigneeId = req.UserId
			sc.SelectedAssigneeName = "Myself"
		}
		return w.renderCaptureEstimate(&sc)

	case "capture_estimate":
		sc.EstimateDuration = strings.TrimSpace(req.Input)
		if err := w.writeSchedule(ctx, req, &sc); err != nil {
			// A lost insert must surface as a turn error, not a polite reply.
			return nil, fmt.Errorf("create schedule: %w", err)
		}
		return w.renderEnd(&sc)
	}

	return nil, fmt.Errorf("scheduler: invalid step '%s'", req.CurrentStep)
}

// advanceAfterSlot and friends skip steps whose selection was confidently
// pre-filled from the opening message.

func (w *SchedulerWorkflow) advanceAfterSlot(ctx context.Context, req StepRequest, sc *SchedulerContext) (*StepResult, error) {
	if sc.SelectedFacilityId != 0 {
		return w.advanceAfterFacility(ctx, req, sc)
	}
	return w.renderSelectFacility(ctx, req.CompanyId, sc, "")
}

func (w *SchedulerWorkflow) advanceAfterFacility(ctx context.Context, req StepRequest, sc *SchedulerContext) (*StepResult, error) {
	if sc.SelectedTaskId != 0 {
		return w.advanceAfterTask(ctx, req, sc)
	}
	return w.renderSelectTask(ctx, req.CompanyId, sc, "")
}

func (w *SchedulerWorkflow) advanceAfterTask(ctx context.Context, req StepRequest, sc *SchedulerContext) (*StepResult, error) {
	if sc.SelectedAssigneeId != 0 {
		return w.renderCaptureEstimate(sc)
	}
	return w.renderSelectAssignee(ctx, req.CompanyId, sc, "")
}

// --- Step renderers ---

func (w *SchedulerWorkflow) renderSelectSlot(ctx context.Context, companyId int64, sc *SchedulerContext, errText string) (*StepResult, error) {
	options, hasMore, err := w.catalog.ActiveSlots(ctx, companyId, sc.SlotOffset, SlotPageSize)
	if err != nil {
		w.logger.Warn("workflow", "slot lookup failed", map[string]interface{}{"error": err.Error()})
		options = OptionSet{}
		hasMore = false
	}
	sc.SlotOptions = options

	labels := options.Labels()
	if hasMore {
		labels = append(labels, "More")
	}
	labels = append(labels, "Cancel")

	text := "I can help you create a schedule. Which time slot would you like?"
	if errText != "" {
		text = errText
	}
	return w.result("select_slot", sc, View{
		Type:    ViewTypeMenu,
		Payload: ViewPayload{Text: text, Options: labels},
	})
}

func (w *SchedulerWorkflow) renderSelectFacility(ctx context.Context, companyId int64, sc *SchedulerContext, errText string) (*StepResult, error) {
	options, err := w.catalog.Facilities(ctx, companyId, 10)
	if err != nil {
		w.logger.Warn("workflow", "facility lookup failed", map[string]interface{}{"error": err.Error()})
		options = OptionSet{}
	}
	sc.FacilityOptions = options

	text := "Got it! Which facility is this for?"
	if errText != "" {
		text = errText
	}
	return w.result("select_facility", sc, View{
		Type:    ViewTypeMenu,
		Payload: ViewPayload{Text: text, Options: append(options.Labels(), "Cancel")},
	})
}

func (w *SchedulerWorkflow) renderSelectTask(ctx context.Context, companyId int64, sc *SchedulerContext, errText string) (*StepResult, error) {
	options, err := w.catalog.TaskTypes(ctx, companyId, 10)
	if err != nil {
		w.logger.Warn("workflow", "task type lookup failed", map[string]interface{}{"error": err.Error()})
		options = OptionSet{}
	}
	if options.IsEmpty() {
		for _, name := range []string{"General Maintenance", "Inspection", "Cleaning/Janitorial"} {
			options = append(options, Option{Label: name, Id: 0, Name: name})
		}
	}
	sc.TaskOptions = options

	facility := sc.SelectedFacilityName
	if facility == "" {
		facility = "this facility"
	}
	text := fmt.Sprintf("Perfect! What task needs to be done at %s?", facility)
	if errText != "" {
		text = errText
	}
	return w.result("select_task", sc, View{
		Type:    ViewTypeMenu,
		Payload: ViewPayload{Text: text, Options: append(options.Labels(), "Cancel")},
	})
}

func (w *SchedulerWorkflow) renderSelectAssignee(ctx context.Context, companyId int64, sc *SchedulerContext, errText string) (*StepResult, error) {
	options, err := w.catalog.Assignees(ctx, companyId, 5)
	if err != nil {
		w.logger.Warn("workflow", "assignee lookup failed", map[string]interface{}{"error": err.Error()})
		options = OptionSet{}
	}
	options = append(options, Option{Label: "Myself", Id: 0, Name: "Myself"})
	sc.AssigneeOptions = options

	task := sc.SelectedTaskName
	if task == "" {
		task = "this task"
	}
	text := fmt.Sprintf("Great! Who should handle '%s'?", task)
	if errText != "" {
		text = errText
	}
	return w.result("select_assignee", sc, View{
		Type:    ViewTypeMenu,
		Payload: ViewPayload{Text: text, Options: append(options.Labels(), "Cancel")},
	})
}

func (w *SchedulerWorkflow) renderCaptureEstimate(sc *SchedulerContext) (*StepResult, error) {
	return w.result("capture_estimate", sc, View{
		Type:    ViewTypeInput,
		Payload: ViewPayload{Text: "Almost done! How long do you estimate this will take? (in minutes)"},
	})
}

func (w *SchedulerWorkflow) renderEnd(sc *SchedulerContext) (*StepResult, error) {
	text := fmt.Sprintf(
		"Perfect! I've created your schedule:\n\n"+
			"📅 **Slot:** %s\n"+
			"🏢 **Facility:** %s\n"+
			"✅ **Task:** %s\n"+
			"👤 **Assigned to:** %s\n"+
			"⏱️ **Duration:** %s minutes\n\n"+
			"The schedule is now active. Is there anything else I can help you with?",
		sc.SelectedSlotName, sc.SelectedFacilityName, sc.SelectedTaskName,
		sc.SelectedAssigneeName, sc.EstimateDuration,
	)
	return w.result(StepEnd, sc, View{
		Type:    ViewTypeEnd,
		Payload: ViewPayload{Text: text},
	})
}

func (w *SchedulerWorkflow) result(step string, sc *SchedulerContext, view View) (*StepResult, error) {
	env, err := EncodeContext(sc)
	if err != nil {
		return nil, err
	}
	return &StepResult{WorkflowStep: step, View: view, Context: env}, nil
}

// prefillFromInput scans the opening message for known facility, assignee and
// task names ("Create schedule for John to fix AC at Building A") so those
// steps can be skipped. Best effort only; lookup failures leave the context
// untouched.
func (w *SchedulerWorkflow) prefillFromInput(ctx context.Context, input string, companyId int64, sc *SchedulerContext) {
	lower := strings.ToLower(input)

	if facilities, err := w.catalog.Facilities(ctx, companyId, 20); err == nil {
		for _, f := range facilities {
			if f.Name != "" && strings.Contains(lower, strings.ToLower(f.Name)) {
				sc.SelectedFacilityId = f.Id
				sc.SelectedFacilityName = f.Name
				break
			}
		}
	}

	if assignees, err := w.catalog.Assignees(ctx, companyId, 20); err == nil {
		for _, a := range assignees {
			parts := strings.Fields(a.Name)
			if len(parts) == 0 {
				continue
			}
			firstName := strings.ToLower(parts[0])
			if strings.Contains(lower, firstName) ||
				strings.Contains(lower, strings.ToLower(a.Name)) {
				sc.SelectedAssigneeId = a.Id
				sc.SelectedAssigneeName = a.Name
				break
			}
		}
	}

	if tasks, err := w.catalog.TaskTypes(ctx, companyId, 20); err == nil {
		for _, t := range tasks {
			if t.Name != "" && strings.Contains(lower, strings.ToLower(t.Name)) {
				sc.SelectedTaskId = t.Id
				sc.SelectedTaskName = t.Name
				break
			}
		}
	}
}

func (w *SchedulerWorkflow) writeSchedule(ctx context.Context, req StepRequest, sc *SchedulerContext) error {
	assigneeId := sc.SelectedAssigneeId
	if assigneeId == 0 {
		assigneeId = req.UserId
	}

	task := NewTask{
		TaskDescriptionId: sc.SelectedTaskId,
		Priority:          1,
		Remarks:           fmt.Sprintf("Scheduled via AI. Slot: %s, Duration: %s", sc.SelectedSlotName, sc.EstimateDuration),
		AssignedUserId:    assigneeId,
		FacilityId:        sc.SelectedFacilityId,
		CompanyId:         req.CompanyId,
	}

	id, err := w.catalog.CreateTask(ctx, task)
	if err != nil {
		return err
	}
	w.logger.Info("workflow", "schedule created", map[string]interface{}{
		"task_id":     id,
		"company_id":  req.CompanyId,
		"assignee_id": assigneeId,
	})
	return nil
}
