package turn

import (
	"context"
	"strings"

	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/pkg/events"
	"ai-facilityops-be/pkg/workflow"
)

// workflowLabelMap translates the classifier's free-text workflow labels onto
// registry keys.
var workflowLabelMap = map[string]string{
	"create_schedule": "scheduler",
	"update_task":     "update_task",
}

var cancelKeywords = map[string]bool{
	"cancel": true, "stop": true, "reset": true, "exit": true, "quit": true,
}

var greetingInputs = map[string]bool{
	"hi": true, "hii": true, "hello": true,
	"good morning": true, "good afternoon": true, "good evening": true,
}

var helpPhrases = []string{
	"what you can do", "what can you do", "capabilities",
	"how can you help", "show me workflows", "what are your features",
	"help", "menu", "options", "what you do",
}

var paginationInputs = map[string]bool{
	"show more": true, "more": true, "next": true, "continue": true,
}

const cancelConfirmation = "Okay, I've cancelled the current action. How else can I help you?"
const unsupportedCreateResponse = "I can't create facilities or locations yet. I can create maintenance schedules, update task status, and look up your data. Try 'create a schedule'."

// TracePublisher receives audit events from the pipeline. Publishing is
// best effort; failures are logged and ignored.
type TracePublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// heuristicTier is one predicate/handler pair in the classification cascade.
// Returning a nil patch means "didn't fire, try the next tier".
type heuristicTier struct {
	name string
	try  func(s *State, input string) *Patch
}

// UnderstandingStage classifies the turn: an ordered cascade of cheap
// heuristics, then the model classifier as the last tier. Any failure here
// degrades to chat rather than aborting the turn.
type UnderstandingStage struct {
	classifier Classifier
	tiers      []heuristicTier
	trace      TracePublisher
	logger     logger.ILogger
}

func NewUnderstandingStage(classifier Classifier, trace TracePublisher, log logger.ILogger) *UnderstandingStage {
	s := &UnderstandingStage{
		classifier: classifier,
		trace:      trace,
		logger:     log,
	}
	s.tiers = []heuristicTier{
		{name: "cancel", try: s.tryCancel},
		{name: "greeting_help", try: s.tryGreetingHelp},
		{name: "workflow_phrase", try: s.tryWorkflowPhrase},
		{name: "unsupported_action", try: s.tryUnsupportedAction},
		{name: "pagination", try: s.tryPagination},
		{name: "active_workflow", try: s.tryActiveWorkflow},
	}
	return s
}

func (u *UnderstandingStage) Name() string { return "understanding" }

func (u *UnderstandingStage) Run(ctx context.Context, state *State) (*Patch, error) {
	input := strings.ToLower(strings.TrimSpace(state.LastUserMessage()))

	for _, tier := range u.tiers {
		if patch := tier.try(state, input); patch != nil {
			u.logger.Info("understanding", "heuristic matched", map[string]interface{}{
				"tier":    tier.name,
				"session": state.SessionId,
			})
			u.emitTrace(ctx, state, patch, "heuristic")
			return patch, nil
		}
	}

	patch := u.classify(ctx, state)
	u.emitTrace(ctx, state, patch, "model")
	return patch, nil
}

// --- Cascade tiers ---

func (u *UnderstandingStage) tryCancel(s *State, input string) *Patch {
	if !cancelKeywords[input] {
		return nil
	}
	return &Patch{
		ResetTurnFields: true,
		Intent:          ptr(IntentChat),
		WorkflowName:    ptr(""),
		WorkflowStep:    ptr(workflow.StepEnd),
		WorkflowContext: workflow.Envelope{},
		FinalResponse:   ptr(cancelConfirmation),
		ProviderUsed:    ptr("heuristic"),
	}
}

func (u *UnderstandingStage) tryGreetingHelp(s *State, input string) *Patch {
	matched := greetingInputs[input]
	if !matched {
		for _, phrase := range helpPhrases {
			if strings.Contains(input, phrase) {
				matched = true
				break
			}
		}
	}
	if !matched {
		return nil
	}
	return &Patch{
		ResetTurnFields: true,
		Intent:          ptr(IntentWorkflow),
		Parameters:      map[string]interface{}{"workflow": "help"},
		WorkflowName:    ptr("help"),
		ProviderUsed:    ptr("heuristic"),
	}
}

func (u *UnderstandingStage) tryWorkflowPhrase(s *State, input string) *Patch {
	var name string
	switch {
	case strings.Contains(input, "create") && strings.Contains(input, "schedule"):
		name = "scheduler"
	case strings.Contains(input, "update") && (strings.Contains(input, "task") || strings.Contains(input, "status")):
		name = "update_task"
	default:
		return nil
	}
	return &Patch{
		ResetTurnFields: true,
		Intent:          ptr(IntentWorkflow),
		Parameters:      map[string]interface{}{"workflow": name},
		WorkflowName:    ptr(name),
		WorkflowStep:    ptr(""),
		WorkflowContext: workflow.Envelope{},
		ProviderUsed:    ptr("heuristic"),
	}
}

func (u *UnderstandingStage) tryUnsupportedAction(s *State, input string) *Patch {
	if !strings.Contains(input, "create") {
		return nil
	}
	if !strings.Contains(input, "facility") && !strings.Contains(input, "location") {
		return nil
	}
	return &Patch{
		ResetTurnFields: true,
		Intent:          ptr(IntentChat),
		FinalResponse:   ptr(unsupportedCreateResponse),
		ProviderUsed:    ptr("heuristic"),
	}
}

func (u *UnderstandingStage) tryPagination(s *State, input string) *Patch {
	if !paginationInputs[input] {
		return nil
	}
	if s.LastQuery == "" || !s.HasMoreResults {
		return nil
	}
	// Re-issue the stored query with the advanced cursor.
	return &Patch{
		ResetTurnFields: true,
		Intent:          ptr(IntentSql),
		Continuation:    ptr(true),
		ProviderUsed:    ptr("heuristic"),
	}
}

func (u *UnderstandingStage) tryActiveWorkflow(s *State, input string) *Patch {
	if !s.HasActiveWorkflow() {
		return nil
	}
	// Whatever the user typed is the answer to the open prompt.
	return &Patch{
		ResetTurnFields: true,
		Intent:          ptr(IntentWorkflow),
		Parameters:      map[string]interface{}{"workflow": s.WorkflowName},
		WorkflowName:    ptr(s.WorkflowName),
		ProviderUsed:    ptr("system"),
	}
}

// --- Model tier ---

func (u *UnderstandingStage) classify(ctx context.Context, state *State) *Patch {
	result, err := u.classifier.Classify(ctx, state)
	if err != nil {
		u.logger.Error("understanding", "classification failed, degrading to chat", map[string]interface{}{
			"error":   err.Error(),
			"session": state.SessionId,
		})
		return &Patch{
			ResetTurnFields: true,
			Intent:          ptr(IntentChat),
			WorkflowName:    ptr(""),
			ProviderUsed:    ptr("fallback"),
			Err:             ptr(err.Error()),
		}
	}

	patch := &Patch{
		ResetTurnFields: true,
		Intent:          ptr(result.Intent),
		Parameters:      result.Parameters,
		SearchFilters:   result.Filters,
		ProviderUsed:    ptr("model"),
	}

	if result.Intent == IntentWorkflow {
		label, _ := result.Parameters["workflow"].(string)
		name := NormalizeWorkflowLabel(label)
		patch.WorkflowName = ptr(name)
		patch.WorkflowStep = ptr("")
		patch.WorkflowContext = workflow.Envelope{}
	}
	return patch
}

// NormalizeWorkflowLabel maps a classifier's free-text workflow label onto a
// canonical registry key, falling back to help when nothing maps.
func NormalizeWorkflowLabel(label string) string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if mapped, ok := workflowLabelMap[normalized]; ok {
		return mapped
	}
	// Space-separated variants like "create schedule"
	underscored := strings.ReplaceAll(normalized, " ", "_")
	if mapped, ok := workflowLabelMap[underscored]; ok {
		return mapped
	}
	return "help"
}

func (u *UnderstandingStage) emitTrace(ctx context.Context, state *State, patch *Patch, source string) {
	if u.trace == nil {
		return
	}
	intent := ""
	if patch.Intent != nil {
		intent = *patch.Intent
	}
	if err := u.trace.Publish(ctx, events.NewTurnClassified(state.SessionId, state.TraceId, intent, source)); err != nil {
		u.logger.Warn("understanding", "trace publish failed", map[string]interface{}{"error": err.Error()})
	}
}
