package turn

import (
	"context"
	"errors"
	"testing"

	"ai-facilityops-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	result *Classification
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(ctx context.Context, state *State) (*Classification, error) {
	f.calls++
	return f.result, f.err
}

func newUnderstanding(c Classifier) *UnderstandingStage {
	return NewUnderstandingStage(c, nil, logger.NewNopLogger())
}

func stateWithMessage(content string) *State {
	return &State{
		SessionId: "s1",
		Messages:  []Message{{Role: "user", Content: content}},
		UserId:    21,
		CompanyId: 5,
	}
}

func TestUnderstandingCancelAlwaysWins(t *testing.T) {
	classifier := &fakeClassifier{}
	stage := newUnderstanding(classifier)

	state := stateWithMessage("cancel")
	state.WorkflowName = "scheduler"
	state.WorkflowStep = "select_facility"

	patch, err := stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Equal(t, IntentChat, state.Intent)
	assert.Equal(t, "", state.WorkflowName)
	assert.Equal(t, "end", state.WorkflowStep)
	assert.Equal(t, cancelConfirmation, state.FinalResponse)
	assert.Zero(t, classifier.calls)
}

func TestUnderstandingGreetingTriggersHelp(t *testing.T) {
	classifier := &fakeClassifier{}
	stage := newUnderstanding(classifier)

	for _, input := range []string{"hello", "Hi", "what can you do", "help"} {
		state := stateWithMessage(input)
		patch, err := stage.Run(context.Background(), state)
		require.NoError(t, err)
		patch.Apply(state)

		assert.Equal(t, IntentWorkflow, state.Intent, "input %q", input)
		assert.Equal(t, "help", state.WorkflowName, "input %q", input)
	}
	assert.Zero(t, classifier.calls)
}

func TestUnderstandingWorkflowPhraseBypassesClassifier(t *testing.T) {
	classifier := &fakeClassifier{}
	stage := newUnderstanding(classifier)

	state := stateWithMessage("I want to create a schedule for tomorrow")
	patch, err := stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Equal(t, IntentWorkflow, state.Intent)
	assert.Equal(t, "scheduler", state.WorkflowName)
	assert.Zero(t, classifier.calls)

	state = stateWithMessage("update the status of my task")
	patch, err = stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)
	assert.Equal(t, "update_task", state.WorkflowName)
}

func TestUnderstandingUnsupportedAction(t *testing.T) {
	stage := newUnderstanding(&fakeClassifier{})

	state := stateWithMessage("create a new facility downtown")
	patch, err := stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Equal(t, IntentChat, state.Intent)
	assert.NotEmpty(t, state.FinalResponse)
}

func TestUnderstandingPaginationNeedsValidCursor(t *testing.T) {
	classifier := &fakeClassifier{result: &Classification{Intent: IntentChat}}
	stage := newUnderstanding(classifier)

	// Valid cursor: heuristic fires, classifier is skipped
	state := stateWithMessage("show more")
	state.LastQuery = "pending tasks"
	state.HasMoreResults = true

	patch, err := stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)
	assert.Equal(t, IntentSql, state.Intent)
	assert.True(t, state.Continuation)
	assert.Zero(t, classifier.calls)

	// No cursor: same input falls through to the classifier
	state = stateWithMessage("show more")
	patch, err = stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)
	assert.Equal(t, IntentChat, state.Intent)
	assert.Equal(t, 1, classifier.calls)
}

func TestUnderstandingActiveWorkflowBypass(t *testing.T) {
	classifier := &fakeClassifier{}
	stage := newUnderstanding(classifier)

	state := stateWithMessage("North Tower")
	state.WorkflowName = "scheduler"
	state.WorkflowStep = "select_facility"

	patch, err := stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Equal(t, IntentWorkflow, state.Intent)
	assert.Equal(t, "scheduler", state.WorkflowName)
	assert.Equal(t, "select_facility", state.WorkflowStep)
	assert.Zero(t, classifier.calls)
}

func TestUnderstandingUnmappedWorkflowLabelFallsBackToHelp(t *testing.T) {
	classifier := &fakeClassifier{result: &Classification{
		Intent:     IntentWorkflow,
		Parameters: map[string]interface{}{"workflow": "order_supplies"},
	}}
	stage := newUnderstanding(classifier)

	state := stateWithMessage("order more supplies for the warehouse")
	patch, err := stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Equal(t, IntentWorkflow, state.Intent)
	assert.Equal(t, "help", state.WorkflowName)
}

func TestUnderstandingClassifierFailureDegradesToChat(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("model unreachable")}
	stage := newUnderstanding(classifier)

	state := stateWithMessage("what were last week's totals")
	patch, err := stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Equal(t, IntentChat, state.Intent)
	assert.Equal(t, "fallback", state.ProviderUsed)
	assert.Equal(t, "", state.WorkflowName)
}

func TestUnderstandingResetsStaleTurnFields(t *testing.T) {
	classifier := &fakeClassifier{result: &Classification{Intent: IntentChat}}
	stage := newUnderstanding(classifier)

	state := stateWithMessage("thanks")
	state.FinalResponse = "stale answer"
	state.RetrievalError = "stale error"
	state.Intent = IntentSql

	patch, err := stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Equal(t, IntentChat, state.Intent)
	assert.Empty(t, state.FinalResponse)
	assert.Empty(t, state.RetrievalError)
}

func TestNormalizeWorkflowLabel(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"create_schedule", "scheduler"},
		{"Create Schedule", "scheduler"},
		{"  UPDATE_TASK ", "update_task"},
		{"update task", "update_task"},
		{"order_supplies", "help"},
		{"", "help"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeWorkflowLabel(tt.label), "label %q", tt.label)
	}
}
