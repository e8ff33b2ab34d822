package turn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/pkg/llm"
	"ai-facilityops-be/pkg/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	tokens []string
	err    error
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return strings.Join(f.tokens, ""), nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, nil)
}

func (f *fakeProvider) Stream(ctx context.Context, history []llm.Message, onToken func(string), options ...llm.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for _, token := range f.tokens {
		onToken(token)
	}
	return strings.Join(f.tokens, ""), nil
}

type fakeRecorder struct {
	outcomes []*TurnOutcome
}

func (f *fakeRecorder) RecordTurn(outcome *TurnOutcome) {
	f.outcomes = append(f.outcomes, outcome)
}

// echoWorkflow answers every step with a fixed prompt, or fails terminally.
type echoWorkflow struct {
	name string
	text string
	step string
	err  error
}

func (w *echoWorkflow) Name() string { return w.name }

func (w *echoWorkflow) Step(ctx context.Context, req workflow.StepRequest) (*workflow.StepResult, error) {
	if w.err != nil {
		return nil, w.err
	}
	return &workflow.StepResult{
		WorkflowStep: w.step,
		View: workflow.View{
			Type:    workflow.ViewTypeMenu,
			Payload: workflow.ViewPayload{Text: w.text, Options: []string{"A", "B"}},
		},
		Context: workflow.Envelope{},
	}, nil
}

type flushBuffer struct {
	bytes.Buffer
	flushes int
}

func (b *flushBuffer) Flush() error {
	b.flushes++
	return nil
}

func newStreamManager(provider llm.LLMProvider, wf workflow.Workflow, recorder TurnRecorder) *StreamManager {
	log := logger.NewNopLogger()
	classifier := &fakeClassifier{result: &Classification{Intent: IntentChat}}
	graph := NewGraph(
		NewUnderstandingStage(classifier, nil, log),
		NewRetrievalStage(&fakeIndex{}, 20, log),
		NewWorkflowStage(workflow.NewEngine(wf), nil, log),
		NewReplyStage(provider, "ollama", log),
	)
	return NewStreamManager(graph, recorder, log)
}

func decodeEvents(t *testing.T, raw []byte) []map[string]interface{} {
	t.Helper()
	var events []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(raw), []byte("\n")) {
		var event map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &event))
		events = append(events, event)
	}
	return events
}

func TestStreamTokensInOrderThenSingleResult(t *testing.T) {
	provider := &fakeProvider{tokens: []string{"Hello", " ", "there"}}
	recorder := &fakeRecorder{}
	manager := newStreamManager(provider, &echoWorkflow{name: "help"}, recorder)

	state := stateWithMessage("how is the weather")
	state.TraceId = "t-123"

	buf := &flushBuffer{}
	manager.Run(context.Background(), state, buf)

	events := decodeEvents(t, buf.Bytes())
	require.Len(t, events, 4)

	var got []string
	for _, e := range events[:3] {
		assert.Equal(t, "token", e["type"])
		got = append(got, e["content"].(string))
	}
	assert.Equal(t, []string{"Hello", " ", "there"}, got)

	result := events[3]
	assert.Equal(t, "result", result["type"])
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, []interface{}{"chat"}, result["labels"])
	assert.Equal(t, "t-123", result["trace_id"])
	assert.Nil(t, result["workflow"])
	assert.Nil(t, result["retrieval"])

	require.Len(t, recorder.outcomes, 1)
	assert.Equal(t, "Hello there", recorder.outcomes[0].AssistantMessage)
	assert.Equal(t, "ok", recorder.outcomes[0].Status)
	assert.Positive(t, buf.flushes)
}

func TestStreamEmitsTrailingTokenForShortCircuitReplies(t *testing.T) {
	// A heuristic response never touches the model, so nothing streams; the
	// final text is still delivered as a token before the result event.
	provider := &fakeProvider{err: errors.New("must not be called")}
	manager := newStreamManager(provider, &echoWorkflow{name: "help"}, &fakeRecorder{})

	state := stateWithMessage("cancel")

	buf := &flushBuffer{}
	manager.Run(context.Background(), state, buf)

	events := decodeEvents(t, buf.Bytes())
	require.Len(t, events, 2)
	assert.Equal(t, "token", events[0]["type"])
	assert.Equal(t, cancelConfirmation, events[0]["content"])
	assert.Equal(t, "result", events[1]["type"])
}

func TestStreamWorkflowViewInResult(t *testing.T) {
	provider := &fakeProvider{err: errors.New("must not be called")}
	wf := &echoWorkflow{name: "scheduler", text: "Please select a slot:", step: "select_slot"}
	manager := newStreamManager(provider, wf, &fakeRecorder{})

	state := stateWithMessage("create a schedule")

	buf := &flushBuffer{}
	manager.Run(context.Background(), state, buf)

	events := decodeEvents(t, buf.Bytes())
	require.Len(t, events, 2)
	assert.Equal(t, "Please select a slot:", events[0]["content"])

	snapshot, ok := events[1]["workflow"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "scheduler", snapshot["name"])
	assert.Equal(t, "select_slot", snapshot["step"])
}

func TestStreamErrorEventOnWorkflowWriteFailure(t *testing.T) {
	provider := &fakeProvider{}
	wf := &echoWorkflow{name: "scheduler", err: errors.New("failed to create the task: insert failed")}
	recorder := &fakeRecorder{}
	manager := newStreamManager(provider, wf, recorder)

	state := stateWithMessage("create a schedule")

	buf := &flushBuffer{}
	manager.Run(context.Background(), state, buf)

	events := decodeEvents(t, buf.Bytes())
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0]["type"])
	assert.Contains(t, events[0]["message"], "insert failed")

	require.Len(t, recorder.outcomes, 1)
	assert.Equal(t, "error", recorder.outcomes[0].Status)
}

func TestStreamRetrievalSummaryWithCompression(t *testing.T) {
	provider := &fakeProvider{tokens: []string{"Here are your tasks."}}
	recorder := &fakeRecorder{}

	log := logger.NewNopLogger()
	classifier := &fakeClassifier{result: &Classification{Intent: IntentSql}}
	index := &fakeIndex{hits: makeHits(8), total: 8}
	graph := NewGraph(
		NewUnderstandingStage(classifier, nil, log),
		NewRetrievalStage(index, 20, log),
		NewWorkflowStage(workflow.NewEngine(), nil, log),
		NewReplyStage(provider, "ollama", log),
	)
	manager := NewStreamManager(graph, recorder, log)

	state := stateWithMessage("show my pending tasks")

	buf := &flushBuffer{}
	manager.Run(context.Background(), state, buf)

	events := decodeEvents(t, buf.Bytes())
	result := events[len(events)-1]
	require.Equal(t, "result", result["type"])

	retrieval, ok := result["retrieval"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(8), retrieval["row_count"])
	assert.Len(t, retrieval["rows_preview"], 5)
	assert.Equal(t, "show my pending tasks", retrieval["query"])

	metrics, ok := result["compression_metrics"].(map[string]interface{})
	require.True(t, ok)
	assert.Positive(t, metrics["raw_size"])
}

func TestReplyAppendsShowMoreHint(t *testing.T) {
	provider := &fakeProvider{tokens: []string{"Found 45 tasks."}}
	stage := NewReplyStage(provider, "ollama", logger.NewNopLogger())

	state := stateWithMessage("show my pending tasks")
	state.Intent = IntentSql
	state.HasMoreResults = true

	var streamed []string
	patch, err := stage.Run(context.Background(), state, func(token string) {
		streamed = append(streamed, token)
	})
	require.NoError(t, err)
	patch.Apply(state)

	assert.True(t, strings.HasSuffix(state.FinalResponse, showMoreHint))
	assert.Contains(t, streamed, showMoreHint)
}

func TestReplyModelFailureYieldsApology(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	stage := NewReplyStage(provider, "ollama", logger.NewNopLogger())

	state := stateWithMessage("tell me a joke")
	state.Intent = IntentChat

	patch, err := stage.Run(context.Background(), state, nil)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Equal(t, replyApology, state.FinalResponse)
	assert.Contains(t, state.Err, "connection refused")
}

func TestReplyShortCircuitSkipsModel(t *testing.T) {
	provider := &fakeProvider{err: errors.New("must not be called")}
	stage := NewReplyStage(provider, "ollama", logger.NewNopLogger())

	state := stateWithMessage("cancel")
	state.FinalResponse = cancelConfirmation
	state.ProviderUsed = "heuristic"

	patch, err := stage.Run(context.Background(), state, nil)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Equal(t, cancelConfirmation, state.FinalResponse)
	assert.Equal(t, "heuristic", state.ProviderUsed)
}
