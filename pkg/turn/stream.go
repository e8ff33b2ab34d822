package turn

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/pkg/codec"
	"ai-facilityops-be/pkg/workflow"
)

const (
	tokenBufferSize = 256
	previewRowLimit = 5
)

// Stream event wire shapes, newline-delimited JSON.

type TokenEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type WorkflowSnapshot struct {
	Name string         `json:"name"`
	Step string         `json:"step"`
	View *workflow.View `json:"view"`
}

type RetrievalSummary struct {
	Ran         bool           `json:"ran"`
	Cached      bool           `json:"cached"`
	Query       string         `json:"query"`
	RowCount    int            `json:"row_count"`
	RowsPreview []RetrievalRow `json:"rows_preview"`
}

type ResultEvent struct {
	Type               string            `json:"type"`
	SessionId          string            `json:"session_id"`
	Status             string            `json:"status"`
	Labels             []string          `json:"labels"`
	Workflow           *WorkflowSnapshot `json:"workflow"`
	Retrieval          *RetrievalSummary `json:"retrieval"`
	CompressionMetrics codec.Metrics     `json:"compression_metrics"`
	ProviderUsed       string            `json:"provider_used"`
	TraceId            string            `json:"trace_id"`
}

// FlushWriter is the transport surface tokens are written to. Each event is
// flushed immediately so the caller sees tokens as they are produced.
type FlushWriter interface {
	io.Writer
	Flush() error
}

// TurnOutcome is everything the background persistence path needs once the
// response has been sent.
type TurnOutcome struct {
	SessionId        string
	TraceId          string
	UserId           int64
	UserRole         string
	UserMessage      string
	AssistantMessage string
	Intent           string
	WorkflowName     string
	WorkflowStep     string
	WorkflowContext  workflow.Envelope
	ProviderUsed     string
	TokensIn         int
	TokensOut        int
	LatencyMs        float64
	Status           string
}

// TurnRecorder accepts a finished turn for background persistence. It must
// return immediately; failures are its own concern and never reach the
// response path.
type TurnRecorder interface {
	RecordTurn(outcome *TurnOutcome)
}

// StreamManager runs the graph as a background unit of work and drains its
// token queue to the transport: tokens in production order, then exactly one
// result (or error) event after the graph has fully finished.
type StreamManager struct {
	graph    *Graph
	recorder TurnRecorder
	logger   logger.ILogger
}

func NewStreamManager(graph *Graph, recorder TurnRecorder, log logger.ILogger) *StreamManager {
	return &StreamManager{graph: graph, recorder: recorder, logger: log}
}

// Run executes one turn and writes the NDJSON event stream to w.
func (m *StreamManager) Run(ctx context.Context, state *State, w FlushWriter) {
	start := time.Now()

	tokens := make(chan string, tokenBufferSize)
	done := make(chan error, 1)

	go func() {
		defer close(tokens)
		done <- m.graph.Run(ctx, state, func(token string) {
			tokens <- token
		})
	}()

	// Drain in production order until the channel closes. The close is the
	// end-of-stream sentinel.
	streamed := 0
	for token := range tokens {
		m.writeEvent(w, TokenEvent{Type: "token", Content: token})
		streamed++
	}

	err := <-done
	latency := float64(time.Since(start).Milliseconds())

	if err != nil {
		m.logger.Error("stream", "graph execution failed", map[string]interface{}{
			"error":   err.Error(),
			"session": state.SessionId,
			"trace":   state.TraceId,
		})
		m.writeEvent(w, ErrorEvent{Type: "error", Message: err.Error()})
		m.record(state, latency, "error")
		return
	}

	// Non-streaming paths (workflow views, heuristic responses) still deliver
	// their text as a token so every caller sees the reply the same way.
	if streamed == 0 && state.FinalResponse != "" {
		m.writeEvent(w, TokenEvent{Type: "token", Content: state.FinalResponse})
	}

	m.record(state, latency, "ok")
	m.writeEvent(w, m.buildResult(state))
}

func (m *StreamManager) record(state *State, latencyMs float64, status string) {
	if m.recorder == nil {
		return
	}
	m.recorder.RecordTurn(&TurnOutcome{
		SessionId:        state.SessionId,
		TraceId:          state.TraceId,
		UserId:           state.UserId,
		UserRole:         state.UserRole,
		UserMessage:      state.LastUserMessage(),
		AssistantMessage: state.FinalResponse,
		Intent:           state.Intent,
		WorkflowName:     state.WorkflowName,
		WorkflowStep:     state.WorkflowStep,
		WorkflowContext:  state.WorkflowContext,
		ProviderUsed:     state.ProviderUsed,
		TokensIn:         len(state.LastUserMessage()),
		TokensOut:        len(state.FinalResponse),
		LatencyMs:        latencyMs,
		Status:           status,
	})
}

func (m *StreamManager) buildResult(state *State) ResultEvent {
	result := ResultEvent{
		Type:         "result",
		SessionId:    state.SessionId,
		Status:       "ok",
		Labels:       []string{state.Intent},
		ProviderUsed: state.ProviderUsed,
		TraceId:      state.TraceId,
	}

	if state.WorkflowName != "" && state.WorkflowView != nil {
		result.Workflow = &WorkflowSnapshot{
			Name: state.WorkflowName,
			Step: state.WorkflowStep,
			View: state.WorkflowView,
		}
	}

	if state.RetrievalRan {
		preview := state.RetrievalResult
		if len(preview) > previewRowLimit {
			preview = preview[:previewRowLimit]
		}
		result.Retrieval = &RetrievalSummary{
			Ran:         true,
			Cached:      state.RetrievalCached,
			Query:       state.LastQuery,
			RowCount:    len(state.RetrievalResult),
			RowsPreview: preview,
		}

		rows := make([]map[string]interface{}, len(preview))
		for i, row := range preview {
			rows[i] = row
		}
		if _, metrics, err := codec.Encode(rows); err == nil {
			result.CompressionMetrics = metrics
		} else {
			m.logger.Warn("stream", "preview encoding failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return result
}

func (m *StreamManager) writeEvent(w FlushWriter, event interface{}) {
	raw, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("stream", "event marshal failed", map[string]interface{}{"error": err.Error()})
		return
	}
	raw = append(raw, '\n')
	if _, err := w.Write(raw); err != nil {
		// Caller disconnected. The graph already ran; persistence still
		// happens, only delivery is lost.
		m.logger.Warn("stream", "event write failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := w.Flush(); err != nil {
		m.logger.Warn("stream", "flush failed", map[string]interface{}{"error": err.Error()})
	}
}
