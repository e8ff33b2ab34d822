package turn

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-facilityops-be/pkg/llm"
)

// Classification is the model classifier's verdict for one message.
type Classification struct {
	Intent     string                   `json:"intent"`
	Parameters map[string]interface{}   `json:"parameters"`
	Filters    map[string][]interface{} `json:"filters"`
	Reasoning  string                   `json:"reasoning"`
}

// Classifier decides the intent of a message when no heuristic fired.
type Classifier interface {
	Classify(ctx context.Context, state *State) (*Classification, error)
}

const classifierSystemPrompt = `You are the intent classifier for a facility-operations assistant.
Classify the user's message into exactly one intent:
- "sql": the user wants to look up or list data (tasks, facilities, schedules, assignments).
- "workflow": the user wants to perform a guided action. Supported workflows: "create_schedule" (create a new maintenance schedule or assign a task), "update_task" (update the status of an existing task).
- "chat": anything else, including small talk and questions you can answer directly.

Respond with a single JSON object:
{"intent": "...", "parameters": {"workflow": "...optional..."}, "filters": {}, "reasoning": "..."}
Optionally include "filters" with exact-match terms like {"status": [0]} or {"assignee_name": ["me"]} when the user scopes a lookup.`

const (
	historyWindow = 5
	historyMaxLen = 500
)

// LLMClassifier backs the last tier of the understanding cascade with a
// structured-JSON model call.
type LLMClassifier struct {
	provider llm.LLMProvider
}

var _ Classifier = &LLMClassifier{}

func NewLLMClassifier(provider llm.LLMProvider) *LLMClassifier {
	return &LLMClassifier{provider: provider}
}

func (c *LLMClassifier) Classify(ctx context.Context, state *State) (*Classification, error) {
	input := state.LastUserMessage()

	// Recent history, excluding the current message, with long entries
	// (rendered menus, result dumps) truncated.
	history := state.Messages
	if len(history) > 0 {
		history = history[:len(history)-1]
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var sb strings.Builder
	for _, m := range history {
		content := m.Content
		if len(content) > historyMaxLen {
			content = content[:historyMaxLen] + "..."
		}
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, content)
	}

	userPrompt := fmt.Sprintf(
		"User: %s (role: %s, company: %s)\n\nConversation History:\n%s\nCurrent Input: %s",
		state.UserName, state.UserRole, state.CompanyName, sb.String(), input,
	)

	raw, err := c.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: classifierSystemPrompt},
		{Role: "user", Content: userPrompt},
	}, llm.WithJSONOutput(), llm.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("classifier call: %w", err)
	}

	var result Classification
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		return nil, fmt.Errorf("classifier output malformed: %w", err)
	}
	if result.Intent == "" {
		return nil, fmt.Errorf("classifier returned no intent")
	}
	return &result, nil
}

// extractJSON trims anything the model wrapped around the JSON object.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
