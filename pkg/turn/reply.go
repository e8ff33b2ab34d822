package turn

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/pkg/llm"
)

const (
	replyContextLimit = 2500
	showMoreHint       = "\n\n💡 **Reply 'Show more' to see additional results.**"
	replyApology       = "I encountered an error while generating the response. Please try again."
)

const replySystemPrompt = `You are a helpful facility-operations assistant. Answer concisely and conversationally.
You are given the user's identity, the detected intent, any retrieved data and any active workflow prompt.
When retrieved data is present, summarize it for the user. When a retrieval error is present, apologize and explain it briefly.
When a workflow instruction is present, relay it faithfully including the options. Never invent data.`

// TokenSink receives reply tokens as they are generated.
type TokenSink func(token string)

// ReplyStage composes the turn's final text. If an earlier stage already set
// the response (heuristic or workflow view) it is returned untouched with no
// model call.
type ReplyStage struct {
	provider     llm.LLMProvider
	providerName string
	logger       logger.ILogger
	now          func() time.Time
}

func NewReplyStage(provider llm.LLMProvider, providerName string, log logger.ILogger) *ReplyStage {
	return &ReplyStage{
		provider:     provider,
		providerName: providerName,
		logger:       log,
		now:          time.Now,
	}
}

func (r *ReplyStage) Name() string { return "reply" }

func (r *ReplyStage) Run(ctx context.Context, state *State, emit TokenSink) (*Patch, error) {
	if state.FinalResponse != "" {
		provider := state.ProviderUsed
		if provider == "" {
			provider = "heuristic"
		}
		return &Patch{
			FinalResponse: ptr(state.FinalResponse),
			ProviderUsed:  ptr(provider),
		}, nil
	}

	prompt := r.buildPrompt(state)

	response, err := r.provider.Stream(ctx, []llm.Message{
		{Role: "system", Content: replySystemPrompt},
		{Role: "user", Content: prompt},
	}, func(token string) {
		if emit != nil {
			emit(token)
		}
	})
	if err != nil {
		r.logger.Error("reply", "generation failed", map[string]interface{}{
			"error":   err.Error(),
			"session": state.SessionId,
		})
		return &Patch{
			FinalResponse: ptr(replyApology),
			Err:           ptr(err.Error()),
		}, nil
	}

	if state.HasMoreResults {
		response += showMoreHint
		if emit != nil {
			emit(showMoreHint)
		}
	}

	return &Patch{
		FinalResponse: ptr(response),
		ProviderUsed:  ptr(r.providerName),
	}, nil
}

func (r *ReplyStage) buildPrompt(state *State) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "User: %s (role: %s, company: %s)\n", state.UserName, state.UserRole, state.CompanyName)
	fmt.Fprintf(&sb, "Current time: %s\n", r.now().UTC().Format("2006-01-02 03:04 PM"))
	fmt.Fprintf(&sb, "Detected intent: %s\n", state.Intent)

	if state.RetrievalRan {
		if state.RetrievalError != "" {
			fmt.Fprintf(&sb, "Retrieval error: %s\n", state.RetrievalError)
		} else {
			raw, err := json.Marshal(state.RetrievalResult)
			if err == nil {
				data := string(raw)
				if len(data) > replyContextLimit {
					data = data[:replyContextLimit]
				}
				fmt.Fprintf(&sb, "Retrieved data (%d rows): %s\n", len(state.RetrievalResult), data)
			}
		}
	}

	if state.WorkflowName != "" && state.WorkflowView != nil {
		fmt.Fprintf(&sb, "Active workflow step instruction: %s\n", state.WorkflowView.Payload.Text)
		if len(state.WorkflowView.Payload.Options) > 0 {
			fmt.Fprintf(&sb, "Options: %s\n", strings.Join(state.WorkflowView.Payload.Options, ", "))
		}
	}

	if state.Err != "" {
		fmt.Fprintf(&sb, "Internal note (do not quote verbatim): %s\n", state.Err)
	}

	fmt.Fprintf(&sb, "\nUser message: %s", state.LastUserMessage())
	return sb.String()
}
