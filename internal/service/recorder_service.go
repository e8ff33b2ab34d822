package service

import (
	"encoding/json"

	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/pkg/turn"
	"ai-facilityops-be/pkg/workflow"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// TurnCompletedTopic carries finished turns from the response path to the
// background persistence consumer.
const TurnCompletedTopic = "turn.completed"

// TurnCompletedMessage is the wire shape on the persistence topic.
type TurnCompletedMessage struct {
	SessionId        string                 `json:"session_id"`
	TraceId          string                 `json:"trace_id"`
	UserId           int64                  `json:"user_id"`
	UserRole         string                 `json:"user_role"`
	UserMessage      string                 `json:"user_message"`
	AssistantMessage string                 `json:"assistant_message"`
	Intent           string                 `json:"intent"`
	WorkflowName     string                 `json:"workflow_name"`
	WorkflowStep     string                 `json:"workflow_step"`
	WorkflowContext  map[string]interface{} `json:"workflow_context"`
	ProviderUsed     string                 `json:"provider_used"`
	TokensIn         int                    `json:"tokens_in"`
	TokensOut        int                    `json:"tokens_out"`
	LatencyMs        float64                `json:"latency_ms"`
	Status           string                 `json:"status"`
}

// recorderService hands finished turns to the in-process queue. RecordTurn
// never blocks the response path: the publish happens on its own goroutine
// and failures are logged, not returned.
type recorderService struct {
	pubSub *gochannel.GoChannel
	logger logger.ILogger
}

func NewRecorderService(pubSub *gochannel.GoChannel, log logger.ILogger) turn.TurnRecorder {
	return &recorderService{pubSub: pubSub, logger: log}
}

func (s *recorderService) RecordTurn(outcome *turn.TurnOutcome) {
	payload, err := json.Marshal(&TurnCompletedMessage{
		SessionId:        outcome.SessionId,
		TraceId:          outcome.TraceId,
		UserId:           outcome.UserId,
		UserRole:         outcome.UserRole,
		UserMessage:      outcome.UserMessage,
		AssistantMessage: outcome.AssistantMessage,
		Intent:           outcome.Intent,
		WorkflowName:     outcome.WorkflowName,
		WorkflowStep:     outcome.WorkflowStep,
		WorkflowContext:  outcome.WorkflowContext,
		ProviderUsed:     outcome.ProviderUsed,
		TokensIn:         outcome.TokensIn,
		TokensOut:        outcome.TokensOut,
		LatencyMs:        outcome.LatencyMs,
		Status:           outcome.Status,
	})
	if err != nil {
		s.logger.Error("recorder", "outcome marshal failed", map[string]interface{}{"error": err.Error()})
		return
	}

	go func() {
		msg := message.NewMessage(watermill.NewUUID(), payload)
		if err := s.pubSub.Publish(TurnCompletedTopic, msg); err != nil {
			s.logger.Error("recorder", "turn publish failed", map[string]interface{}{
				"error":   err.Error(),
				"session": outcome.SessionId,
			})
		}
	}()
}

// envelope restores the opaque workflow context from the wire shape.
func (m *TurnCompletedMessage) envelope() workflow.Envelope {
	if m.WorkflowContext == nil {
		return workflow.Envelope{}
	}
	return m.WorkflowContext
}
