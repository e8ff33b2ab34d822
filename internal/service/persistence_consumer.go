package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/pkg/guard"
	"ai-facilityops-be/pkg/workflow"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPersistenceConsumer interface {
	Consume(ctx context.Context) error
}

// persistenceConsumer drains the turn-completed topic and lands everything
// durable about a turn: the message pair, the workflow state row and the
// usage metric. Nothing here retries; a failed write is logged and the turn
// moves on, so persistence can never stall the conversation path.
type persistenceConsumer struct {
	pubSub        *gochannel.GoChannel
	history       IHistoryService
	workflowState IWorkflowStateService
	metrics       IMetricsService
	logger        logger.ILogger
}

func NewPersistenceConsumer(
	pubSub *gochannel.GoChannel,
	history IHistoryService,
	workflowState IWorkflowStateService,
	metrics IMetricsService,
	log logger.ILogger,
) IPersistenceConsumer {
	return &persistenceConsumer{
		pubSub:        pubSub,
		history:       history,
		workflowState: workflowState,
		metrics:       metrics,
		logger:        log,
	}
}

func (c *persistenceConsumer) Consume(ctx context.Context) error {
	messages, err := c.pubSub.Subscribe(ctx, TurnCompletedTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (c *persistenceConsumer) processMessage(ctx context.Context, msg *message.Message) {
	var payload TurnCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.logger.Error("persistence", "unmarshal failed", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed payloads would loop forever on redelivery
		return
	}

	c.persistHistory(ctx, &payload)
	c.persistWorkflowState(ctx, &payload)
	c.persistMetric(ctx, &payload)

	msg.Ack()
}

func (c *persistenceConsumer) persistHistory(ctx context.Context, payload *TurnCompletedMessage) {
	records := []*entity.ChatHistory{
		{
			SessionId: payload.SessionId,
			Role:      "user",
			Content:   payload.UserMessage,
			UserId:    payload.UserId,
			UserRole:  payload.UserRole,
			TraceId:   payload.TraceId,
			CreatedAt: time.Now(),
		},
		{
			SessionId: payload.SessionId,
			Role:      "assistant",
			Content:   guard.SanitizeOutput(payload.AssistantMessage),
			UserId:    payload.UserId,
			UserRole:  payload.UserRole,
			TraceId:   payload.TraceId,
			CreatedAt: time.Now(),
		},
	}
	if err := c.history.SaveTurn(ctx, records); err != nil {
		c.logger.Error("persistence", "history save failed", map[string]interface{}{
			"error":   err.Error(),
			"session": payload.SessionId,
		})
	}
}

func (c *persistenceConsumer) persistWorkflowState(ctx context.Context, payload *TurnCompletedMessage) {
	var err error
	if payload.WorkflowName == "" || payload.WorkflowStep == workflow.StepEnd {
		err = c.workflowState.Clear(ctx, payload.SessionId)
	} else {
		err = c.workflowState.Persist(ctx, payload.SessionId, payload.WorkflowName, payload.WorkflowStep, payload.envelope())
	}
	if err != nil {
		c.logger.Error("persistence", "workflow state save failed", map[string]interface{}{
			"error":   err.Error(),
			"session": payload.SessionId,
		})
	}
}

func (c *persistenceConsumer) persistMetric(ctx context.Context, payload *TurnCompletedMessage) {
	feature := payload.Intent
	if payload.WorkflowName != "" {
		feature = "workflow:" + payload.WorkflowName
	}

	metric := &entity.UsageMetric{
		SessionId: payload.SessionId,
		UserId:    payload.UserId,
		UserRole:  payload.UserRole,
		Feature:   feature,
		TokensIn:  payload.TokensIn,
		TokensOut: payload.TokensOut,
		LatencyMs: payload.LatencyMs,
		Status:    payload.Status,
		CreatedAt: time.Now(),
	}
	if err := c.metrics.Record(ctx, metric); err != nil {
		c.logger.Error("persistence", "metric save failed", map[string]interface{}{
			"error":   err.Error(),
			"session": payload.SessionId,
		})
	}
}
