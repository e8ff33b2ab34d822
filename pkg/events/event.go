package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "TURN_CLASSIFIED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Audit trail events emitted by the conversation pipeline.

func NewTurnClassified(sessionId, traceId, intent, source string) Event {
	return BaseEvent{
		Type: "TURN_CLASSIFIED",
		Data: map[string]interface{}{
			"session_id": sessionId,
			"trace_id":   traceId,
			"intent":     intent,
			"source":     source, // "heuristic" or "model"
		},
		OccurredAt: time.Now(),
	}
}

func NewWorkflowStepped(sessionId, traceId, workflow, fromStep, toStep string) Event {
	return BaseEvent{
		Type: "WORKFLOW_STEPPED",
		Data: map[string]interface{}{
			"session_id": sessionId,
			"trace_id":   traceId,
			"workflow":   workflow,
			"from_step":  fromStep,
			"to_step":    toStep,
		},
		OccurredAt: time.Now(),
	}
}

func NewTaskCreated(sessionId, traceId string, taskId int64, companyId int64) Event {
	return BaseEvent{
		Type: "TASK_CREATED",
		Data: map[string]interface{}{
			"session_id": sessionId,
			"trace_id":   traceId,
			"task_id":    taskId,
			"company_id": companyId,
		},
		OccurredAt: time.Now(),
	}
}

func NewTaskStatusChanged(sessionId, traceId string, taskId int64, status string) Event {
	return BaseEvent{
		Type: "TASK_STATUS_CHANGED",
		Data: map[string]interface{}{
			"session_id": sessionId,
			"trace_id":   traceId,
			"task_id":    taskId,
			"status":     status,
		},
		OccurredAt: time.Now(),
	}
}
