package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatHistory struct {
	Id        uuid.UUID
	SessionId string
	Role      string
	Content   string
	UserId    int64
	UserRole  string
	TraceId   string
	CreatedAt time.Time
}

type WorkflowState struct {
	Id           uuid.UUID
	SessionId    string
	WorkflowName string
	CurrentStep  string
	StateData    map[string]interface{} // opaque context envelope (JSONB)
	Active       bool
	UpdatedAt    time.Time
}

type UsageMetric struct {
	Id        uuid.UUID
	SessionId string
	UserId    int64
	UserRole  string
	Feature   string
	TokensIn  int
	TokensOut int
	LatencyMs float64
	Status    string
	CreatedAt time.Time
}

type TaskDocument struct {
	Id           uuid.UUID
	TaskId       int64
	CompanyId    int64
	Content      string
	Status       int
	FacilityName string
	AssigneeName string
	SlotName     string
}

// ScoredTaskDocument pairs an index row with its similarity score.
type ScoredTaskDocument struct {
	Document   *TaskDocument
	Similarity float64
}
