package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ChatHistory struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId string    `gorm:"type:text;not null;index"`
	Role      string    `gorm:"type:text;not null"` // "user" | "assistant"
	Content   string    `gorm:"type:text;not null"`
	UserId    int64     `gorm:"index"`
	UserRole  string    `gorm:"type:text"`
	TraceId   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (ChatHistory) TableName() string {
	return "chat_histories"
}

// WorkflowState holds the resumable multi-step interaction for a session.
// At most one row per session; Active=false once the workflow reaches "end".
type WorkflowState struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId    string         `gorm:"type:text;not null;uniqueIndex"`
	WorkflowName string         `gorm:"type:text"`
	CurrentStep  string         `gorm:"type:text"`
	StateData    datatypes.JSON `gorm:"type:jsonb"`
	Active       bool           `gorm:"not null;default:false"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

func (WorkflowState) TableName() string {
	return "workflow_states"
}

type UsageMetric struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId string    `gorm:"type:text;index"`
	UserId    int64     `gorm:"index"`
	UserRole  string    `gorm:"type:text"`
	Feature   string    `gorm:"type:text;index"`
	TokensIn  int       `gorm:"not null;default:0"`
	TokensOut int       `gorm:"not null;default:0"`
	LatencyMs float64   `gorm:"not null;default:0"`
	Status    string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (UsageMetric) TableName() string {
	return "usage_metrics"
}

// TaskDocument is a row in the hybrid search index: one embedded description per
// task, with metadata columns used as exact-match term filters.
type TaskDocument struct {
	Id           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TaskId       int64           `gorm:"not null;uniqueIndex"`
	CompanyId    int64           `gorm:"not null;index"` // Tenant scope, always filtered
	Content      string          `gorm:"type:text;not null"`
	Embedding    pgvector.Vector `gorm:"type:vector(768)"`
	Status       int             `gorm:"not null;default:0"`
	FacilityName string          `gorm:"type:text"`
	AssigneeName string          `gorm:"type:text"`
	SlotName     string          `gorm:"type:text"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`
}

func (TaskDocument) TableName() string {
	return "task_documents"
}
