package contract

import (
	"context"
	"time"

	"ai-facilityops-be/internal/entity"
)

type ChatHistoryRepository interface {
	CreateBatch(ctx context.Context, records []*entity.ChatHistory) error
	// FindRecent returns the newest records for a session in chronological order.
	FindRecent(ctx context.Context, sessionId string, limit int) ([]*entity.ChatHistory, error)
}

type WorkflowStateRepository interface {
	FindBySession(ctx context.Context, sessionId string) (*entity.WorkflowState, error)
	// Upsert creates or replaces the single per-session workflow record.
	Upsert(ctx context.Context, state *entity.WorkflowState) error
}

type RoleUsage struct {
	Role      string
	TokensIn  int64
	TokensOut int64
}

type FeatureCount struct {
	Feature string
	Count   int64
}

type UserUsage struct {
	UserId    int64
	Role      string
	TokensIn  int64
	TokensOut int64
	LastSeen  time.Time
}

type UsageMetricRepository interface {
	Create(ctx context.Context, metric *entity.UsageMetric) error
	TokensByRole(ctx context.Context, since time.Time) ([]RoleUsage, error)
	FeatureCounts(ctx context.Context, since time.Time) ([]FeatureCount, error)
	PerUserUsage(ctx context.Context, since time.Time) ([]UserUsage, error)
	RecentLog(ctx context.Context, since time.Time, limit int) ([]*entity.UsageMetric, error)
}

// TermFilters maps an index column to the set of accepted values. A single
// value is an exact term match; multiple values are "any of".
type TermFilters map[string][]interface{}

type TaskDocumentRepository interface {
	Upsert(ctx context.Context, doc *entity.TaskDocument, embedding []float32) error
	// SearchSimilarWithScore runs cosine-distance search over task_documents with
	// the given term filters applied, returning one page of hits plus the total
	// number of rows matching the filters.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, k, offset int, filters TermFilters) ([]*entity.ScoredTaskDocument, int64, error)
}
