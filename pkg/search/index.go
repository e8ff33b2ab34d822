package search

import (
	"context"
)

// Hit is one flattened search result row.
type Hit struct {
	Id       int64             `json:"id"`
	Content  string            `json:"content"`
	Status   string            `json:"status"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TermFilters maps a metadata column to the accepted values. A single value is
// an equality match, multiple values mean "any of".
type TermFilters map[string][]interface{}

// Result is one page of a search plus its bookkeeping. QueryCached reports
// whether the query embedding came from the cache.
type Result struct {
	Hits        []Hit
	Total       int64
	QueryCached bool
}

// Index is the retrieval surface the conversation pipeline talks to. Offset is
// a row offset into the ranked result list, used for "show more" continuations.
type Index interface {
	Search(ctx context.Context, query string, k, offset int, filters TermFilters) (*Result, error)
}
