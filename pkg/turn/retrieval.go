package turn

import (
	"context"
	"fmt"
	"strings"

	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/pkg/search"
)

// RetrievalStage executes one page of hybrid search. The tenant scope filter
// is always injected; intent-derived filters are merged in on top.
type RetrievalStage struct {
	index    search.Index
	pageSize int
	logger   logger.ILogger
}

func NewRetrievalStage(index search.Index, pageSize int, log logger.ILogger) *RetrievalStage {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &RetrievalStage{index: index, pageSize: pageSize, logger: log}
}

func (r *RetrievalStage) Name() string { return "retrieval" }

func (r *RetrievalStage) Run(ctx context.Context, state *State) (*Patch, error) {
	// Continuations replay the stored query at the advanced offset; any new
	// query starts from the top.
	query := state.LastUserMessage()
	offset := 0
	if state.Continuation && state.LastQuery != "" {
		query = state.LastQuery
		offset = state.PaginationOffset
	}

	filters := r.buildFilters(state)

	page, err := r.index.Search(ctx, query, r.pageSize, offset, filters)
	if err != nil {
		r.logger.Error("retrieval", "search failed", map[string]interface{}{
			"error":   err.Error(),
			"session": state.SessionId,
		})
		// Captured as state; the reply stage explains it conversationally.
		return &Patch{
			RetrievalError: ptr(fmt.Sprintf("Search failed: %v", err)),
			RetrievalRan:   ptr(true),
			HasMoreResults: ptr(false),
		}, nil
	}

	if len(page.Hits) == 0 {
		return &Patch{
			RetrievalResult:  []RetrievalRow{},
			RetrievalRan:     ptr(true),
			RetrievalCached:  ptr(page.QueryCached),
			LastQuery:        ptr(query),
			PaginationOffset: ptr(0),
			HasMoreResults:   ptr(false),
			ProviderUsed:     ptr("search"),
		}, nil
	}

	rows := make([]RetrievalRow, len(page.Hits))
	for i, hit := range page.Hits {
		row := RetrievalRow{
			"id":      hit.Id,
			"content": hit.Content,
			"status":  hit.Status,
			"score":   hit.Score,
		}
		for k, v := range hit.Metadata {
			row[k] = v
		}
		rows[i] = row
	}

	// The offset always advances one full page width; has_more compares the
	// total against the next page boundary.
	newOffset := offset + r.pageSize
	hasMore := page.Total > int64(newOffset)

	r.logger.Info("retrieval", "search page served", map[string]interface{}{
		"session":  state.SessionId,
		"returned": len(rows),
		"total":    page.Total,
		"offset":   newOffset,
		"has_more": hasMore,
	})

	return &Patch{
		RetrievalResult:  rows,
		RetrievalRan:     ptr(true),
		RetrievalCached:  ptr(page.QueryCached),
		LastQuery:        ptr(query),
		PaginationOffset: ptr(newOffset),
		HasMoreResults:   ptr(hasMore),
		ProviderUsed:     ptr("search"),
	}, nil
}

// buildFilters merges the mandatory tenant filter with classifier-derived
// terms. "me"-style assignee references resolve to the acting user's first
// name, matching how documents are indexed.
func (r *RetrievalStage) buildFilters(state *State) search.TermFilters {
	filters := search.TermFilters{
		"company_id": {state.CompanyId},
	}

	for key, values := range state.SearchFilters {
		if key == "company_id" {
			continue // verified scope only, never client- or model-supplied
		}
		resolved := make([]interface{}, 0, len(values))
		for _, v := range values {
			if s, ok := v.(string); ok && strings.EqualFold(s, "me") && key == "assignee_name" {
				if first := firstName(state.UserName); first != "" {
					resolved = append(resolved, first)
				}
				continue
			}
			resolved = append(resolved, v)
		}
		if len(resolved) > 0 {
			filters[key] = resolved
		}
	}
	return filters
}

func firstName(fullName string) string {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}
