package turn

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/pkg/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	hits    []search.Hit
	total   int64
	cached  bool
	err     error
	queries []string
	offsets []int
	filters []search.TermFilters
}

func (f *fakeIndex) Search(ctx context.Context, query string, k int, offset int, filters search.TermFilters) (*search.Result, error) {
	f.queries = append(f.queries, query)
	f.offsets = append(f.offsets, offset)
	f.filters = append(f.filters, filters)
	if f.err != nil {
		return nil, f.err
	}
	return &search.Result{Hits: f.hits, Total: f.total, QueryCached: f.cached}, nil
}

func makeHits(n int) []search.Hit {
	hits := make([]search.Hit, n)
	for i := range hits {
		hits[i] = search.Hit{
			Id:      int64(i + 1),
			Content: fmt.Sprintf("Task %d", i+1),
			Status:  "Pending",
			Score:   0.9,
			Metadata: map[string]string{
				"facility": "North Tower",
			},
		}
	}
	return hits
}

func TestRetrievalFirstPageAdvancesCursor(t *testing.T) {
	index := &fakeIndex{hits: makeHits(20), total: 45}
	stage := NewRetrievalStage(index, 20, logger.NewNopLogger())

	state := stateWithMessage("show my pending tasks")
	patch, err := stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Len(t, state.RetrievalResult, 20)
	assert.True(t, state.RetrievalRan)
	assert.Equal(t, "show my pending tasks", state.LastQuery)
	assert.Equal(t, 20, state.PaginationOffset)
	assert.True(t, state.HasMoreResults)
	assert.Equal(t, []int{0}, index.offsets)
	assert.Equal(t, "North Tower", state.RetrievalResult[0]["facility"])
}

func TestRetrievalContinuationReplaysStoredQuery(t *testing.T) {
	index := &fakeIndex{hits: makeHits(20), total: 45}
	stage := NewRetrievalStage(index, 20, logger.NewNopLogger())

	state := stateWithMessage("show more")
	state.Continuation = true
	state.LastQuery = "show my pending tasks"
	state.PaginationOffset = 20
	state.HasMoreResults = true

	patch, err := stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Equal(t, []string{"show my pending tasks"}, index.queries)
	assert.Equal(t, []int{20}, index.offsets)
	assert.Equal(t, 40, state.PaginationOffset)
	assert.True(t, state.HasMoreResults)
}

func TestRetrievalNewQueryStartsFromZero(t *testing.T) {
	index := &fakeIndex{hits: makeHits(5), total: 5}
	stage := NewRetrievalStage(index, 20, logger.NewNopLogger())

	// A stale cursor from a previous query must not leak into a fresh one.
	state := stateWithMessage("overdue inspections")
	state.LastQuery = "show my pending tasks"
	state.PaginationOffset = 40

	patch, err := stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Equal(t, []string{"overdue inspections"}, index.queries)
	assert.Equal(t, []int{0}, index.offsets)
	assert.Equal(t, "overdue inspections", state.LastQuery)
	assert.False(t, state.HasMoreResults)
}

func TestRetrievalEmptyPageResetsCursor(t *testing.T) {
	index := &fakeIndex{hits: nil, total: 0}
	stage := NewRetrievalStage(index, 20, logger.NewNopLogger())

	state := stateWithMessage("find unicorn tasks")
	patch, err := stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Empty(t, state.RetrievalResult)
	assert.True(t, state.RetrievalRan)
	assert.Equal(t, 0, state.PaginationOffset)
	assert.False(t, state.HasMoreResults)
}

func TestRetrievalErrorDoesNotAbortTurn(t *testing.T) {
	index := &fakeIndex{err: errors.New("connection refused")}
	stage := NewRetrievalStage(index, 20, logger.NewNopLogger())

	state := stateWithMessage("show my pending tasks")
	patch, err := stage.Run(context.Background(), state)
	require.NoError(t, err)
	patch.Apply(state)

	assert.Contains(t, state.RetrievalError, "connection refused")
	assert.True(t, state.RetrievalRan)
	assert.False(t, state.HasMoreResults)
}

func TestRetrievalAlwaysScopesToCompany(t *testing.T) {
	index := &fakeIndex{hits: makeHits(1), total: 1}
	stage := NewRetrievalStage(index, 20, logger.NewNopLogger())

	state := stateWithMessage("tasks for company 99")
	state.CompanyId = 5
	// A model-supplied company_id must be dropped, not merged.
	state.SearchFilters = map[string][]interface{}{
		"company_id": {int64(99)},
		"status":     {0},
	}

	_, err := stage.Run(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, index.filters, 1)
	assert.Equal(t, []interface{}{int64(5)}, index.filters[0]["company_id"])
	assert.Equal(t, []interface{}{0}, index.filters[0]["status"])
}

func TestRetrievalResolvesMeToFirstName(t *testing.T) {
	index := &fakeIndex{hits: makeHits(1), total: 1}
	stage := NewRetrievalStage(index, 20, logger.NewNopLogger())

	state := stateWithMessage("my tasks")
	state.UserName = "Sarah Connor"
	state.SearchFilters = map[string][]interface{}{
		"assignee_name": {"me"},
	}

	_, err := stage.Run(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, index.filters, 1)
	assert.Equal(t, []interface{}{"Sarah"}, index.filters[0]["assignee_name"])
}
