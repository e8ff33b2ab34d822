package search

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/internal/repository/contract"
	"ai-facilityops-be/pkg/embedding"

	"github.com/redis/go-redis/v9"
)

// allowedFilterColumns whitelists the metadata columns a caller may filter on.
// Everything else is silently dropped so user input can never reach SQL.
var allowedFilterColumns = map[string]bool{
	"company_id":    true,
	"status":        true,
	"assignee_name": true,
	"facility_name": true,
	"slot_name":     true,
	"task_id":       true,
}

// VectorIndex runs semantic search over the task document table. Query
// embeddings are cached in Redis keyed by an md5 of model+query so repeated
// phrasings of the same question skip the embedding round trip.
type VectorIndex struct {
	provider  embedding.EmbeddingProvider
	documents contract.TaskDocumentRepository
	rdb       *redis.Client
	cacheTTL  time.Duration
	model     string
	logger    logger.ILogger
}

var _ Index = &VectorIndex{}

func NewVectorIndex(
	provider embedding.EmbeddingProvider,
	documents contract.TaskDocumentRepository,
	rdb *redis.Client,
	cacheTTL time.Duration,
	model string,
	log logger.ILogger,
) *VectorIndex {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &VectorIndex{
		provider:  provider,
		documents: documents,
		rdb:       rdb,
		cacheTTL:  cacheTTL,
		model:     model,
		logger:    log,
	}
}

func (v *VectorIndex) cacheKey(query string) string {
	sum := md5.Sum([]byte(v.model + "|" + query))
	return "emb:" + hex.EncodeToString(sum[:])
}

func (v *VectorIndex) embedQuery(ctx context.Context, query string) ([]float32, bool, error) {
	key := v.cacheKey(query)

	if v.rdb != nil {
		if raw, err := v.rdb.Get(ctx, key).Bytes(); err == nil {
			var vec []float32
			if err := json.Unmarshal(raw, &vec); err == nil && len(vec) > 0 {
				return vec, true, nil
			}
		} else if err != redis.Nil {
			v.logger.Warn("search", "embedding cache read failed", map[string]interface{}{"error": err.Error()})
		}
	}

	res, err := v.provider.Generate(ctx, query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, false, fmt.Errorf("embed query: %w", err)
	}
	vec := res.Embedding.Values

	if v.rdb != nil {
		if raw, err := json.Marshal(vec); err == nil {
			if err := v.rdb.Set(ctx, key, raw, v.cacheTTL).Err(); err != nil {
				v.logger.Warn("search", "embedding cache write failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	return vec, false, nil
}

func (v *VectorIndex) Search(ctx context.Context, query string, k, offset int, filters TermFilters) (*Result, error) {
	vec, cached, err := v.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	repoFilters := contract.TermFilters{}
	for column, values := range filters {
		if !allowedFilterColumns[column] {
			v.logger.Warn("search", "ignoring unsupported filter column", map[string]interface{}{"column": column})
			continue
		}
		if len(values) > 0 {
			repoFilters[column] = values
		}
	}

	docs, total, err := v.documents.SearchSimilarWithScore(ctx, vec, k, offset, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	hits := make([]Hit, len(docs))
	for i, doc := range docs {
		hits[i] = Hit{
			Id:      doc.Document.TaskId,
			Content: doc.Document.Content,
			Status:  entity.TaskStatusLabel(doc.Document.Status),
			Score:   doc.Similarity,
			Metadata: map[string]string{
				"facility": doc.Document.FacilityName,
				"assignee": doc.Document.AssigneeName,
				"slot":     doc.Document.SlotName,
			},
		}
	}

	v.logger.Debug("search", "vector search executed", map[string]interface{}{
		"query_cached": cached,
		"k":            k,
		"offset":       offset,
		"returned":     len(hits),
		"total":        total,
	})

	return &Result{Hits: hits, Total: total, QueryCached: cached}, nil
}
