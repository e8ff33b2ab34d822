package implementation

import (
	"context"
	"fmt"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/mapper"
	"ai-facilityops-be/internal/model"
	"ai-facilityops-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskDocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewTaskDocumentRepository(db *gorm.DB) contract.TaskDocumentRepository {
	return &TaskDocumentRepositoryImpl{db: db, mapper: mapper.NewChatMapper()}
}

func (r *TaskDocumentRepositoryImpl) Upsert(ctx context.Context, doc *entity.TaskDocument, embedding []float32) error {
	m := &model.TaskDocument{
		Id:           doc.Id,
		TaskId:       doc.TaskId,
		CompanyId:    doc.CompanyId,
		Content:      doc.Content,
		Embedding:    pgvector.NewVector(embedding),
		Status:       doc.Status,
		FacilityName: doc.FacilityName,
		AssigneeName: doc.AssigneeName,
		SlotName:     doc.SlotName,
	}
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "embedding", "status", "facility_name", "assignee_name", "slot_name", "updated_at"}),
		}).
		Create(m).Error
}

type scoredDocumentRow struct {
	model.TaskDocument
	Similarity float64
}

func (r *TaskDocumentRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, k, offset int, filters contract.TermFilters) ([]*entity.ScoredTaskDocument, int64, error) {
	if k <= 0 {
		k = 20
	}

	applyFilters := func(db *gorm.DB) *gorm.DB {
		for field, values := range filters {
			if len(values) == 1 {
				db = db.Where(fmt.Sprintf("%s = ?", field), values[0])
			} else if len(values) > 1 {
				db = db.Where(fmt.Sprintf("%s IN ?", field), values)
			}
		}
		return db
	}

	var total int64
	countQuery := applyFilters(r.db.WithContext(ctx).Model(&model.TaskDocument{}))
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	vec := pgvector.NewVector(embedding)
	var rows []scoredDocumentRow
	query := applyFilters(r.db.WithContext(ctx).Model(&model.TaskDocument{})).
		Select("*, 1 - (embedding <=> ?) AS similarity", vec).
		Order(gorm.Expr("embedding <=> ?", vec)).
		Limit(k).
		Offset(offset)
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	results := make([]*entity.ScoredTaskDocument, len(rows))
	for i, row := range rows {
		results[i] = &entity.ScoredTaskDocument{
			Document:   r.mapper.TaskDocumentToEntity(&row.TaskDocument),
			Similarity: row.Similarity,
		}
	}
	return results, total, nil
}
