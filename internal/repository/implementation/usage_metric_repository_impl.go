package implementation

import (
	"context"
	"time"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/mapper"
	"ai-facilityops-be/internal/model"
	"ai-facilityops-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsageMetricRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewUsageMetricRepository(db *gorm.DB) contract.UsageMetricRepository {
	return &UsageMetricRepositoryImpl{db: db, mapper: mapper.NewChatMapper()}
}

func (r *UsageMetricRepositoryImpl) Create(ctx context.Context, metric *entity.UsageMetric) error {
	m := r.mapper.UsageMetricToModel(metric)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *UsageMetricRepositoryImpl) TokensByRole(ctx context.Context, since time.Time) ([]contract.RoleUsage, error) {
	var rows []contract.RoleUsage
	err := r.db.WithContext(ctx).
		Model(&model.UsageMetric{}).
		Select("user_role AS role, SUM(tokens_in) AS tokens_in, SUM(tokens_out) AS tokens_out").
		Where("created_at >= ?", since).
		Group("user_role").
		Scan(&rows).Error
	return rows, err
}

func (r *UsageMetricRepositoryImpl) FeatureCounts(ctx context.Context, since time.Time) ([]contract.FeatureCount, error) {
	var rows []contract.FeatureCount
	err := r.db.WithContext(ctx).
		Model(&model.UsageMetric{}).
		Select("feature, COUNT(id) AS count").
		Where("created_at >= ?", since).
		Group("feature").
		Scan(&rows).Error
	return rows, err
}

func (r *UsageMetricRepositoryImpl) PerUserUsage(ctx context.Context, since time.Time) ([]contract.UserUsage, error) {
	var rows []contract.UserUsage
	err := r.db.WithContext(ctx).
		Model(&model.UsageMetric{}).
		Select("user_id, user_role AS role, SUM(tokens_in) AS tokens_in, SUM(tokens_out) AS tokens_out, MAX(created_at) AS last_seen").
		Where("created_at >= ?", since).
		Group("user_id, user_role").
		Scan(&rows).Error
	return rows, err
}

func (r *UsageMetricRepositoryImpl) RecentLog(ctx context.Context, since time.Time, limit int) ([]*entity.UsageMetric, error) {
	var models []*model.UsageMetric
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.UsageMetric, len(models))
	for i, m := range models {
		entities[i] = r.mapper.UsageMetricToEntity(m)
	}
	return entities, nil
}
