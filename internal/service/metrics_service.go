package service

import (
	"context"
	"time"

	"ai-facilityops-be/internal/dto"
	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/repository/unitofwork"
)

const recentLogLimit = 50

type IMetricsService interface {
	Record(ctx context.Context, metric *entity.UsageMetric) error
	// GetAggregates summarizes usage over the trailing window: token totals by
	// role, feature popularity, per-user usage and a recent interaction log.
	GetAggregates(ctx context.Context, windowDays int) (*dto.AnalyticsResponse, error)
}

type metricsService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewMetricsService(uowFactory unitofwork.RepositoryFactory) IMetricsService {
	return &metricsService{uowFactory: uowFactory}
}

func (s *metricsService) Record(ctx context.Context, metric *entity.UsageMetric) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.UsageMetricRepository().Create(ctx, metric)
}

func (s *metricsService) GetAggregates(ctx context.Context, windowDays int) (*dto.AnalyticsResponse, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	since := time.Now().AddDate(0, 0, -windowDays)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	metrics := uow.UsageMetricRepository()

	byRole, err := metrics.TokensByRole(ctx, since)
	if err != nil {
		return nil, err
	}
	features, err := metrics.FeatureCounts(ctx, since)
	if err != nil {
		return nil, err
	}
	perUser, err := metrics.PerUserUsage(ctx, since)
	if err != nil {
		return nil, err
	}
	recent, err := metrics.RecentLog(ctx, since, recentLogLimit)
	if err != nil {
		return nil, err
	}

	response := &dto.AnalyticsResponse{
		WindowDays:        windowDays,
		TokensByRole:      make([]dto.RoleUsage, len(byRole)),
		FeaturePopularity: make([]dto.FeaturePopularity, len(features)),
		PerUserUsage:      make([]dto.UserUsage, len(perUser)),
		RecentLog:         make([]dto.UsageLogItem, len(recent)),
	}
	for i, row := range byRole {
		response.TokensByRole[i] = dto.RoleUsage{Role: row.Role, TokensIn: row.TokensIn, TokensOut: row.TokensOut}
	}
	for i, row := range features {
		response.FeaturePopularity[i] = dto.FeaturePopularity{Feature: row.Feature, Count: row.Count}
	}
	for i, row := range perUser {
		response.PerUserUsage[i] = dto.UserUsage{
			UserId:    row.UserId,
			Role:      row.Role,
			TokensIn:  row.TokensIn,
			TokensOut: row.TokensOut,
			LastSeen:  row.LastSeen,
		}
	}
	for i, row := range recent {
		response.RecentLog[i] = dto.UsageLogItem{
			SessionId: row.SessionId,
			UserId:    row.UserId,
			Feature:   row.Feature,
			Status:    row.Status,
			LatencyMs: row.LatencyMs,
			CreatedAt: row.CreatedAt,
		}
	}
	return response, nil
}
