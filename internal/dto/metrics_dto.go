package dto

import "time"

type RoleUsage struct {
	Role      string `json:"role"`
	TokensIn  int64  `json:"tokens_in"`
	TokensOut int64  `json:"tokens_out"`
}

type FeaturePopularity struct {
	Feature string `json:"feature"`
	Count   int64  `json:"count"`
}

type UserUsage struct {
	UserId    int64     `json:"user_id"`
	Role      string    `json:"role"`
	TokensIn  int64     `json:"tokens_in"`
	TokensOut int64     `json:"tokens_out"`
	LastSeen  time.Time `json:"last_seen"`
}

type UsageLogItem struct {
	SessionId string    `json:"session_id"`
	UserId    int64     `json:"user_id"`
	Feature   string    `json:"feature"`
	Status    string    `json:"status"`
	LatencyMs float64   `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

type AnalyticsResponse struct {
	WindowDays        int                 `json:"window_days"`
	TokensByRole      []RoleUsage         `json:"tokens_by_role"`
	FeaturePopularity []FeaturePopularity `json:"feature_popularity"`
	PerUserUsage      []UserUsage         `json:"per_user_usage"`
	RecentLog         []UsageLogItem      `json:"recent_log"`
}
