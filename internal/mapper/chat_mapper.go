package mapper

import (
	"encoding/json"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) HistoryToModel(e *entity.ChatHistory) *model.ChatHistory {
	return &model.ChatHistory{
		Id:        e.Id,
		SessionId: e.SessionId,
		Role:      e.Role,
		Content:   e.Content,
		UserId:    e.UserId,
		UserRole:  e.UserRole,
		TraceId:   e.TraceId,
		CreatedAt: e.CreatedAt,
	}
}

func (m *ChatMapper) HistoryToEntity(h *model.ChatHistory) *entity.ChatHistory {
	return &entity.ChatHistory{
		Id:        h.Id,
		SessionId: h.SessionId,
		Role:      h.Role,
		Content:   h.Content,
		UserId:    h.UserId,
		UserRole:  h.UserRole,
		TraceId:   h.TraceId,
		CreatedAt: h.CreatedAt,
	}
}

func (m *ChatMapper) WorkflowStateToModel(e *entity.WorkflowState) *model.WorkflowState {
	data := datatypes.JSON("{}")
	if e.StateData != nil {
		if raw, err := json.Marshal(e.StateData); err == nil {
			data = datatypes.JSON(raw)
		}
	}
	return &model.WorkflowState{
		Id:           e.Id,
		SessionId:    e.SessionId,
		WorkflowName: e.WorkflowName,
		CurrentStep:  e.CurrentStep,
		StateData:    data,
		Active:       e.Active,
	}
}

func (m *ChatMapper) WorkflowStateToEntity(w *model.WorkflowState) *entity.WorkflowState {
	data := map[string]interface{}{}
	if len(w.StateData) > 0 {
		_ = json.Unmarshal(w.StateData, &data)
	}
	return &entity.WorkflowState{
		Id:           w.Id,
		SessionId:    w.SessionId,
		WorkflowName: w.WorkflowName,
		CurrentStep:  w.CurrentStep,
		StateData:    data,
		Active:       w.Active,
		UpdatedAt:    w.UpdatedAt,
	}
}

func (m *ChatMapper) UsageMetricToModel(e *entity.UsageMetric) *model.UsageMetric {
	return &model.UsageMetric{
		Id:        e.Id,
		SessionId: e.SessionId,
		UserId:    e.UserId,
		UserRole:  e.UserRole,
		Feature:   e.Feature,
		TokensIn:  e.TokensIn,
		TokensOut: e.TokensOut,
		LatencyMs: e.LatencyMs,
		Status:    e.Status,
	}
}

func (m *ChatMapper) UsageMetricToEntity(u *model.UsageMetric) *entity.UsageMetric {
	return &entity.UsageMetric{
		Id:        u.Id,
		SessionId: u.SessionId,
		UserId:    u.UserId,
		UserRole:  u.UserRole,
		Feature:   u.Feature,
		TokensIn:  u.TokensIn,
		TokensOut: u.TokensOut,
		LatencyMs: u.LatencyMs,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

func (m *ChatMapper) TaskDocumentToEntity(d *model.TaskDocument) *entity.TaskDocument {
	return &entity.TaskDocument{
		Id:           d.Id,
		TaskId:       d.TaskId,
		CompanyId:    d.CompanyId,
		Content:      d.Content,
		Status:       d.Status,
		FacilityName: d.FacilityName,
		AssigneeName: d.AssigneeName,
		SlotName:     d.SlotName,
	}
}
