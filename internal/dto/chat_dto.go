package dto

import "time"

type ChatRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

type StartSessionResponse struct {
	SessionId string `json:"session_id"`
}

type EndSessionRequest struct {
	SessionId string `json:"session_id" validate:"required"`
}

type ChatHistoryItem struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
