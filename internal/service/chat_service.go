package service

import (
	"context"
	"encoding/json"
	"sync"

	"ai-facilityops-be/internal/config"
	"ai-facilityops-be/internal/dto"
	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/internal/repository/memory"
	"ai-facilityops-be/pkg/guard"
	"ai-facilityops-be/pkg/turn"

	"github.com/google/uuid"
)

type IChatService interface {
	// Stream runs one turn and writes the NDJSON event stream to w. It blocks
	// until the stream has fully drained.
	Stream(ctx context.Context, userId int64, req *dto.ChatRequest, w turn.FlushWriter) error
	StartSession(ctx context.Context, userId int64) (*dto.StartSessionResponse, error)
	EndSession(ctx context.Context, sessionId string) error
	GetHistory(ctx context.Context, sessionId string, limit int) ([]*dto.ChatHistoryItem, error)
}

type chatService struct {
	userContext   IUserContextService
	history       IHistoryService
	workflowState IWorkflowStateService
	cursors       *memory.CursorRepository
	streamManager *turn.StreamManager
	cfg           *config.TurnConfig
	logger        logger.ILogger

	// Turns for the same session are serialized; concurrent requests would
	// race on the workflow state and the pagination cursor.
	sessionLocks sync.Map // session id -> *sync.Mutex
}

func NewChatService(
	userContext IUserContextService,
	history IHistoryService,
	workflowState IWorkflowStateService,
	cursors *memory.CursorRepository,
	streamManager *turn.StreamManager,
	cfg *config.TurnConfig,
	log logger.ILogger,
) IChatService {
	return &chatService{
		userContext:   userContext,
		history:       history,
		workflowState: workflowState,
		cursors:       cursors,
		streamManager: streamManager,
		cfg:           cfg,
		logger:        log,
	}
}

func (s *chatService) Stream(ctx context.Context, userId int64, req *dto.ChatRequest, w turn.FlushWriter) error {
	lock := s.sessionLock(req.SessionId)
	lock.Lock()
	defer lock.Unlock()

	identity, err := s.userContext.Resolve(ctx, userId)
	if err != nil {
		return err
	}

	if ok, matched := guard.ValidateInput(req.Message); !ok {
		s.logger.Warn("chat", "input blocked by guardrail", map[string]interface{}{
			"session": req.SessionId,
			"matched": matched,
		})
		s.writeRefusal(req.SessionId, w)
		return nil
	}

	state, err := s.buildState(ctx, identity, req)
	if err != nil {
		return err
	}

	// The whole turn, model calls included, runs under one deadline.
	turnCtx, cancel := context.WithTimeout(ctx, s.cfg.Deadline)
	defer cancel()

	s.logger.Info("chat", "turn started", map[string]interface{}{
		"session": req.SessionId,
		"user_id": identity.UserId,
		"trace":   state.TraceId,
	})

	s.streamManager.Run(turnCtx, state, w)

	s.saveCursor(state)
	return nil
}

// buildState assembles the turn state from persisted context. Identity fields
// always come from the verified user, whatever the client sent.
func (s *chatService) buildState(ctx context.Context, identity *UserContext, req *dto.ChatRequest) (*turn.State, error) {
	messages, err := s.history.LoadRecent(ctx, req.SessionId, s.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}
	messages = append(messages, turn.Message{Role: "user", Content: req.Message})

	workflowName, workflowStep, envelope, err := s.workflowState.Load(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}

	state := &turn.State{
		Messages:        messages,
		SessionId:       req.SessionId,
		WorkflowName:    workflowName,
		WorkflowStep:    workflowStep,
		WorkflowContext: envelope,
		UserId:          identity.UserId,
		UserName:        identity.Name,
		UserRole:        identity.Role,
		CompanyId:       identity.CompanyId,
		CompanyName:     identity.CompanyName,
		TraceId:         uuid.New().String(),
	}

	if cursor, found := s.cursors.Get(req.SessionId); found {
		state.LastQuery = cursor.LastQuery
		state.PaginationOffset = cursor.Offset
		state.HasMoreResults = cursor.HasMore
		state.SearchFilters = cursor.Filters
	}
	return state, nil
}

func (s *chatService) saveCursor(state *turn.State) {
	if state.LastQuery == "" {
		s.cursors.Delete(state.SessionId)
		return
	}
	s.cursors.Save(&memory.RetrievalCursor{
		SessionId: state.SessionId,
		LastQuery: state.LastQuery,
		Filters:   state.SearchFilters,
		Offset:    state.PaginationOffset,
		HasMore:   state.HasMoreResults,
	})
}

func (s *chatService) StartSession(ctx context.Context, userId int64) (*dto.StartSessionResponse, error) {
	if _, err := s.userContext.Resolve(ctx, userId); err != nil {
		return nil, err
	}
	return &dto.StartSessionResponse{SessionId: uuid.New().String()}, nil
}

func (s *chatService) EndSession(ctx context.Context, sessionId string) error {
	s.cursors.Delete(sessionId)
	s.sessionLocks.Delete(sessionId)
	return s.workflowState.Clear(ctx, sessionId)
}

func (s *chatService) GetHistory(ctx context.Context, sessionId string, limit int) ([]*dto.ChatHistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.history.GetHistory(ctx, sessionId, limit)
}

// writeRefusal emits the guardrail refusal over the same NDJSON protocol a
// normal turn uses, so clients never need a separate code path.
func (s *chatService) writeRefusal(sessionId string, w turn.FlushWriter) {
	events := []interface{}{
		turn.TokenEvent{Type: "token", Content: guard.RefusalMessage},
		turn.ResultEvent{
			Type:         "result",
			SessionId:    sessionId,
			Status:       "blocked",
			Labels:       []string{"guardrail"},
			ProviderUsed: "guard",
		},
	}
	for _, event := range events {
		raw, err := json.Marshal(event)
		if err != nil {
			continue
		}
		raw = append(raw, '\n')
		if _, err := w.Write(raw); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func (s *chatService) sessionLock(sessionId string) *sync.Mutex {
	lock, _ := s.sessionLocks.LoadOrStore(sessionId, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
