package turn

import (
	"ai-facilityops-be/pkg/workflow"
)

// Intent labels assigned by the understanding stage.
const (
	IntentChat     = "chat"
	IntentSql      = "sql"
	IntentWorkflow = "workflow"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RetrievalRow is one flattened search hit: id, content, status, score plus
// whatever metadata the index carried.
type RetrievalRow map[string]interface{}

// State is the shared data threaded through one graph execution. Stages never
// mutate it directly; they return a Patch the driver applies.
type State struct {
	Messages  []Message
	SessionId string

	// Classification
	Intent        string
	Parameters    map[string]interface{}
	SearchFilters map[string][]interface{}

	// Workflow
	WorkflowName    string
	WorkflowStep    string
	WorkflowContext workflow.Envelope
	WorkflowView    *workflow.View

	// Retrieval
	RetrievalResult []RetrievalRow
	RetrievalError  string
	RetrievalRan    bool
	RetrievalCached bool

	// Pagination cursor, valid while the same logical query is being paged.
	LastQuery        string
	PaginationOffset int
	HasMoreResults   bool
	Continuation     bool

	FinalResponse string
	ProviderUsed  string

	// Verified identity. Overwritten from the session before the graph runs,
	// never taken from the client.
	UserId      int64
	UserName    string
	UserRole    string
	CompanyId   int64
	CompanyName string

	TraceId string
	Err     string
}

// LastUserMessage returns the content of the newest message.
func (s *State) LastUserMessage() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1].Content
}

// HasActiveWorkflow reports whether a workflow is mid-flight.
func (s *State) HasActiveWorkflow() bool {
	return s.WorkflowName != "" && s.WorkflowStep != "" && s.WorkflowStep != workflow.StepEnd
}

// Patch is a stage's output: only non-nil fields are written, so the merge
// order is explicit last-writer-wins per field. ResetTurnFields zeroes the
// turn-scoped fields before the rest of the patch lands; the understanding
// stage uses it so nothing from the previous turn leaks into routing.
type Patch struct {
	ResetTurnFields bool

	Intent        *string
	Parameters    map[string]interface{}
	SearchFilters map[string][]interface{}

	WorkflowName    *string
	WorkflowStep    *string
	WorkflowContext workflow.Envelope
	WorkflowView    *workflow.View

	RetrievalResult []RetrievalRow
	RetrievalError  *string
	RetrievalRan    *bool
	RetrievalCached *bool

	LastQuery        *string
	PaginationOffset *int
	HasMoreResults   *bool
	Continuation     *bool

	FinalResponse *string
	ProviderUsed  *string
	Err           *string
}

func (p *Patch) Apply(s *State) {
	if p == nil {
		return
	}
	if p.ResetTurnFields {
		s.Intent = ""
		s.Parameters = nil
		s.SearchFilters = nil
		s.WorkflowView = nil
		s.RetrievalResult = nil
		s.RetrievalError = ""
		s.RetrievalRan = false
		s.RetrievalCached = false
		s.Continuation = false
		s.FinalResponse = ""
		s.Err = ""
	}
	if p.Intent != nil {
		s.Intent = *p.Intent
	}
	if p.Parameters != nil {
		s.Parameters = p.Parameters
	}
	if p.SearchFilters != nil {
		s.SearchFilters = p.SearchFilters
	}
	if p.WorkflowName != nil {
		s.WorkflowName = *p.WorkflowName
	}
	if p.WorkflowStep != nil {
		s.WorkflowStep = *p.WorkflowStep
	}
	if p.WorkflowContext != nil {
		s.WorkflowContext = p.WorkflowContext
	}
	if p.WorkflowView != nil {
		s.WorkflowView = p.WorkflowView
	}
	if p.RetrievalResult != nil {
		s.RetrievalResult = p.RetrievalResult
	}
	if p.RetrievalError != nil {
		s.RetrievalError = *p.RetrievalError
	}
	if p.RetrievalRan != nil {
		s.RetrievalRan = *p.RetrievalRan
	}
	if p.RetrievalCached != nil {
		s.RetrievalCached = *p.RetrievalCached
	}
	if p.LastQuery != nil {
		s.LastQuery = *p.LastQuery
	}
	if p.PaginationOffset != nil {
		s.PaginationOffset = *p.PaginationOffset
	}
	if p.HasMoreResults != nil {
		s.HasMoreResults = *p.HasMoreResults
	}
	if p.Continuation != nil {
		s.Continuation = *p.Continuation
	}
	if p.FinalResponse != nil {
		s.FinalResponse = *p.FinalResponse
	}
	if p.ProviderUsed != nil {
		s.ProviderUsed = *p.ProviderUsed
	}
	if p.Err != nil {
		s.Err = *p.Err
	}
}

// Pointer helpers for building patches.

func ptr[T any](v T) *T { return &v }
