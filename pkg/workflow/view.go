package workflow

import "context"

const (
	ViewTypeMenu  = "menu"
	ViewTypeInput = "input"
	ViewTypeEnd   = "end"
)

// StepEnd marks a finished workflow. A persisted state with this step is
// treated as inactive.
const StepEnd = "end"

type ViewCategory struct {
	Title   string   `json:"title"`
	Options []string `json:"options"`
}

type ViewPayload struct {
	Text       string         `json:"text"`
	Options    []string       `json:"options,omitempty"`
	Categories []ViewCategory `json:"categories,omitempty"`
}

// View is what a step renders back to the user.
type View struct {
	Type    string      `json:"type"`
	Payload ViewPayload `json:"payload"`
}

// StepRequest carries everything a step transition needs. Identity fields come
// from the verified session, never from client input.
type StepRequest struct {
	CurrentStep string
	Input       string
	UserId      int64
	UserName    string
	CompanyId   int64
	Context     Envelope
}

// StepResult is the outcome of one transition: the next step, the rendered
// view, and the context to persist for the following turn.
type StepResult struct {
	WorkflowStep string
	View         View
	Context      Envelope
}

// Workflow is one named guided interaction. Step must re-render the current
// step on unresolvable input instead of advancing; the only error it may
// return is a failed terminal record write.
type Workflow interface {
	Name() string
	Step(ctx context.Context, req StepRequest) (*StepResult, error)
}
