package workflow

import "context"

// HelpWorkflow is a stateless one-shot: any entry immediately ends with a
// categorized menu of what the assistant can do.
type HelpWorkflow struct{}

var _ Workflow = &HelpWorkflow{}

func NewHelpWorkflow() *HelpWorkflow {
	return &HelpWorkflow{}
}

func (w *HelpWorkflow) Name() string {
	return "help"
}

func (w *HelpWorkflow) Step(ctx context.Context, req StepRequest) (*StepResult, error) {
	categories := []ViewCategory{
		{
			Title: "⚡ Quick Actions",
			Options: []string{
				"Create a new schedule",
				"Update task status",
			},
		},
		{
			Title: "📊 Insights & Reports",
			Options: []string{
				"Show pending tasks",
				"List all facilities",
				"Recent completions summary",
			},
		},
		{
			Title: "🔍 Search",
			Options: []string{
				"Find a specific task",
				"Search for facility logs",
			},
		},
	}

	// Flattened list for simple UI clients.
	flat := make([]string, 0)
	for _, c := range categories {
		flat = append(flat, c.Options...)
	}

	return &StepResult{
		WorkflowStep: StepEnd,
		Context:      req.Context,
		View: View{
			Type: ViewTypeMenu,
			Payload: ViewPayload{
				Text:       "Hello! I am your Facility Operations Assistant. Here's a quick guide to what I can do for you:",
				Categories: categories,
				Options:    flat,
			},
		},
	}, nil
}
