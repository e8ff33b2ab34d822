package workflow

import (
	"context"
	"fmt"
)

// Engine is the registry dispatching step calls to named workflows.
type Engine struct {
	registry map[string]Workflow
}

func NewEngine(workflows ...Workflow) *Engine {
	registry := make(map[string]Workflow, len(workflows))
	for _, wf := range workflows {
		registry[wf.Name()] = wf
	}
	return &Engine{registry: registry}
}

func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.registry))
	for name := range e.registry {
		names = append(names, name)
	}
	return names
}

func (e *Engine) Has(name string) bool {
	_, ok := e.registry[name]
	return ok
}

// GetNextStep runs one transition of the named workflow.
func (e *Engine) GetNextStep(ctx context.Context, workflowName string, req StepRequest) (*StepResult, error) {
	wf, ok := e.registry[workflowName]
	if !ok {
		return nil, fmt.Errorf("workflow '%s' not found", workflowName)
	}
	return wf.Step(ctx, req)
}
