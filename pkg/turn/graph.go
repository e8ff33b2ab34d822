package turn

import (
	"context"
)

// Graph wires the stages into one conditionally-routed traversal:
//
//	Understanding → {Retrieval | Workflow | Reply} → Reply → done
//
// Stage failures are absorbed into state at the stage boundary; the only
// error Run returns is a workflow terminal-write failure, which the caller
// must surface instead of a confirmation.
type Graph struct {
	understanding *UnderstandingStage
	retrieval     *RetrievalStage
	workflow      *WorkflowStage
	reply         *ReplyStage
}

func NewGraph(understanding *UnderstandingStage, retrieval *RetrievalStage, wf *WorkflowStage, reply *ReplyStage) *Graph {
	return &Graph{
		understanding: understanding,
		retrieval:     retrieval,
		workflow:      wf,
		reply:         reply,
	}
}

// Run executes one turn against the state, streaming reply tokens into emit.
func (g *Graph) Run(ctx context.Context, state *State, emit TokenSink) error {
	patch, err := g.understanding.Run(ctx, state)
	if err != nil {
		return err
	}
	patch.Apply(state)

	switch state.Intent {
	case IntentSql:
		patch, err = g.retrieval.Run(ctx, state)
		if err != nil {
			return err
		}
		patch.Apply(state)
	case IntentWorkflow:
		patch, err = g.workflow.Run(ctx, state)
		if err != nil {
			return err
		}
		patch.Apply(state)
	}

	patch, err = g.reply.Run(ctx, state, emit)
	if err != nil {
		return err
	}
	patch.Apply(state)

	return nil
}
