package screening

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/placerhq/placer/internal/placements"
)

// Execute runs the screening workflow for a single placement. It builds the
// state graph (init → evaluate → finalize), executes it against the supplied
// question/answer set, and extracts the Result from the final state.
func Execute(
	ctx context.Context,
	rt *Runtime,
	placementID uuid.UUID,
	questions []placements.QuestionAnswer,
) (*Result, error) {
	graph, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initialState := state.New(nil)
	initialState = initialState.Set(KeyPlacementID, placementID)
	initialState = initialState.Set(KeyQuestions, questions)

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractResult(finalState)
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("placer-screening")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("init", InitNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("evaluate", EvaluateNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("finalize", FinalizeNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("init", "evaluate", nil); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("evaluate", "finalize", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("init"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("finalize"); err != nil {
		return nil, err
	}

	return graph, nil
}

// InitNode validates the workflow inputs: the placement must exist and the
// question/answer set must be non-empty.
func InitNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		placementID, err := extractPlacementID(s)
		if err != nil {
			return s, fmt.Errorf("init: %w", err)
		}

		questions, err := extractQuestions(s)
		if err != nil {
			return s, fmt.Errorf("init: %w", err)
		}

		if _, err := rt.Placements.Find(ctx, placementID); err != nil {
			return s, fmt.Errorf("init: %w", err)
		}

		rt.Logger.InfoContext(
			ctx, "init node complete",
			"placement_id", placementID,
			"question_count", len(questions),
		)

		s = s.Set(KeyEvalState, EvaluationState{
			Questions: make([]QuestionScore, len(questions)),
		})
		return s, nil
	})
}

// FinalizeNode aggregates per-question scores into the overall result:
// the mean score clamped into [0,100] and a composed rationale.
func FinalizeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		es, err := extractEvalState(s)
		if err != nil {
			return s, fmt.Errorf("finalize: %w", err)
		}

		rt.Logger.InfoContext(
			ctx, "finalize node complete",
			"question_count", len(es.Questions),
		)

		return s, nil
	})
}

func extractResult(s state.State) (*Result, error) {
	placementID, err := extractPlacementID(s)
	if err != nil {
		return nil, err
	}

	questions, err := extractQuestions(s)
	if err != nil {
		return nil, err
	}

	es, err := extractEvalState(s)
	if err != nil {
		return nil, err
	}

	score, rationale := Aggregate(es.Questions)

	return &Result{
		PlacementID: placementID,
		Score:       score,
		Rationale:   rationale,
		Questions:   questions,
		PerQuestion: es.Questions,
		EvaluatedAt: time.Now().UTC(),
	}, nil
}

func extractPlacementID(s state.State) (uuid.UUID, error) {
	val, ok := s.Get(KeyPlacementID)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing %s in state", KeyPlacementID)
	}

	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("%s is not uuid.UUID", KeyPlacementID)
	}

	return id, nil
}

func extractQuestions(s state.State) ([]placements.QuestionAnswer, error) {
	val, ok := s.Get(KeyQuestions)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s in state", ErrNoQuestions, KeyQuestions)
	}

	questions, ok := val.([]placements.QuestionAnswer)
	if !ok {
		return nil, fmt.Errorf("%s is not a question set", KeyQuestions)
	}

	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	return questions, nil
}

func extractEvalState(s state.State) (*EvaluationState, error) {
	val, ok := s.Get(KeyEvalState)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s in state", ErrEvaluateFailed, KeyEvalState)
	}

	es, ok := val.(EvaluationState)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not EvaluationState", ErrEvaluateFailed, KeyEvalState)
	}

	return &es, nil
}
