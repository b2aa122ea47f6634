package screening

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/go-agents/pkg/agent"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/placerhq/placer/internal/placements"
	"github.com/placerhq/placer/pkg/formatting"
)

type answerResponse struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

const evaluatePrompt = `You are evaluating a candidate's screening test answer
for a hiring pipeline. Score the answer from 0 (no relevant content) to 100
(complete, correct, and well articulated). Respond with a JSON object:

{"score": <0-100 integer>, "rationale": "<one or two sentences>"}

Question: %s

Answer: %s`

// EvaluateNode returns a state node that scores each question/answer pair
// using bounded errgroup concurrency. Each goroutine creates its own agent
// and scores one answer independently; aggregation is deferred to the
// finalize node.
func EvaluateNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		questions, err := extractQuestions(s)
		if err != nil {
			return s, fmt.Errorf("evaluate: %w", err)
		}

		es, err := extractEvalState(s)
		if err != nil {
			return s, fmt.Errorf("evaluate: %w", err)
		}

		if err := evaluateAnswers(ctx, rt, questions, es); err != nil {
			return s, fmt.Errorf("evaluate: %w", err)
		}

		rt.Logger.InfoContext(
			ctx, "evaluate node complete",
			"question_count", len(es.Questions),
		)

		s = s.Set(KeyEvalState, *es)
		return s, nil
	})
}

func evaluateAnswers(
	ctx context.Context,
	rt *Runtime,
	questions []placements.QuestionAnswer,
	es *EvaluationState,
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(questions)))

	for i := range questions {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			a, err := agent.New(&rt.Agent)
			if err != nil {
				return fmt.Errorf("question %d: create agent: %w", i+1, err)
			}

			prompt := fmt.Sprintf(evaluatePrompt, questions[i].Question, questions[i].Answer)

			resp, err := a.Chat(gctx, prompt)
			if err != nil {
				return fmt.Errorf("question %d: chat call: %w", i+1, err)
			}

			parsed, err := formatting.Parse[answerResponse](resp.Content())
			if err != nil {
				return fmt.Errorf("question %d: parse response: %w", i+1, err)
			}

			es.Questions[i] = QuestionScore{
				Question:  questions[i].Question,
				Answer:    questions[i].Answer,
				Score:     clampScore(parsed.Score),
				Rationale: parsed.Rationale,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrEvaluateFailed, err)
	}

	return nil
}

// Aggregate reduces per-question scores to the overall evaluation: the mean
// score and a rationale that summarizes each question's assessment.
func Aggregate(scores []QuestionScore) (int, string) {
	if len(scores) == 0 {
		return 0, "no questions evaluated"
	}

	total := 0
	lines := make([]string, 0, len(scores))

	for i, qs := range scores {
		total += qs.Score
		lines = append(lines, fmt.Sprintf("Q%d (%d/100): %s", i+1, qs.Score, qs.Rationale))
	}

	return clampScore(total / len(scores)), strings.Join(lines, "\n")
}

func clampScore(score int) int {
	return max(min(score, 100), 0)
}

func workerCount(questionCount int) int {
	return max(min(runtime.NumCPU(), questionCount), 1)
}
