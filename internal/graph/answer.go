package graph

import (
	"context"

	"github.com/kataras/golog"

	"github.com/Divas-Gupta30/support-triage/internal/llm"
)

func (n *suggestionNodes) generateAnswer(ctx context.Context, s SuggestionState) (SuggestionUpdate, error) {
	golog.Info("SUGGESTION_GRAPH: Generating answer...")
	prompt, err := render(generateAnswerPrompt, map[string]any{
		"context":  joinContent(s.Context, "\n\n"),
		"question": s.Question,
	})
	if err != nil {
		return SuggestionUpdate{}, err
	}
	answer, err := llm.CompleteClean(ctx, n.llm, prompt)
	if err != nil {
		return SuggestionUpdate{}, err
	}
	return SuggestionUpdate{}.WithAnswer(answer, RouteVectorstore), nil
}

func (n *suggestionNodes) generateGenericAnswer(ctx context.Context, s SuggestionState) (SuggestionUpdate, error) {
	golog.Info("SUGGESTION_GRAPH: Generating generic answer...")
	prompt, err := render(genericAnswerPrompt, map[string]any{"question": s.Question})
	if err != nil {
		return SuggestionUpdate{}, err
	}
	answer, err := llm.CompleteClean(ctx, n.llm, prompt)
	if err != nil {
		return SuggestionUpdate{}, err
	}
	return SuggestionUpdate{}.WithAnswer(answer, RouteGeneric), nil
}

func fallbackAnswerNode(context.Context, SuggestionState) (SuggestionUpdate, error) {
	golog.Info("SUGGESTION_GRAPH: Generating fallback answer...")
	return SuggestionUpdate{}.WithAnswer(fallbackAnswer, RouteVectorstore), nil
}
