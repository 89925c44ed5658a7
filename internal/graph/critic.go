package graph

import (
	"context"

	"github.com/kataras/golog"

	"github.com/Divas-Gupta30/support-triage/internal/llm"
)

// checkHallucination asks whether the answer is supported by the context.
func (n *suggestionNodes) checkHallucination(ctx context.Context, s SuggestionState) (SuggestionUpdate, error) {
	golog.Info("SUGGESTION_GRAPH: Checking for hallucinations...")
	prompt, err := render(hallucinationPrompt, map[string]any{
		"context": joinContent(s.Context, "\n\n"),
		"answer":  s.Answer,
	})
	if err != nil {
		return SuggestionUpdate{}, err
	}
	out, err := llm.CompleteClean(ctx, n.llm, prompt)
	if err != nil {
		return SuggestionUpdate{}, err
	}
	return SuggestionUpdate{}.WithHallucinationCheck(ParseHallucinationCheck(out)), nil
}

func handleHallucinationNode(context.Context, SuggestionState) (SuggestionUpdate, error) {
	golog.Warn("SUGGESTION_GRAPH: Handling hallucination...")
	return SuggestionUpdate{}.WithAnswer(hallucinationAnswer, RouteVectorstore), nil
}
