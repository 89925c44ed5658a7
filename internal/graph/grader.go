package graph

import (
	"context"

	"github.com/kataras/golog"

	"github.com/Divas-Gupta30/support-triage/internal/llm"
)

// gradeDocuments grades passages in retrieval order and stops at the first
// relevant one.
func (n *suggestionNodes) gradeDocuments(ctx context.Context, s SuggestionState) (SuggestionUpdate, error) {
	golog.Info("SUGGESTION_GRAPH: Grading documents...")
	relevance := RelevanceNo
	for _, doc := range s.Context {
		prompt, err := render(gradeDocumentPrompt, map[string]any{
			"document": doc.Content,
			"question": s.Question,
		})
		if err != nil {
			return SuggestionUpdate{}, err
		}
		out, err := llm.CompleteClean(ctx, n.llm, prompt)
		if err != nil {
			return SuggestionUpdate{}, err
		}
		if ParseRelevance(out) == RelevanceYes {
			relevance = RelevanceYes
			break
		}
	}
	return SuggestionUpdate{}.WithRelevance(relevance), nil
}
