package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/kataras/golog"

	"github.com/Divas-Gupta30/support-triage/internal/llm"
)

func (n *suggestionNodes) routeQuestion(ctx context.Context, s SuggestionState) (SuggestionUpdate, error) {
	prompt, err := render(routeQuestionPrompt, map[string]any{"question": s.Question})
	if err != nil {
		return SuggestionUpdate{}, err
	}
	out, err := llm.CompleteClean(ctx, n.llm, prompt)
	if err != nil {
		return SuggestionUpdate{}, err
	}
	route := ParseRoute(out)
	golog.Infof("SUGGESTION_GRAPH: question routed to %s", route)
	return SuggestionUpdate{}.WithDatasource(route), nil
}

// expandQuestion asks for alternative phrasings. Blank lines are dropped and
// a short list is passed on as is.
func (n *suggestionNodes) expandQuestion(ctx context.Context, s SuggestionState) (SuggestionUpdate, error) {
	golog.Info("SUGGESTION_GRAPH: Expanding question...")
	prompt, err := render(expandQuestionPrompt, map[string]any{"question": s.Question})
	if err != nil {
		return SuggestionUpdate{}, err
	}
	out, err := llm.CompleteClean(ctx, n.llm, prompt)
	if err != nil {
		return SuggestionUpdate{}, err
	}

	questions := make([]string, 0, 5)
	for _, line := range strings.Split(out, "\n") {
		if q := strings.TrimSpace(line); q != "" {
			questions = append(questions, q)
		}
	}
	return SuggestionUpdate{}.WithGeneratedQuestions(questions), nil
}

func (n *suggestionNodes) retrieveDocuments(ctx context.Context, s SuggestionState) (SuggestionUpdate, error) {
	golog.Info("SUGGESTION_GRAPH: Retrieving documents...")
	var all []Passage
	for _, q := range s.GeneratedQuestions {
		docs, err := n.retriever.Retrieve(ctx, q)
		if err != nil {
			return SuggestionUpdate{}, fmt.Errorf("retrieving for %q: %w", q, err)
		}
		all = append(all, docs...)
	}
	return SuggestionUpdate{}.WithContext(DedupeByContent(all)), nil
}

// DedupeByContent collapses passages sharing the same content. The last
// passage seen for a content string wins; it keeps the slot of the first.
func DedupeByContent(passages []Passage) []Passage {
	slot := make(map[string]int, len(passages))
	out := make([]Passage, 0, len(passages))
	for _, p := range passages {
		if i, ok := slot[p.Content]; ok {
			out[i] = p
			continue
		}
		slot[p.Content] = len(out)
		out = append(out, p)
	}
	return out
}

func joinContent(passages []Passage, sep string) string {
	parts := make([]string, len(passages))
	for i, p := range passages {
		parts[i] = p.Content
	}
	return strings.Join(parts, sep)
}
