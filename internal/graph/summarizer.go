package graph

import (
	"context"
	"fmt"

	"github.com/kataras/golog"

	"github.com/Divas-Gupta30/support-triage/internal/llm"
)

// generateTeamSolution retrieves tickets similar to the new one and asks for
// an internal-facing summary of likely fixes.
func (n *triageNodes) generateTeamSolution(ctx context.Context, s TriageState) (TriageUpdate, error) {
	golog.Info("TRIAGE_GRAPH: Generating team-facing solution...")
	query := fmt.Sprintf("Subject: %s\nDescription: %s", s.Subject, s.Description)
	similar, err := n.retriever.Retrieve(ctx, query)
	if err != nil {
		return TriageUpdate{}, fmt.Errorf("retrieving similar tickets: %w", err)
	}

	prompt, err := render(teamSolutionPrompt, map[string]any{
		"context":     joinContent(similar, "\n\n---\n\n"),
		"subject":     s.Subject,
		"description": s.Description,
	})
	if err != nil {
		return TriageUpdate{}, err
	}
	solution, err := llm.CompleteClean(ctx, n.llm, prompt)
	if err != nil {
		return TriageUpdate{}, err
	}
	return TriageUpdate{}.WithTeamSolution(solution), nil
}
