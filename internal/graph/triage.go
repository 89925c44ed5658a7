package graph

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/kataras/golog"

	"github.com/Divas-Gupta30/support-triage/internal/llm"
)

// Triage workflow node names.
const (
	NodeClassify             = "classify"
	NodePrioritize           = "prioritize"
	NodeGenerateTeamSolution = "generate_team_solution"
	NodeStoreTicket          = "store_ticket"
)

// TriageGraph is the compiled triage workflow.
type TriageGraph = Runnable[TriageState, TriageUpdate]

type triageNodes struct {
	llm       llm.Completer
	retriever Retriever
	store     TicketStore
	ids       IDGenerator
	now       func() time.Time
}

// TriageDeps are the ports the triage workflow talks to. IDs and Now default
// to UnixSecondIDs and time.Now.
type TriageDeps struct {
	LLM       llm.Completer
	Retriever Retriever
	Store     TicketStore
	IDs       IDGenerator
	Now       func() time.Time
}

// NewTriageGraph wires classify -> prioritize -> generate_team_solution ->
// store_ticket -> END.
func NewTriageGraph(deps TriageDeps, cfg WorkflowConfig) (*TriageGraph, error) {
	n := &triageNodes{
		llm:       deps.LLM,
		retriever: deps.Retriever,
		store:     deps.Store,
		ids:       deps.IDs,
		now:       deps.Now,
	}
	if n.ids == nil {
		n.ids = UnixSecondIDs{}
	}
	if n.now == nil {
		n.now = time.Now
	}

	g := NewStateGraph(MergeTriage)
	g.AddNode(NodeClassify, "Pick a ticket category", n.classify)
	g.AddNode(NodePrioritize, "Assess business impact", n.prioritize)
	g.AddNode(NodeGenerateTeamSolution, "Summarise fixes from similar tickets", n.generateTeamSolution)
	g.AddNode(NodeStoreTicket, "Persist the ticket", n.storeTicket)

	g.SetEntryPoint(NodeClassify)
	g.AddEdge(NodeClassify, NodePrioritize)
	g.AddEdge(NodePrioritize, NodeGenerateTeamSolution)
	g.AddEdge(NodeGenerateTeamSolution, NodeStoreTicket)
	g.AddEdge(NodeStoreTicket, END)

	return g.Compile(cfg.compileOptions()...)
}

// classify stores the model's category verbatim, even when it is not one of
// Categories.
func (n *triageNodes) classify(ctx context.Context, s TriageState) (TriageUpdate, error) {
	golog.Info("TRIAGE_GRAPH: Classifying ticket...")
	prompt, err := render(classifyPrompt, map[string]any{
		"categories":  strings.Join(Categories, ", "),
		"subject":     s.Subject,
		"description": s.Description,
	})
	if err != nil {
		return TriageUpdate{}, err
	}
	out, err := llm.CompleteClean(ctx, n.llm, prompt)
	if err != nil {
		return TriageUpdate{}, err
	}
	if !slices.Contains(Categories, out) {
		golog.Warnf("TRIAGE_GRAPH: classification %q is not a known category, storing as is", out)
	}
	return TriageUpdate{}.WithClassification(out), nil
}

func (n *triageNodes) prioritize(ctx context.Context, s TriageState) (TriageUpdate, error) {
	golog.Info("TRIAGE_GRAPH: Assessing priority...")
	prompt, err := render(priorityPrompt, map[string]any{
		"subject":     s.Subject,
		"description": s.Description,
	})
	if err != nil {
		return TriageUpdate{}, err
	}
	out, err := llm.CompleteClean(ctx, n.llm, prompt)
	if err != nil {
		return TriageUpdate{}, err
	}
	if !slices.Contains(Priorities, out) {
		golog.Warnf("TRIAGE_GRAPH: priority %q is not High/Medium/Low, storing as is", out)
	}
	return TriageUpdate{}.WithPriority(out), nil
}
