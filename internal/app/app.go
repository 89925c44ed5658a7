package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kataras/golog"

	"github.com/Divas-Gupta30/support-triage/internal/graph"
	"github.com/Divas-Gupta30/support-triage/internal/llm"
)

// ErrNotInitialized is returned when a workflow was never built, typically
// because startup could not reach one of its backends.
var ErrNotInitialized = errors.New("system not initialized")

// Pinger reports whether the knowledge base is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the ports both workflows are built from.
type Deps struct {
	LLM       llm.Completer
	Retriever graph.Retriever
	Tickets   graph.TicketStore
	IDs       graph.IDGenerator
	Health    Pinger
}

// Components holds the compiled workflows. A nil *Components, or one whose
// graphs failed to build, answers every call with ErrNotInitialized.
type Components struct {
	suggestion *graph.SuggestionGraph
	triage     *graph.TriageGraph
	health     Pinger
}

// New compiles both workflows. A workflow that fails to compile is left nil
// and logged; the other one stays usable.
func New(deps Deps, wf graph.WorkflowConfig) *Components {
	c := &Components{health: deps.Health}

	sg, err := graph.NewSuggestionGraph(deps.LLM, deps.Retriever, wf)
	if err != nil {
		golog.Errorf("Failed to build suggestion workflow: %v", err)
	} else {
		c.suggestion = sg
		logUnreachable("suggestion", sg.Unreachable())
	}

	tg, err := graph.NewTriageGraph(graph.TriageDeps{
		LLM:       deps.LLM,
		Retriever: deps.Retriever,
		Store:     deps.Tickets,
		IDs:       deps.IDs,
	}, wf)
	if err != nil {
		golog.Errorf("Failed to build triage workflow: %v", err)
	} else {
		c.triage = tg
		logUnreachable("triage", tg.Unreachable())
	}
	return c
}

func logUnreachable(workflow string, nodes []string) {
	if len(nodes) > 0 {
		golog.Infof("%s workflow: nodes without an inbound edge: %s", workflow, strings.Join(nodes, ", "))
	}
}

// Question renders the text the suggestion workflow answers.
func Question(subject, description string) string {
	return fmt.Sprintf("Subject: %s\nDescription: %s", subject, description)
}

// Suggest runs the suggestion workflow and returns the answer and its route.
func (c *Components) Suggest(ctx context.Context, subject, description string) (string, graph.Route, error) {
	if c == nil || c.suggestion == nil {
		return "", "", ErrNotInitialized
	}
	final, err := c.suggestion.Invoke(ctx, graph.SuggestionState{Question: Question(subject, description)})
	if err != nil {
		return "", "", err
	}
	return final.Answer, final.Route, nil
}

// CreateTicket runs the triage workflow and returns the new ticket ID.
func (c *Components) CreateTicket(ctx context.Context, subject, description, email string) (string, error) {
	if c == nil || c.triage == nil {
		return "", ErrNotInitialized
	}
	final, err := c.triage.Invoke(ctx, graph.TriageState{
		Subject:     subject,
		Description: description,
		Email:       email,
	})
	if err != nil {
		return "", err
	}
	return final.TicketID, nil
}

// Ping checks the knowledge base. Components without a health check are
// always healthy once built.
func (c *Components) Ping(ctx context.Context) error {
	if c == nil {
		return ErrNotInitialized
	}
	if c.health == nil {
		return nil
	}
	return c.health.Ping(ctx)
}
