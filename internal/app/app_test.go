package app

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divas-Gupta30/support-triage/internal/graph"
)

type markerLLM struct {
	mu      sync.Mutex
	replies map[string]string
	err     error
	prompts []string
}

func (m *markerLLM) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	for marker, reply := range m.replies {
		if strings.Contains(prompt, marker) {
			return reply, nil
		}
	}
	return "", nil
}

type staticRetriever []graph.Passage

func (s staticRetriever) Retrieve(context.Context, string) ([]graph.Passage, error) {
	return s, nil
}

type memoryTickets struct {
	stored []graph.Passage
}

func (m *memoryTickets) Append(_ context.Context, p graph.Passage) error {
	m.stored = append(m.stored, p)
	return nil
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func happyLLM() *markerLLM {
	return &markerLLM{replies: map[string]string{
		"Generate 5 different versions":       "How do I reset my password?\nPassword reset link expired",
		"Grade the relevance":                 "<think>looks related</think>yes",
		"Check if the 'Answer' is supported":  "no_hallucination",
		"You are a helpful AI assistant for":  "Use the self-service portal to reset it.",
		"Classify the ticket":                 "Login & Authentication",
		"Assess ticket priority":              "High",
		"For an internal support team member": "Check SSO token expiry.",
	}}
}

func TestSuggest(t *testing.T) {
	model := happyLLM()
	c := New(Deps{
		LLM:       model,
		Retriever: staticRetriever{{Content: "Password resets are done in the portal."}},
		Tickets:   &memoryTickets{},
	}, graph.WorkflowConfig{})

	answer, route, err := c.Suggest(context.Background(), "Login", "reset link fails")
	require.NoError(t, err)
	assert.Equal(t, "Use the self-service portal to reset it.", answer)
	assert.Equal(t, graph.RouteVectorstore, route)
	assert.Contains(t, model.prompts[0], "Subject: Login\nDescription: reset link fails")
}

func TestSuggestFallsBackWithoutRelevantContext(t *testing.T) {
	model := happyLLM()
	model.replies["Grade the relevance"] = "no"
	c := New(Deps{LLM: model, Retriever: staticRetriever{{Content: "Office opening hours"}}, Tickets: &memoryTickets{}}, graph.WorkflowConfig{})

	answer, route, err := c.Suggest(context.Background(), "Printer", "jammed")
	require.NoError(t, err)
	assert.Contains(t, answer, "raise a formal ticket")
	assert.Equal(t, graph.RouteVectorstore, route)
}

func TestCreateTicket(t *testing.T) {
	tickets := &memoryTickets{}
	c := New(Deps{LLM: happyLLM(), Retriever: staticRetriever{}, Tickets: tickets, IDs: &graph.MonotonicIDs{}}, graph.WorkflowConfig{})

	id, err := c.CreateTicket(context.Background(), "Cannot log in", "SSO loop", "user@example.com")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^TICKET-\d+$`), id)
	require.Len(t, tickets.stored, 1)
	assert.Equal(t, id, tickets.stored[0].Metadata["ticket_id"])
	assert.Equal(t, "Open", tickets.stored[0].Metadata["status"])
	assert.Equal(t, "High", tickets.stored[0].Metadata["priority"])
}

func TestWorkflowErrorsPropagate(t *testing.T) {
	boom := errors.New("ollama down")
	c := New(Deps{LLM: &markerLLM{err: boom}, Retriever: staticRetriever{}, Tickets: &memoryTickets{}}, graph.WorkflowConfig{})

	_, _, err := c.Suggest(context.Background(), "s", "d")
	assert.ErrorIs(t, err, boom)
	var nodeErr *graph.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, graph.NodeExpandQuestion, nodeErr.Node)

	_, err = c.CreateTicket(context.Background(), "s", "d", "e")
	assert.ErrorIs(t, err, boom)
}

func TestNotInitialized(t *testing.T) {
	var c *Components

	_, _, err := c.Suggest(context.Background(), "s", "d")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = c.CreateTicket(context.Background(), "s", "d", "e")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, c.Ping(context.Background()), ErrNotInitialized)

	_, _, err = (&Components{}).Suggest(context.Background(), "s", "d")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestPing(t *testing.T) {
	down := errors.New("connection refused")
	c := New(Deps{
		LLM:       happyLLM(),
		Retriever: staticRetriever{},
		Tickets:   &memoryTickets{},
		Health:    pingFunc(func(context.Context) error { return down }),
	}, graph.WorkflowConfig{})
	assert.ErrorIs(t, c.Ping(context.Background()), down)

	c = New(Deps{LLM: happyLLM(), Retriever: staticRetriever{}, Tickets: &memoryTickets{}}, graph.WorkflowConfig{})
	assert.NoError(t, c.Ping(context.Background()))
}
