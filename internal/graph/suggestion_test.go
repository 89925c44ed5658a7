package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginQuestion = "Subject: Cannot log in\nDescription: password reset fails"

func newSuggestion(t *testing.T, llm *scriptedLLM, r Retriever, cfg WorkflowConfig) *SuggestionGraph {
	t.Helper()
	g, err := NewSuggestionGraph(llm, r, cfg)
	require.NoError(t, err)
	return g
}

func TestExpandQuestionDropsBlankLines(t *testing.T) {
	llm := (&scriptedLLM{}).on(markExpand, "<think>let me think</think>\nHow do I reset my password?\n\n   \nWhy does login fail?\n")
	n := &suggestionNodes{llm: llm}

	u, err := n.expandQuestion(context.Background(), SuggestionState{Question: loginQuestion})
	require.NoError(t, err)
	s := MergeSuggestion(SuggestionState{}, u)
	assert.Equal(t, []string{"How do I reset my password?", "Why does login fail?"}, s.GeneratedQuestions)
	assert.Contains(t, llm.prompts[0], loginQuestion)
}

func TestRetrieveDocumentsOneCallPerQuestionAndDedupes(t *testing.T) {
	r := &fakeRetriever{byQuery: map[string][]Passage{
		"q1": {{Content: "reset via admin", Metadata: map[string]any{"from": "q1"}}, {Content: "clear cookies"}},
		"q2": {{Content: "reset via admin", Metadata: map[string]any{"from": "q2"}}},
		"q3": {{Content: "check SSO"}, {Content: "clear cookies"}},
	}}
	n := &suggestionNodes{retriever: r}

	u, err := n.retrieveDocuments(context.Background(), SuggestionState{GeneratedQuestions: []string{"q1", "q2", "q3"}})
	require.NoError(t, err)
	s := MergeSuggestion(SuggestionState{}, u)

	assert.Equal(t, []string{"q1", "q2", "q3"}, r.queries)
	require.Len(t, s.Context, 3)
	seen := map[string]bool{}
	for _, p := range s.Context {
		assert.False(t, seen[p.Content], "duplicate content %q", p.Content)
		seen[p.Content] = true
	}
	assert.Equal(t, "q2", s.Context[0].Metadata["from"], "last seen passage wins")
}

func TestRetrieveDocumentsPropagatesPortFailure(t *testing.T) {
	boom := errors.New("vector db down")
	n := &suggestionNodes{retriever: &fakeRetriever{err: boom}}

	_, err := n.retrieveDocuments(context.Background(), SuggestionState{GeneratedQuestions: []string{"q"}})
	assert.ErrorIs(t, err, boom)
}

func TestGradeDocumentsShortCircuits(t *testing.T) {
	llm := (&scriptedLLM{}).onFunc(markGrade, func(p string) (string, error) {
		if strings.Contains(p, "Document: P2") {
			return "<think>looks right</think>yes", nil
		}
		return "no", nil
	})
	n := &suggestionNodes{llm: llm}
	state := SuggestionState{
		Question: loginQuestion,
		Context:  []Passage{{Content: "P1"}, {Content: "P2"}, {Content: "P3"}},
	}

	u, err := n.gradeDocuments(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, RelevanceYes, MergeSuggestion(state, u).Relevance)
	assert.Equal(t, 2, llm.count(markGrade))
}

func TestGradeDocumentsEmptyContextIsIrrelevant(t *testing.T) {
	llm := &scriptedLLM{}
	n := &suggestionNodes{llm: llm}

	u, err := n.gradeDocuments(context.Background(), SuggestionState{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, RelevanceNo, MergeSuggestion(SuggestionState{}, u).Relevance)
	assert.Empty(t, llm.prompts)
}

func TestDecideToGenerate(t *testing.T) {
	assert.Equal(t, NodeGenerateAnswer, DecideToGenerate(SuggestionState{Relevance: RelevanceYes}))
	assert.Equal(t, NodeFallbackAnswer, DecideToGenerate(SuggestionState{Relevance: RelevanceNo}))
	assert.Equal(t, NodeFallbackAnswer, DecideToGenerate(SuggestionState{}))
}

func TestHallucinationRouting(t *testing.T) {
	tests := []struct {
		name     string
		response string
		next     string
		answer   string
	}{
		{"verbose grounded", "After review: no_hallucination, the answer matches.", END, "Reset it from the admin panel."},
		{"detected", "hallucination detected", NodeHandleHallucination, hallucinationAnswer},
		{"empty", "", NodeHandleHallucination, hallucinationAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.next, DecideAfterHallucinationCheck(SuggestionState{
				HallucinationCheck: ParseHallucinationCheck(tt.response),
			}))

			llm := (&scriptedLLM{}).
				on(markExpand, "how to reset password").
				on(markGrade, "yes").
				on(markAnswer, "Reset it from the admin panel.").
				on(markCheck, tt.response)
			r := &fakeRetriever{byQuery: map[string][]Passage{
				"how to reset password": {{Content: "Admins can reset passwords."}},
			}}
			g := newSuggestion(t, llm, r, WorkflowConfig{})

			out, err := g.Invoke(context.Background(), SuggestionState{Question: loginQuestion})
			require.NoError(t, err)
			assert.Equal(t, tt.answer, out.Answer)
			assert.Equal(t, RouteVectorstore, out.Route)
		})
	}
}

func TestSuggestionHappyPath(t *testing.T) {
	llm := (&scriptedLLM{}).
		on(markExpand, "q1\nq2\nq3\nq4\nq5").
		onFunc(markGrade, func(p string) (string, error) {
			if strings.Contains(p, "Document: SSO") {
				return "yes", nil
			}
			return "no", nil
		}).
		on(markAnswer, "<think>\ncontext says SSO\n</think>\nSign in through SSO, then reset the password.").
		on(markCheck, "<think>ok</think>No_Hallucination")
	r := &fakeRetriever{byQuery: map[string][]Passage{
		"q1": {{Content: "cookies"}},
		"q2": {{Content: "SSO"}},
		"q5": {{Content: "cookies"}},
	}}
	g := newSuggestion(t, llm, r, WorkflowConfig{})

	out, err := g.Invoke(context.Background(), SuggestionState{Question: loginQuestion})
	require.NoError(t, err)
	assert.Equal(t, loginQuestion, out.Question)
	assert.Len(t, out.GeneratedQuestions, 5)
	assert.Len(t, r.queries, 5)
	assert.Len(t, out.Context, 2)
	assert.Equal(t, RelevanceYes, out.Relevance)
	assert.Equal(t, NoHallucination, out.HallucinationCheck)
	assert.Equal(t, "Sign in through SSO, then reset the password.", out.Answer)
	assert.Equal(t, RouteVectorstore, out.Route)
	assert.Contains(t, llm.prompts[len(llm.prompts)-2], "cookies\n\nSSO")
}

func TestSuggestionIrrelevantQuestionFallsBack(t *testing.T) {
	llm := (&scriptedLLM{}).
		on(markExpand, "asdf\nqwerty").
		on(markGrade, "no")
	r := &fakeRetriever{byQuery: map[string][]Passage{
		"asdf":   {{Content: "billing FAQ"}, {Content: "export guide"}},
		"qwerty": {{Content: "export guide"}},
	}}
	g := newSuggestion(t, llm, r, WorkflowConfig{})

	out, err := g.Invoke(context.Background(), SuggestionState{Question: "Subject: \nDescription: "})
	require.NoError(t, err)
	assert.Equal(t, RelevanceNo, out.Relevance)
	assert.Equal(t, fallbackAnswer, out.Answer)
	assert.Equal(t, RouteVectorstore, out.Route)
	assert.Equal(t, 2, llm.count(markGrade))
	assert.Zero(t, llm.count(markAnswer))
	assert.Zero(t, llm.count(markCheck))
}

func TestSuggestionEmptyExpansionFallsBack(t *testing.T) {
	llm := (&scriptedLLM{}).on(markExpand, "<think>nothing to add</think>")
	r := &fakeRetriever{}
	g := newSuggestion(t, llm, r, WorkflowConfig{})

	out, err := g.Invoke(context.Background(), SuggestionState{Question: "?"})
	require.NoError(t, err)
	assert.Empty(t, out.GeneratedQuestions)
	assert.Empty(t, r.queries)
	assert.Equal(t, fallbackAnswer, out.Answer)
}

func TestSuggestionPortFailureAbortsRun(t *testing.T) {
	boom := errors.New("ollama unreachable")
	llm := (&scriptedLLM{}).onFunc(markExpand, func(string) (string, error) { return "", boom })
	g := newSuggestion(t, llm, &fakeRetriever{}, WorkflowConfig{})

	out, err := g.Invoke(context.Background(), SuggestionState{Question: loginQuestion})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, NodeExpandQuestion, nodeErr.Node)
	assert.Equal(t, SuggestionState{}, out)
}

func TestGenericAnswerUnreachableByDefault(t *testing.T) {
	g := newSuggestion(t, &scriptedLLM{}, &fakeRetriever{}, WorkflowConfig{})
	assert.Equal(t, []string{NodeGenerateGenericAnswer}, g.Unreachable())
}

func TestGenericRouting(t *testing.T) {
	llm := (&scriptedLLM{}).
		on(markRoute, "generic").
		on(markGeneric, "Paris is the capital of France.")
	r := &fakeRetriever{}
	g := newSuggestion(t, llm, r, WorkflowConfig{GenericRouting: true})
	assert.Empty(t, g.Unreachable())

	out, err := g.Invoke(context.Background(), SuggestionState{Question: "What is the capital of France?"})
	require.NoError(t, err)
	assert.Equal(t, RouteGeneric, out.Datasource)
	assert.Equal(t, RouteGeneric, out.Route)
	assert.Equal(t, "Paris is the capital of France.", out.Answer)
	assert.Zero(t, llm.count(markExpand))
	assert.Empty(t, r.queries)
}

func TestSuggestionGraphIsDeterministic(t *testing.T) {
	llm := (&scriptedLLM{}).
		on(markExpand, "q1\nq2").
		on(markGrade, "yes").
		on(markAnswer, "Use SSO.").
		on(markCheck, "no_hallucination")
	r := &fakeRetriever{byQuery: map[string][]Passage{"q1": {{Content: "SSO"}}, "q2": {{Content: "SSO"}}}}
	g := newSuggestion(t, llm, r, WorkflowConfig{})

	first, err := g.Invoke(context.Background(), SuggestionState{Question: loginQuestion})
	require.NoError(t, err)
	second, err := g.Invoke(context.Background(), SuggestionState{Question: loginQuestion})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
