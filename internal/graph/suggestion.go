package graph

import (
	"github.com/Divas-Gupta30/support-triage/internal/llm"
)

// Suggestion workflow node names.
const (
	NodeRouteQuestion         = "route_question"
	NodeExpandQuestion        = "expand_question"
	NodeRetrieveDocuments     = "retrieve_documents"
	NodeGradeDocuments        = "grade_documents"
	NodeGenerateAnswer        = "generate_answer"
	NodeGenerateGenericAnswer = "generate_generic_answer"
	NodeFallbackAnswer        = "fallback_answer"
	NodeCheckHallucination    = "check_hallucination"
	NodeHandleHallucination   = "handle_hallucination"
)

// WorkflowConfig carries the knobs shared by both workflow builders.
type WorkflowConfig struct {
	// GenericRouting puts route_question in front of the suggestion workflow
	// so that off-topic questions reach generate_generic_answer. Off by
	// default, which leaves generate_generic_answer unreachable.
	GenericRouting bool
	Observer       NodeObserver
	MaxSteps       int
}

func (c WorkflowConfig) compileOptions() []CompileOption {
	opts := []CompileOption{WithMaxSteps(c.MaxSteps)}
	if c.Observer != nil {
		opts = append(opts, WithObserver(c.Observer))
	}
	return opts
}

// SuggestionGraph is the compiled suggestion workflow.
type SuggestionGraph = Runnable[SuggestionState, SuggestionUpdate]

type suggestionNodes struct {
	llm       llm.Completer
	retriever Retriever
}

// NewSuggestionGraph wires the retrieval-augmented suggestion workflow:
//
//	expand_question -> retrieve_documents -> grade_documents
//	grade_documents -> generate_answer | fallback_answer
//	generate_answer -> check_hallucination -> END | handle_hallucination
func NewSuggestionGraph(completer llm.Completer, retriever Retriever, cfg WorkflowConfig) (*SuggestionGraph, error) {
	n := &suggestionNodes{llm: completer, retriever: retriever}

	g := NewStateGraph(MergeSuggestion)
	g.AddNode(NodeExpandQuestion, "Rewrite the question five ways", n.expandQuestion)
	g.AddNode(NodeRetrieveDocuments, "Retrieve passages for every rewrite", n.retrieveDocuments)
	g.AddNode(NodeGradeDocuments, "Grade passages until one is relevant", n.gradeDocuments)
	g.AddNode(NodeGenerateAnswer, "Answer from retrieved context", n.generateAnswer)
	g.AddNode(NodeGenerateGenericAnswer, "Answer without retrieval", n.generateGenericAnswer)
	g.AddNode(NodeFallbackAnswer, "Apologise and suggest a ticket", fallbackAnswerNode)
	g.AddNode(NodeCheckHallucination, "Check the answer against context", n.checkHallucination)
	g.AddNode(NodeHandleHallucination, "Replace an ungrounded answer", handleHallucinationNode)

	if cfg.GenericRouting {
		g.AddNode(NodeRouteQuestion, "Pick vector store or generic answer", n.routeQuestion)
		g.AddConditionalEdge(NodeRouteQuestion, DecideDatasource, map[string]string{
			NodeExpandQuestion:        NodeExpandQuestion,
			NodeGenerateGenericAnswer: NodeGenerateGenericAnswer,
		})
		g.SetEntryPoint(NodeRouteQuestion)
	} else {
		g.SetEntryPoint(NodeExpandQuestion)
	}

	g.AddEdge(NodeExpandQuestion, NodeRetrieveDocuments)
	g.AddEdge(NodeRetrieveDocuments, NodeGradeDocuments)
	g.AddConditionalEdge(NodeGradeDocuments, DecideToGenerate, map[string]string{
		NodeGenerateAnswer: NodeGenerateAnswer,
		NodeFallbackAnswer: NodeFallbackAnswer,
	})
	g.AddEdge(NodeGenerateAnswer, NodeCheckHallucination)
	g.AddConditionalEdge(NodeCheckHallucination, DecideAfterHallucinationCheck, map[string]string{
		NodeHandleHallucination: NodeHandleHallucination,
		END:                     END,
	})
	g.AddEdge(NodeGenerateGenericAnswer, END)
	g.AddEdge(NodeFallbackAnswer, END)
	g.AddEdge(NodeHandleHallucination, END)

	return g.Compile(cfg.compileOptions()...)
}

// DecideDatasource sends generic questions to generate_generic_answer.
func DecideDatasource(s SuggestionState) string {
	if s.Datasource == RouteGeneric {
		return NodeGenerateGenericAnswer
	}
	return NodeExpandQuestion
}

// DecideToGenerate routes to generate_answer only when grading said yes.
func DecideToGenerate(s SuggestionState) string {
	if s.Relevance == RelevanceYes {
		return NodeGenerateAnswer
	}
	return NodeFallbackAnswer
}

// DecideAfterHallucinationCheck ends the run for grounded answers.
func DecideAfterHallucinationCheck(s SuggestionState) string {
	if s.HallucinationCheck == NoHallucination {
		return END
	}
	return NodeHandleHallucination
}
