package graph

import (
	"context"
	"strings"
)

// Passage is one unit of retrieved context. Its identity is Content.
type Passage struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Retriever returns passages similar to query, best match first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Passage, error)
}

// TicketStore durably appends a ticket passage.
type TicketStore interface {
	Append(ctx context.Context, p Passage) error
}

// Relevance is the outcome of document grading.
type Relevance string

const (
	RelevanceYes Relevance = "yes"
	RelevanceNo  Relevance = "no"
)

// ParseRelevance maps grader output to a Relevance. Any text containing "yes"
// (case-insensitive) is relevant; everything else, including empty or
// off-vocabulary text, is not.
func ParseRelevance(text string) Relevance {
	if strings.Contains(strings.ToLower(text), "yes") {
		return RelevanceYes
	}
	return RelevanceNo
}

// HallucinationCheck is the outcome of the grounding check.
type HallucinationCheck string

const (
	Hallucination   HallucinationCheck = "hallucination"
	NoHallucination HallucinationCheck = "no_hallucination"
)

// ParseHallucinationCheck maps checker output to a verdict. Only text that
// contains "no_hallucination" counts as grounded, so verbose answers are
// tolerated and empty output is treated as a hallucination.
func ParseHallucinationCheck(text string) HallucinationCheck {
	if strings.Contains(strings.ToLower(text), string(NoHallucination)) {
		return NoHallucination
	}
	return Hallucination
}

// Route tags the branch that produced an answer.
type Route string

const (
	RouteVectorstore Route = "vectorstore"
	RouteGeneric     Route = "generic"
)

// ParseRoute maps question-router output to a Route, defaulting to the
// vector store.
func ParseRoute(text string) Route {
	if strings.Contains(strings.ToLower(text), string(RouteGeneric)) {
		return RouteGeneric
	}
	return RouteVectorstore
}

// SuggestionState is threaded through the suggestion workflow.
type SuggestionState struct {
	Question           string
	Datasource         Route
	GeneratedQuestions []string
	Context            []Passage
	Relevance          Relevance
	Answer             string
	HallucinationCheck HallucinationCheck
	Route              Route
}

type suggestionField uint8

const (
	fieldDatasource suggestionField = 1 << iota
	fieldGeneratedQuestions
	fieldContext
	fieldRelevance
	fieldAnswer
	fieldHallucinationCheck
)

// SuggestionUpdate records the fields a suggestion node produces. The zero
// value changes nothing.
type SuggestionUpdate struct {
	fields             suggestionField
	datasource         Route
	generatedQuestions []string
	context            []Passage
	relevance          Relevance
	answer             string
	route              Route
	hallucinationCheck HallucinationCheck
}

func (u SuggestionUpdate) WithDatasource(r Route) SuggestionUpdate {
	u.datasource, u.fields = r, u.fields|fieldDatasource
	return u
}

func (u SuggestionUpdate) WithGeneratedQuestions(qs []string) SuggestionUpdate {
	u.generatedQuestions, u.fields = qs, u.fields|fieldGeneratedQuestions
	return u
}

func (u SuggestionUpdate) WithContext(ps []Passage) SuggestionUpdate {
	u.context, u.fields = ps, u.fields|fieldContext
	return u
}

func (u SuggestionUpdate) WithRelevance(r Relevance) SuggestionUpdate {
	u.relevance, u.fields = r, u.fields|fieldRelevance
	return u
}

// WithAnswer sets the answer and the route that produced it. The two are
// never set separately.
func (u SuggestionUpdate) WithAnswer(answer string, route Route) SuggestionUpdate {
	u.answer, u.route, u.fields = answer, route, u.fields|fieldAnswer
	return u
}

func (u SuggestionUpdate) WithHallucinationCheck(v HallucinationCheck) SuggestionUpdate {
	u.hallucinationCheck, u.fields = v, u.fields|fieldHallucinationCheck
	return u
}

// MergeSuggestion overwrites exactly the fields u carries.
func MergeSuggestion(s SuggestionState, u SuggestionUpdate) SuggestionState {
	if u.fields&fieldDatasource != 0 {
		s.Datasource = u.datasource
	}
	if u.fields&fieldGeneratedQuestions != 0 {
		s.GeneratedQuestions = u.generatedQuestions
	}
	if u.fields&fieldContext != 0 {
		s.Context = u.context
	}
	if u.fields&fieldRelevance != 0 {
		s.Relevance = u.relevance
	}
	if u.fields&fieldAnswer != 0 {
		s.Answer, s.Route = u.answer, u.route
	}
	if u.fields&fieldHallucinationCheck != 0 {
		s.HallucinationCheck = u.hallucinationCheck
	}
	return s
}

// TriageState is threaded through the triage workflow.
type TriageState struct {
	Subject        string
	Description    string
	Email          string
	Classification string
	Priority       string
	TeamSolution   string
	TicketID       string
}

type triageField uint8

const (
	fieldClassification triageField = 1 << iota
	fieldPriority
	fieldTeamSolution
	fieldTicketID
)

// TriageUpdate records the fields a triage node produces.
type TriageUpdate struct {
	fields         triageField
	classification string
	priority       string
	teamSolution   string
	ticketID       string
}

func (u TriageUpdate) WithClassification(c string) TriageUpdate {
	u.classification, u.fields = c, u.fields|fieldClassification
	return u
}

func (u TriageUpdate) WithPriority(p string) TriageUpdate {
	u.priority, u.fields = p, u.fields|fieldPriority
	return u
}

func (u TriageUpdate) WithTeamSolution(s string) TriageUpdate {
	u.teamSolution, u.fields = s, u.fields|fieldTeamSolution
	return u
}

func (u TriageUpdate) WithTicketID(id string) TriageUpdate {
	u.ticketID, u.fields = id, u.fields|fieldTicketID
	return u
}

// MergeTriage overwrites exactly the fields u carries.
func MergeTriage(s TriageState, u TriageUpdate) TriageState {
	if u.fields&fieldClassification != 0 {
		s.Classification = u.classification
	}
	if u.fields&fieldPriority != 0 {
		s.Priority = u.priority
	}
	if u.fields&fieldTeamSolution != 0 {
		s.TeamSolution = u.teamSolution
	}
	if u.fields&fieldTicketID != 0 {
		s.TicketID = u.ticketID
	}
	return s
}
