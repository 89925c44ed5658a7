package graph

import (
	"context"
	"strings"
	"sync"
)

// scriptedLLM answers by the first rule whose marker appears in the prompt.
type scriptedLLM struct {
	mu      sync.Mutex
	rules   []rule
	prompts []string
}

type rule struct {
	marker string
	reply  func(prompt string) (string, error)
}

func (s *scriptedLLM) on(marker, reply string) *scriptedLLM {
	return s.onFunc(marker, func(string) (string, error) { return reply, nil })
}

func (s *scriptedLLM) onFunc(marker string, fn func(prompt string) (string, error)) *scriptedLLM {
	s.rules = append(s.rules, rule{marker: marker, reply: fn})
	return s
}

func (s *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	for _, r := range s.rules {
		if strings.Contains(prompt, r.marker) {
			return r.reply(prompt)
		}
	}
	return "", nil
}

func (s *scriptedLLM) count(marker string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.prompts {
		if strings.Contains(p, marker) {
			n++
		}
	}
	return n
}

const (
	markRoute    = "You are routing questions"
	markExpand   = "Generate 5 different versions"
	markGrade    = "Grade the relevance"
	markAnswer   = "You are a helpful AI assistant for Datel Group"
	markGeneric  = "in a maximum of 3 sentences"
	markCheck    = "Check if the 'Answer' is supported"
	markClassify = "Classify the ticket"
	markPriority = "Assess ticket priority"
	markSolution = "For an internal support team member"
)

type fakeRetriever struct {
	mu      sync.Mutex
	byQuery map[string][]Passage
	err     error
	queries []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, q string) ([]Passage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.byQuery[q], nil
}

type fakeStore struct {
	appended []Passage
	err      error
}

func (f *fakeStore) Append(_ context.Context, p Passage) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, p)
	return nil
}
