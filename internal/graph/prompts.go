package graph

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

const (
	fallbackAnswer      = "I'm sorry, I couldn't find relevant information to answer your question. Please raise a formal ticket for our support team."
	hallucinationAnswer = "I am having trouble generating a reliable answer. Please try rephrasing your question or raise a ticket for support."
)

// Categories is the closed set offered to the classifier.
var Categories = []string{
	"Login & Authentication",
	"Data & Export Issues",
	"Performance & Slowdowns",
	"Billing & Subscriptions",
	"General Inquiry",
}

// Priorities is the set offered to the prioritizer.
var Priorities = []string{"High", "Medium", "Low"}

var (
	routeQuestionPrompt = prompts.NewPromptTemplate(
		`You are routing questions for the Datel Group support desk. If the question is about Datel products, accounts, data, billing or support tickets, answer 'vectorstore'. If it is a general question unrelated to Datel, answer 'generic'.
Question: {{.question}}
Answer 'vectorstore' or 'generic':`,
		[]string{"question"},
	)

	expandQuestionPrompt = prompts.NewPromptTemplate(
		`You are a helpful AI assistant. Generate 5 different versions of the user's question to improve document retrieval. Provide these alternative questions separated by newlines. Original question: {{.question}}`,
		[]string{"question"},
	)

	gradeDocumentPrompt = prompts.NewPromptTemplate(
		`Grade the relevance of a retrieved document to a user question. If the question is gibberish, grade as 'no'. Grade 'yes' if relevant, otherwise 'no'.
Document: {{.document}}
Question: {{.question}}
Answer 'yes' or 'no':`,
		[]string{"document", "question"},
	)

	generateAnswerPrompt = prompts.NewPromptTemplate(
		`You are a helpful AI assistant for Datel Group. Use the provided context from past support tickets to answer the question.

Instructions:
- Your response must be concise, with a maximum of 4 sentences.
- Do NOT use markdown formatting like ##, ---, or **. Write in plain text.
- If the context is insufficient to answer, simply state that you could not find a specific solution and recommend raising a ticket.

Context: {{.context}}
Question: {{.question}}`,
		[]string{"context", "question"},
	)

	genericAnswerPrompt = prompts.NewPromptTemplate(
		`You are a helpful AI assistant. Answer the user's question concisely, in a maximum of 3 sentences.

Question: {{.question}}`,
		[]string{"question"},
	)

	hallucinationPrompt = prompts.NewPromptTemplate(
		`Check if the 'Answer' is supported by the 'Context'. Respond with 'no_hallucination' if it is, or 'hallucination' if it is not.
Context: {{.context}}
Answer: {{.answer}}
Respond with 'hallucination' or 'no_hallucination':`,
		[]string{"context", "answer"},
	)

	classifyPrompt = prompts.NewPromptTemplate(
		`Classify the ticket into one of these categories: {{.categories}}.
Subject: {{.subject}}, Description: {{.description}}
Return only the category name.`,
		[]string{"categories", "subject", "description"},
	)

	priorityPrompt = prompts.NewPromptTemplate(
		`Assess ticket priority as "High", "Medium", or "Low" based on business impact.
High: System down, financial impact, security.
Medium: Functionality impaired.
Low: General question.
Subject: {{.subject}}, Description: {{.description}}
Return only the priority level.`,
		[]string{"subject", "description"},
	)

	teamSolutionPrompt = prompts.NewPromptTemplate(
		`For an internal support team member, provide a concise summary of potential solutions for the new ticket based on similar past tickets. Don't write in markdown.
Context: {{.context}}
New Ticket: Subject: {{.subject}}, Description: {{.description}}`,
		[]string{"context", "subject", "description"},
	)
)

func render(t prompts.PromptTemplate, values map[string]any) (string, error) {
	out, err := t.Format(values)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return out, nil
}
