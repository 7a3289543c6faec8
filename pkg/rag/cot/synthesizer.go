package cot

import (
	"context"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"ai-researcher-be/pkg/llm"
)

// InsufficientInfoMessage is the fixed answer when no step produced one.
const InsufficientInfoMessage = "I was unable to find enough information to answer this question."

// AnswerSynthesizer combines intermediate answers into the single text the
// end user sees. Step numbers and internal reasoning never leak into it.
type AnswerSynthesizer struct {
	logger *log.Logger
}

func NewAnswerSynthesizer(logger *log.Logger) *AnswerSynthesizer {
	if logger == nil {
		logger = log.Default()
	}
	return &AnswerSynthesizer{logger: logger}
}

// Synthesize joins the non-empty intermediate answers. A single answer is
// returned verbatim; multiple answers are connected with natural phrasing.
func (s *AnswerSynthesizer) Synthesize(steps []ReasoningStep) string {
	var answers []string
	for _, step := range steps {
		if step.Answer == nil {
			continue
		}
		a := strings.TrimSpace(*step.Answer)
		if a == "" {
			continue
		}
		answers = append(answers, a)
	}

	switch len(answers) {
	case 0:
		return InsufficientInfoMessage
	case 1:
		return answers[0]
	}

	var b strings.Builder
	b.WriteString(ensureTerminated(answers[0]))
	for _, a := range answers[1:] {
		b.WriteString(" Additionally, ")
		b.WriteString(ensureTerminated(lowerFirst(a)))
	}
	return b.String()
}

// Refine rewrites the combined answer through one generation call for
// coherence. Strictly best-effort: any failure returns the input unchanged.
func (s *AnswerSynthesizer) Refine(ctx context.Context, provider llm.LLMProvider, question, combined string) string {
	if provider == nil || combined == "" || combined == InsufficientInfoMessage {
		return combined
	}

	prompt := "Rewrite the following answer so it reads as one coherent response to the question. " +
		"Keep every fact, add nothing new, and do not mention steps or sources.\n\n" +
		"Question: " + question + "\n\nAnswer: " + combined
	completion, err := provider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		s.logger.Printf("[COT] Refinement pass failed, keeping combined answer: %v", err)
		return combined
	}

	refined := strings.TrimSpace(completion.Text)
	if refined == "" {
		return combined
	}
	return refined
}

func ensureTerminated(text string) string {
	if text == "" {
		return text
	}
	switch text[len(text)-1] {
	case '.', '!', '?':
		return text
	}
	return text + "."
}

func lowerFirst(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError {
		return text
	}
	return string(unicode.ToLower(r)) + text[size:]
}
