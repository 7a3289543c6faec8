package cot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-researcher-be/pkg/llm"
)

const (
	// maxStoredSnippets caps context snippets kept on the step record.
	maxStoredSnippets = 5
	// snippetExcerptLength caps the excerpt kept per source attribution.
	snippetExcerptLength = 200

	confidenceBase       = 0.5
	confidencePerSnippet = 0.1
	confidenceFloor      = 0.6
	confidenceCeil       = 0.9
)

// ReasoningStepExecutor runs one sub-question through a single generation
// call and records its outcome.
type ReasoningStepExecutor struct {
	logger *log.Logger
}

func NewReasoningStepExecutor(logger *log.Logger) *ReasoningStepExecutor {
	if logger == nil {
		logger = log.Default()
	}
	return &ReasoningStepExecutor{logger: logger}
}

// Execute answers one sub-question against the retrieved snippets and the
// intermediate answers produced so far. A generation failure is returned
// to the caller, never papered over with a fabricated answer.
func (e *ReasoningStepExecutor) Execute(
	ctx context.Context,
	provider llm.LLMProvider,
	step DecomposedQuestion,
	snippets []ContextSnippet,
	previousAnswers []string,
) (*ReasoningStep, error) {
	started := time.Now()

	prompt := buildStepPrompt(step, snippets, previousAnswers)

	completion, err := provider.Generate(ctx, prompt,
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(1024),
	)
	if err != nil {
		return nil, fmt.Errorf("reasoning step %d: %w", step.StepIndex, err)
	}

	answer := strings.TrimSpace(completion.Text)
	result := &ReasoningStep{
		StepNumber:      step.StepIndex,
		SubQuestion:     step.Question,
		ContextSnippets: storedSnippets(snippets),
		Answer:          &answer,
		Confidence:      stepConfidence(len(snippets)),
		Sources:         stepSources(snippets),
		ExecutionTime:   time.Since(started),
	}
	if completion.Usage != nil && completion.Usage.TotalTokens > 0 {
		cost := completion.Usage.TotalTokens
		result.TokenCost = &cost
	}

	e.logger.Printf("[COT] Step %d answered in %s (confidence=%.2f, snippets=%d)",
		step.StepIndex, result.ExecutionTime.Round(time.Millisecond), result.Confidence, len(snippets))
	return result, nil
}

// buildStepPrompt assembles the combined context: retrieved snippets first,
// then prior intermediate answers most recent first.
func buildStepPrompt(step DecomposedQuestion, snippets []ContextSnippet, previousAnswers []string) string {
	var b strings.Builder

	if len(snippets) > 0 {
		b.WriteString("Use the following context to answer the question.\n\nContext:\n")
		for _, s := range snippets {
			b.WriteString("- ")
			b.WriteString(s.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(previousAnswers) > 0 {
		b.WriteString("Findings so far, most recent first:\n")
		for i := len(previousAnswers) - 1; i >= 0; i-- {
			b.WriteString("- ")
			b.WriteString(previousAnswers[i])
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Question: ")
	b.WriteString(step.Question)
	b.WriteString("\n\nAnswer concisely and directly. Do not mention the context or any numbered steps.")
	return b.String()
}

// stepConfidence applies the calibration rule: base 0.5, +0.1 per snippet,
// clamped to [0.6, 0.9] whenever any context was available. A step with no
// context keeps the base value.
func stepConfidence(snippetCount int) float64 {
	if snippetCount == 0 {
		return confidenceBase
	}
	c := confidenceBase + confidencePerSnippet*float64(snippetCount)
	if c < confidenceFloor {
		c = confidenceFloor
	}
	if c > confidenceCeil {
		c = confidenceCeil
	}
	return c
}

func storedSnippets(snippets []ContextSnippet) []string {
	if len(snippets) == 0 {
		return nil
	}
	n := len(snippets)
	if n > maxStoredSnippets {
		n = maxStoredSnippets
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = excerpt(snippets[i].Content)
	}
	return out
}

func stepSources(snippets []ContextSnippet) []SourceAttribution {
	if len(snippets) == 0 {
		return nil
	}
	sources := make([]SourceAttribution, len(snippets))
	for i, s := range snippets {
		chunkIndex := s.ChunkIndex
		rank := s.Rank
		sources[i] = SourceAttribution{
			DocumentId: s.DocumentId,
			Title:      s.Title,
			Relevance:  s.Score,
			Excerpt:    excerpt(s.Content),
			ChunkIndex: &chunkIndex,
			Rank:       &rank,
		}
	}
	return sources
}

func excerpt(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= snippetExcerptLength {
		return content
	}
	return content[:snippetExcerptLength] + "..."
}
