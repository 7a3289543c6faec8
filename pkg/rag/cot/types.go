package cot

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType is the rhetorical category of a (sub-)question, detected
// from lexical cues.
type QuestionType string

const (
	TypeDefinition QuestionType = "definition"
	TypeComparison QuestionType = "comparison"
	TypeCausal     QuestionType = "causal"
	TypeProcedural QuestionType = "procedural"
	TypeAnalytical QuestionType = "analytical"
)

// DecomposedQuestion is one ordered sub-question. For N sub-questions the
// step indices are exactly 1..N; every dependency index is strictly less
// than the step's own index.
type DecomposedQuestion struct {
	StepIndex  int
	Question   string
	DependsOn  []int
	Type       QuestionType
	Complexity float64 // [0,1], monotonic in clause length and markers
}

// ContextSnippet is one retrieved evidence fragment handed to a reasoning
// step.
type ContextSnippet struct {
	DocumentId uuid.UUID
	Title      string
	Content    string
	Score      float64
	ChunkIndex int
	Rank       int
}

// SourceAttribution ties an answer fragment back to retrieved evidence.
type SourceAttribution struct {
	DocumentId uuid.UUID
	Title      string
	Relevance  float64
	Excerpt    string
	ChunkIndex *int
	Rank       *int
}

// ReasoningStep is one executed sub-question. Immutable once returned by
// the step executor; steps are append-only, never rolled back.
type ReasoningStep struct {
	StepNumber      int // 1-based, sequential
	SubQuestion     string
	ContextSnippets []string // capped for storage
	Answer          *string  // nil on failure
	Confidence      float64  // [0,1]
	Sources         []SourceAttribution
	ExecutionTime   time.Duration
	TokenCost       *int
}

// SourceSummary aggregates attributions across a reasoning run.
type SourceSummary struct {
	AllSources     []SourceAttribution
	PrimarySources []SourceAttribution
	StepSources    map[int][]string
}

// Output is the result of a complete chain-of-thought run. All numeric
// aggregates are computed once, at the end, from immutable step data.
type Output struct {
	OriginalQuestion string
	FinalAnswer      string
	Steps            []ReasoningStep
	SourceSummary    *SourceSummary
	Confidence       float64 // mean of step confidences, 0.0 if no steps
	TotalTokens      *int
	TotalTime        time.Duration
	Strategy         Strategy
}
