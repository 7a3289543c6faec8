package dto

// CotConfigRequest carries the caller's chain-of-thought knobs. Pointer
// fields distinguish "absent" from zero; validation happens at the
// boundary before the orchestrator sees the values.
type CotConfigRequest struct {
	Enabled               *bool    `json:"enabled"`
	MaxReasoningDepth     *int     `json:"max_reasoning_depth" validate:"omitempty,min=1,max=10"`
	ReasoningStrategy     string   `json:"reasoning_strategy" validate:"omitempty,oneof=decomposition iterative hierarchical causal"`
	ContextPreservation   *bool    `json:"context_preservation"`
	TokenBudgetMultiplier *float64 `json:"token_budget_multiplier" validate:"omitempty,gt=0"`
	EvaluationThreshold   *float64 `json:"evaluation_threshold" validate:"omitempty,min=0,max=1"`
}

// SourceAttributionDTO ties an answer fragment back to retrieved evidence.
type SourceAttributionDTO struct {
	DocumentId string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	Relevance  float64 `json:"relevance"`
	Excerpt    string  `json:"excerpt,omitempty"`
	ChunkIndex *int    `json:"chunk_index,omitempty"`
	Rank       *int    `json:"rank,omitempty"`
}

// ReasoningStepDTO is the wire form of one executed reasoning step.
type ReasoningStepDTO struct {
	StepNumber      int                    `json:"step_number"`
	SubQuestion     string                 `json:"sub_question"`
	Answer          *string                `json:"answer"`
	Confidence      float64                `json:"confidence"`
	Sources         []SourceAttributionDTO `json:"sources,omitempty"`
	ExecutionTimeMs int64                  `json:"execution_time_ms"`
	TokenCost       *int                   `json:"token_cost,omitempty"`
}

// SourceSummaryDTO aggregates attributions across a reasoning run.
type SourceSummaryDTO struct {
	AllSources     []SourceAttributionDTO `json:"all_sources"`
	PrimarySources []SourceAttributionDTO `json:"primary_sources"`
	StepSources    map[int][]string       `json:"step_sources"`
}

// CotOutputDTO is the wire form of a complete chain-of-thought run.
type CotOutputDTO struct {
	OriginalQuestion string             `json:"original_question"`
	FinalAnswer      string             `json:"final_answer"`
	ReasoningSteps   []ReasoningStepDTO `json:"reasoning_steps"`
	SourceSummary    *SourceSummaryDTO  `json:"source_summary,omitempty"`
	Confidence       float64            `json:"confidence"`
	TotalTokens      *int               `json:"total_tokens,omitempty"`
	TotalTimeMs      *int64             `json:"total_time_ms,omitempty"`
	Strategy         string             `json:"strategy"`
}
