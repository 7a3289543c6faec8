package pipeline

import (
	"fmt"
	"time"

	"ai-researcher-be/internal/dto"
	"ai-researcher-be/internal/repository/unitofwork"
	"ai-researcher-be/pkg/llm"
	"ai-researcher-be/pkg/rag/cot"

	"github.com/google/uuid"
)

// RetrievedChunk is one score-bearing retrieval result, ordered best-first.
type RetrievedChunk struct {
	DocumentId uuid.UUID
	Title      string
	Content    string
	Score      float64
	ChunkIndex int
	Rank       int // 1-based retrieval rank
}

// StageError records one non-fatal stage failure. Errors are appended,
// never overwritten.
type StageError struct {
	Stage string
	Err   error
}

func (e StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

// SearchContext is the mutable state record threaded through the pipeline.
// It has a single owner (the executor) for the request's lifetime; once a
// stage writes a field, later stages may read but not discard it.
type SearchContext struct {
	// Request inputs
	Question     string
	UserId       uuid.UUID
	CollectionId *uuid.UUID
	TopK         *int // request-level override, nil = system default

	// Written by PipelineResolutionStage
	PipelineId uuid.UUID
	Provider   llm.LLMProvider

	// Written by QueryEnhancementStage
	RewrittenQuery string

	// Written by RetrievalStage
	Results   []RetrievedChunk
	Documents []dto.RetrievedDocumentDTO

	// Written by the caller after the pipeline completes
	Answer       string
	CotOutput    *cot.Output
	TokenWarning string

	// Bookkeeping
	Errors  []StageError
	Elapsed time.Duration

	// Collaborator handle for the request's lifetime
	UoW unitofwork.UnitOfWork
}

// AddError appends a non-fatal stage error.
func (sc *SearchContext) AddError(stage string, err error) {
	sc.Errors = append(sc.Errors, StageError{Stage: stage, Err: err})
}

// ErrorStrings flattens accumulated errors for the response payload.
func (sc *SearchContext) ErrorStrings() []string {
	if len(sc.Errors) == 0 {
		return nil
	}
	out := make([]string, len(sc.Errors))
	for i, e := range sc.Errors {
		out[i] = e.Error()
	}
	return out
}
