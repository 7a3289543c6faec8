package dto

import "github.com/google/uuid"

// SearchRequest is the inbound contract of the orchestrated search endpoint.
type SearchRequest struct {
	Question     string     `json:"question" validate:"required,min=1,max=4000"`
	CollectionId *uuid.UUID `json:"collection_id"`
	TopK         *int       `json:"top_k" validate:"omitempty,min=1,max=50"`
	Cot          *CotConfigRequest `json:"cot_config"`
}

// RetrievedDocumentDTO is the UI-facing metadata for one retrieved chunk.
type RetrievedDocumentDTO struct {
	DocumentId uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
	Snippet    string    `json:"snippet"`
	Score      float64   `json:"score"`
	ChunkIndex int       `json:"chunk_index"`
	Rank       int       `json:"rank"`
}

// SearchResponse is the produced interface of the orchestration core.
type SearchResponse struct {
	Answer       string                 `json:"answer"`
	Documents    []RetrievedDocumentDTO `json:"documents"`
	Cot          *CotOutputDTO          `json:"cot,omitempty"`
	TokenWarning string                 `json:"token_warning,omitempty"`
	Errors       []string               `json:"errors,omitempty"`
	DurationMs   int64                  `json:"duration_ms"`
}
