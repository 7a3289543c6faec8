package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-researcher-be/internal/dto"

	"github.com/google/uuid"
)

const (
	fallbackTopK     = 10
	snippetMaxLength = 240
)

// Retriever is the retrieval collaborator. The concrete implementation
// lives in pkg/rag/search.
type Retriever interface {
	Retrieve(ctx context.Context, query string, userId uuid.UUID, collectionId uuid.UUID, topK int) ([]RetrievedChunk, error)
}

// RetrievalStage runs the rewritten query against the user's collection and
// derives the UI-facing document list from the raw results.
type RetrievalStage struct {
	retriever   Retriever
	defaultTopK int
	logger      *log.Logger
}

// NewRetrievalStage builds the stage. defaultTopK applies when neither the
// request nor the resolved pipeline specifies one; values <= 0 fall back
// to 10.
func NewRetrievalStage(retriever Retriever, defaultTopK int, logger *log.Logger) *RetrievalStage {
	if defaultTopK <= 0 {
		defaultTopK = fallbackTopK
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RetrievalStage{
		retriever:   retriever,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

func (s *RetrievalStage) Name() string {
	return "retrieval"
}

func (s *RetrievalStage) Execute(ctx context.Context, sc *SearchContext) error {
	if sc.CollectionId == nil {
		return fmt.Errorf("retrieval requires a collection id")
	}

	query := sc.RewrittenQuery
	if query == "" {
		return fmt.Errorf("retrieval requires a non-empty query")
	}

	topK := s.defaultTopK
	if sc.TopK != nil && *sc.TopK > 0 {
		topK = *sc.TopK
	}

	results, err := s.retriever.Retrieve(ctx, query, sc.UserId, *sc.CollectionId, topK)
	if err != nil {
		return fmt.Errorf("retrieve chunks: %w", err)
	}

	sc.Results = results
	sc.Documents = buildDocumentDTOs(results)

	s.logger.Printf("[RETRIEVAL] query=%q top_k=%d results=%d", query, topK, len(results))
	return nil
}

func buildDocumentDTOs(results []RetrievedChunk) []dto.RetrievedDocumentDTO {
	if len(results) == 0 {
		return nil
	}
	docs := make([]dto.RetrievedDocumentDTO, len(results))
	for i, r := range results {
		docs[i] = dto.RetrievedDocumentDTO{
			DocumentId: r.DocumentId,
			Title:      r.Title,
			Snippet:    makeSnippet(r.Content),
			Score:      r.Score,
			ChunkIndex: r.ChunkIndex,
			Rank:       r.Rank,
		}
	}
	return docs
}

// makeSnippet truncates chunk content on a word boundary for display.
func makeSnippet(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= snippetMaxLength {
		return content
	}
	cut := content[:snippetMaxLength]
	if idx := strings.LastIndexByte(cut, ' '); idx > snippetMaxLength/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
