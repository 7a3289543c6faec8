package contract

import (
	"context"

	"ai-researcher-be/internal/entity"
	"ai-researcher-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredChunkEmbedding wraps ChunkEmbedding with its similarity score
type ScoredChunkEmbedding struct {
	Embedding  *entity.ChunkEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type ChunkEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.ChunkEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.ChunkEmbedding) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChunkEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns chunks with similarity scores inside one
	// collection, filtered by threshold, ordered best-first.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, collectionId uuid.UUID, threshold float64) ([]*ScoredChunkEmbedding, error)
}
