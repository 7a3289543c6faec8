package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChunkEmbedding is the domain view of one embedded document chunk.
// The gorm model (internal/model) carries the pgvector column.
type ChunkEmbedding struct {
	Id             uuid.UUID
	Chunk          string
	EmbeddingValue []float32
	DocumentId     uuid.UUID
	ChunkIndex     int
	CreatedAt      time.Time
}
