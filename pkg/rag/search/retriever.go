package search

import (
	"context"
	"fmt"
	"log"

	"ai-researcher-be/internal/repository/contract"
	"ai-researcher-be/internal/repository/specification"
	"ai-researcher-be/pkg/embedding"
	"ai-researcher-be/pkg/rag/pipeline"

	"github.com/google/uuid"
)

const similarityThreshold = 0.35

// Retriever performs semantic search over a user's collection: embed the
// query, rank chunks by vector similarity, then hydrate document titles.
type Retriever struct {
	embedProvider embedding.EmbeddingProvider
	chunkRepo     contract.ChunkEmbeddingRepository
	documentRepo  contract.DocumentRepository
	logger        *log.Logger
}

func NewRetriever(
	embedProvider embedding.EmbeddingProvider,
	chunkRepo contract.ChunkEmbeddingRepository,
	documentRepo contract.DocumentRepository,
	logger *log.Logger,
) *Retriever {
	if logger == nil {
		logger = log.Default()
	}
	return &Retriever{
		embedProvider: embedProvider,
		chunkRepo:     chunkRepo,
		documentRepo:  documentRepo,
		logger:        logger,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string, userId uuid.UUID, collectionId uuid.UUID, topK int) ([]pipeline.RetrievedChunk, error) {
	resp, err := r.embedProvider.Generate(ctx, query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := r.chunkRepo.SearchSimilarWithScore(ctx, resp.Embedding.Values, topK, userId, collectionId, similarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	if len(scored) == 0 {
		return nil, nil
	}

	titles, err := r.hydrateTitles(ctx, scored)
	if err != nil {
		// Titles are presentation data; results stand without them.
		r.logger.Printf("[SEARCH] Title hydration failed: %v", err)
		titles = map[uuid.UUID]string{}
	}

	results := make([]pipeline.RetrievedChunk, 0, len(scored))
	for i, s := range scored {
		results = append(results, pipeline.RetrievedChunk{
			DocumentId: s.Embedding.DocumentId,
			Title:      titles[s.Embedding.DocumentId],
			Content:    s.Embedding.Chunk,
			Score:      s.Similarity,
			ChunkIndex: s.Embedding.ChunkIndex,
			Rank:       i + 1,
		})
	}
	return results, nil
}

func (r *Retriever) hydrateTitles(ctx context.Context, scored []*contract.ScoredChunkEmbedding) (map[uuid.UUID]string, error) {
	seen := make(map[uuid.UUID]struct{}, len(scored))
	ids := make([]uuid.UUID, 0, len(scored))
	for _, s := range scored {
		if _, ok := seen[s.Embedding.DocumentId]; ok {
			continue
		}
		seen[s.Embedding.DocumentId] = struct{}{}
		ids = append(ids, s.Embedding.DocumentId)
	}

	docs, err := r.documentRepo.FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, err
	}

	titles := make(map[uuid.UUID]string, len(docs))
	for _, d := range docs {
		titles[d.Id] = d.Title
	}
	return titles, nil
}
