package unitofwork

import (
	"context"

	"ai-researcher-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	ChunkEmbeddingRepository() contract.ChunkEmbeddingRepository
	SearchPipelineRepository() contract.SearchPipelineRepository
	LLMProviderRepository() contract.LLMProviderRepository
	SearchRecordRepository() contract.SearchRecordRepository
}
