package contract

import (
	"context"

	"ai-researcher-be/internal/entity"

	"github.com/google/uuid"
)

type SearchPipelineRepository interface {
	Create(ctx context.Context, pipeline *entity.SearchPipeline) error
	Update(ctx context.Context, pipeline *entity.SearchPipeline) error
	FindDefaultByUser(ctx context.Context, userId uuid.UUID) (*entity.SearchPipeline, error)
	FindById(ctx context.Context, id uuid.UUID) (*entity.SearchPipeline, error)
}
