package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ai-researcher-be/internal/entity"
	"ai-researcher-be/pkg/llm/directory"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResolutionStage resolves the caller's default generation-pipeline
// configuration, creating one from the user's available LLM provider when
// none exists. A missing provider is the one hard failure of the base
// pipeline: nothing downstream can proceed without it.
type ResolutionStage struct {
	directory *directory.Directory
	logger    *log.Logger
}

func NewResolutionStage(dir *directory.Directory, logger *log.Logger) *ResolutionStage {
	if logger == nil {
		logger = log.Default()
	}
	return &ResolutionStage{
		directory: dir,
		logger:    logger,
	}
}

func (s *ResolutionStage) Name() string {
	return "pipeline_resolution"
}

func (s *ResolutionStage) Execute(ctx context.Context, sc *SearchContext) error {
	pipelineRepo := sc.UoW.SearchPipelineRepository()

	pipeline, err := pipelineRepo.FindDefaultByUser(ctx, sc.UserId)
	if err != nil {
		return fmt.Errorf("load default pipeline: %w", err)
	}

	if pipeline == nil {
		pipeline, err = s.createDefaultPipeline(ctx, sc)
		if err != nil {
			return err
		}
		s.logger.Printf("[RESOLUTION] Created default pipeline %s for user %s", pipeline.Id, sc.UserId)
	}

	provider, err := s.directory.GetUserProvider(ctx, sc.UserId)
	if err != nil {
		if errors.Is(err, directory.ErrNoProvider) {
			return Fatal(fmt.Errorf("no llm provider available for user %s", sc.UserId))
		}
		return Fatal(fmt.Errorf("resolve provider: %w", err))
	}

	sc.PipelineId = pipeline.Id
	sc.Provider = provider

	// Pipeline-level top_k is the system default; the request may override.
	if sc.TopK == nil && pipeline.TopK > 0 {
		topK := pipeline.TopK
		sc.TopK = &topK
	}

	return nil
}

func (s *ResolutionStage) createDefaultPipeline(ctx context.Context, sc *SearchContext) (*entity.SearchPipeline, error) {
	record, err := sc.UoW.LLMProviderRepository().FindEnabledByUser(ctx, sc.UserId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Fatal(fmt.Errorf("cannot create default pipeline: no llm provider configured for user %s", sc.UserId))
		}
		return nil, fmt.Errorf("lookup provider record: %w", err)
	}

	now := time.Now()
	pipeline := &entity.SearchPipeline{
		Id:           uuid.New(),
		UserId:       sc.UserId,
		Name:         "Default Search Pipeline",
		ProviderType: record.ProviderType,
		ModelName:    record.ModelName,
		IsDefault:    true,
		TopK:         10,
		CreatedAt:    now,
		UpdatedAt:    &now,
	}

	if err := sc.UoW.SearchPipelineRepository().Create(ctx, pipeline); err != nil {
		return nil, fmt.Errorf("persist default pipeline: %w", err)
	}

	return pipeline, nil
}
