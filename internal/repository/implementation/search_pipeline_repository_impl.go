package implementation

import (
	"context"
	"errors"

	"ai-researcher-be/internal/entity"
	"ai-researcher-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SearchPipelineRepositoryImpl struct {
	db *gorm.DB
}

func NewSearchPipelineRepository(db *gorm.DB) contract.SearchPipelineRepository {
	return &SearchPipelineRepositoryImpl{db: db}
}

func (r *SearchPipelineRepositoryImpl) Create(ctx context.Context, pipeline *entity.SearchPipeline) error {
	return r.db.WithContext(ctx).Create(pipeline).Error
}

func (r *SearchPipelineRepositoryImpl) Update(ctx context.Context, pipeline *entity.SearchPipeline) error {
	return r.db.WithContext(ctx).Save(pipeline).Error
}

func (r *SearchPipelineRepositoryImpl) FindDefaultByUser(ctx context.Context, userId uuid.UUID) (*entity.SearchPipeline, error) {
	var pipeline entity.SearchPipeline
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_default = true", userId).
		First(&pipeline).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pipeline, nil
}

func (r *SearchPipelineRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.SearchPipeline, error) {
	var pipeline entity.SearchPipeline
	err := r.db.WithContext(ctx).First(&pipeline, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pipeline, nil
}
