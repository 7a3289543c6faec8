package implementation

import (
	"context"

	"ai-researcher-be/internal/entity"
	"ai-researcher-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LLMProviderRepositoryImpl struct {
	db *gorm.DB
}

func NewLLMProviderRepository(db *gorm.DB) contract.LLMProviderRepository {
	return &LLMProviderRepositoryImpl{db: db}
}

func (r *LLMProviderRepositoryImpl) Create(ctx context.Context, record *entity.LLMProviderRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *LLMProviderRepositoryImpl) FindEnabledByUser(ctx context.Context, userId uuid.UUID) (*entity.LLMProviderRecord, error) {
	var record entity.LLMProviderRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND enabled = true", userId).
		Order("created_at ASC").
		First(&record).Error
	if err != nil {
		// ErrRecordNotFound propagates so the directory can distinguish
		// "no provider configured" from infrastructure failures.
		return nil, err
	}
	return &record, nil
}
