package contract

import (
	"context"

	"ai-researcher-be/internal/entity"

	"github.com/google/uuid"
)

type LLMProviderRepository interface {
	Create(ctx context.Context, record *entity.LLMProviderRecord) error
	// FindEnabledByUser returns the user's active provider record, or
	// gorm.ErrRecordNotFound when the user has none configured.
	FindEnabledByUser(ctx context.Context, userId uuid.UUID) (*entity.LLMProviderRecord, error)
}
