package contract

import (
	"context"

	"ai-researcher-be/internal/entity"
)

type SearchRecordRepository interface {
	Create(ctx context.Context, record *entity.SearchRecord) error
}
