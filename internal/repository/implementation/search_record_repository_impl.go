package implementation

import (
	"context"

	"ai-researcher-be/internal/entity"
	"ai-researcher-be/internal/repository/contract"

	"gorm.io/gorm"
)

type SearchRecordRepositoryImpl struct {
	db *gorm.DB
}

func NewSearchRecordRepository(db *gorm.DB) contract.SearchRecordRepository {
	return &SearchRecordRepositoryImpl{db: db}
}

func (r *SearchRecordRepositoryImpl) Create(ctx context.Context, record *entity.SearchRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}
