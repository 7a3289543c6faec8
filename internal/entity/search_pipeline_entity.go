package entity

import (
	"time"

	"github.com/google/uuid"
)

// SearchPipeline is a user's generation-pipeline configuration. The
// resolution stage picks the default one, or creates it from the user's
// available LLM provider when none exists.
type SearchPipeline struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId       uuid.UUID `gorm:"type:uuid;index"`
	Name         string
	ProviderType string // "ollama", ...
	ModelName    string
	IsDefault    bool `gorm:"index"`
	TopK         int  `gorm:"default:10"`
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
