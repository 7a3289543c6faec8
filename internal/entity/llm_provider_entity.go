package entity

import (
	"time"

	"github.com/google/uuid"
)

// LLMProviderRecord is a user's configured LLM backend. The provider
// directory resolves these into live provider handles.
type LLMProviderRecord struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId       uuid.UUID `gorm:"type:uuid;index"`
	ProviderType string
	ModelName    string
	BaseURL      string
	Enabled      bool `gorm:"default:true"`
	CreatedAt    time.Time
}
