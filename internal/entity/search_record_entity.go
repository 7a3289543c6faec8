package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SearchRecord is the persisted history of one orchestrated search.
type SearchRecord struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId         uuid.UUID `gorm:"type:uuid;index"`
	CollectionId   *uuid.UUID `gorm:"type:uuid;index"`
	Question       string
	RewrittenQuery string
	FinalAnswer    string         `gorm:"type:text"`
	CotOutput      datatypes.JSON `gorm:"type:jsonb"`
	StageErrors    datatypes.JSON `gorm:"type:jsonb"`
	TokensUsed     *int
	DurationMs     int64
	CreatedAt      time.Time
}
