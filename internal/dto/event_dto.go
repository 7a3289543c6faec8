package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// SearchCompletedMessage is the internal bus payload published after every
// finished search. The recorder consumes it to persist history and mirror
// the event externally.
type SearchCompletedMessage struct {
	RecordId       uuid.UUID       `json:"record_id"`
	UserId         uuid.UUID       `json:"user_id"`
	CollectionId   *uuid.UUID      `json:"collection_id,omitempty"`
	Question       string          `json:"question"`
	RewrittenQuery string          `json:"rewritten_query"`
	Answer         string          `json:"answer"`
	CotOutput      json.RawMessage `json:"cot_output,omitempty"`
	StageErrors    []string        `json:"stage_errors,omitempty"`
	TokensUsed     *int            `json:"tokens_used,omitempty"`
	DurationMs     int64           `json:"duration_ms"`
}
