package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-researcher-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_PersistsCompletedSearch(t *testing.T) {
	bus := newTestBus()
	repo := &recordingRepo{}
	factory := &fakeUoWFactory{uow: &fakeUoW{searchRecords: repo}}

	recorder := NewRecorderService(bus, SearchCompletedTopic, factory, nil)
	require.NoError(t, recorder.Consume(context.Background()))

	tokens := 321
	payload := dto.SearchCompletedMessage{
		RecordId:       uuid.New(),
		UserId:         uuid.New(),
		Question:       "What is a write-ahead log?",
		RewrittenQuery: "what is a write-ahead log definition meaning",
		Answer:         "A durability mechanism.",
		StageErrors:    []string{"stage retrieval: timeout"},
		TokensUsed:     &tokens,
		DurationMs:     250,
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(SearchCompletedTopic, message.NewMessage(payload.RecordId.String(), raw)))

	require.Eventually(t, func() bool {
		return len(repo.records) == 1
	}, 2*time.Second, 10*time.Millisecond)

	record := repo.records[0]
	assert.Equal(t, payload.RecordId, record.Id)
	assert.Equal(t, payload.Question, record.Question)
	assert.Equal(t, payload.Answer, record.FinalAnswer)
	assert.Equal(t, &tokens, record.TokensUsed)
	assert.NotEmpty(t, record.StageErrors)
}

func TestRecorder_AcksMalformedPayload(t *testing.T) {
	bus := newTestBus()
	repo := &recordingRepo{}
	factory := &fakeUoWFactory{uow: &fakeUoW{searchRecords: repo}}

	recorder := NewRecorderService(bus, SearchCompletedTopic, factory, nil)
	require.NoError(t, recorder.Consume(context.Background()))

	require.NoError(t, bus.Publish(SearchCompletedTopic, message.NewMessage("bad", []byte("not json"))))

	// Give the consumer a moment; nothing should be persisted.
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, repo.records)
}
