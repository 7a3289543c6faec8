package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ai-researcher-be/internal/dto"
	"ai-researcher-be/internal/entity"
	"ai-researcher-be/internal/repository/contract"
	"ai-researcher-be/internal/repository/unitofwork"
	"ai-researcher-be/pkg/llm"
	"ai-researcher-be/pkg/rag/cot"
	"ai-researcher-be/pkg/rag/pipeline"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider answers every generation call with a fixed string.
type stubProvider struct {
	answer string
	err    error
}

func (p *stubProvider) Generate(context.Context, string, ...llm.Option) (*llm.Completion, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Completion{Text: p.answer}, nil
}

func (p *stubProvider) Chat(ctx context.Context, _ []llm.Message, opts ...llm.Option) (*llm.Completion, error) {
	return p.Generate(ctx, "", opts...)
}

func (p *stubProvider) ChatStream(ctx context.Context, _ []llm.Message, onChunk func(llm.StreamChunk) error, _ ...llm.Option) error {
	c, err := p.Generate(ctx, "")
	if err != nil {
		return err
	}
	return onChunk(llm.StreamChunk{Text: c.Text, Done: true})
}

func (p *stubProvider) Name() string { return "stub" }

// recordingRepo captures persisted search records.
type recordingRepo struct {
	records []*entity.SearchRecord
}

func (r *recordingRepo) Create(_ context.Context, record *entity.SearchRecord) error {
	r.records = append(r.records, record)
	return nil
}

// fakeUoW only supports the repositories the search flow touches.
type fakeUoW struct {
	searchRecords contract.SearchRecordRepository
}

func (f *fakeUoW) Begin(context.Context) error { return nil }
func (f *fakeUoW) Commit() error               { return nil }
func (f *fakeUoW) Rollback() error             { return nil }
func (f *fakeUoW) DocumentRepository() contract.DocumentRepository             { return nil }
func (f *fakeUoW) ChunkEmbeddingRepository() contract.ChunkEmbeddingRepository { return nil }
func (f *fakeUoW) SearchPipelineRepository() contract.SearchPipelineRepository { return nil }
func (f *fakeUoW) LLMProviderRepository() contract.LLMProviderRepository       { return nil }
func (f *fakeUoW) SearchRecordRepository() contract.SearchRecordRepository {
	return f.searchRecords
}

type fakeUoWFactory struct {
	uow unitofwork.UnitOfWork
}

func (f *fakeUoWFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return f.uow
}

// contextSeedStage stands in for the resolution and retrieval stages: it
// injects a resolved provider and retrieved results directly.
func contextSeedStage(provider llm.LLMProvider, results []pipeline.RetrievedChunk) pipeline.PipelineStage {
	return seedStage{provider: provider, results: results}
}

type seedStage struct {
	provider llm.LLMProvider
	results  []pipeline.RetrievedChunk
}

func (s seedStage) Name() string { return "seed" }
func (s seedStage) Execute(_ context.Context, sc *pipeline.SearchContext) error {
	sc.Provider = s.provider
	sc.RewrittenQuery = sc.Question
	sc.Results = s.results
	return nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

func newTestService(provider llm.LLMProvider, results []pipeline.RetrievedChunk, pubSub *gochannel.GoChannel) ISearchService {
	factory := &fakeUoWFactory{uow: &fakeUoW{searchRecords: &recordingRepo{}}}
	stageBuilder := func() []pipeline.PipelineStage {
		return []pipeline.PipelineStage{contextSeedStage(provider, results)}
	}
	return NewSearchService(
		factory,
		stageBuilder,
		cot.NewOrchestrator(5, nil),
		nil, // no tool gateway
		pubSub,
		noopLogger{},
	)
}

func newTestBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
}

func TestSearch_PlainPathWhenCotDisabled(t *testing.T) {
	provider := &stubProvider{answer: "Plain answer."}
	svc := newTestService(provider, nil, newTestBus())

	enabled := false
	res, err := svc.Search(context.Background(), uuid.New(), &dto.SearchRequest{
		Question: "What is machine learning and how does it work?",
		Cot:      &dto.CotConfigRequest{Enabled: &enabled},
	})
	require.NoError(t, err)

	assert.Equal(t, "Plain answer.", res.Answer)
	assert.Nil(t, res.Cot)
}

func TestSearch_CotPathForComplexQuestion(t *testing.T) {
	provider := &stubProvider{answer: "An intermediate finding."}
	results := []pipeline.RetrievedChunk{
		{DocumentId: uuid.New(), Title: "Doc", Content: "evidence", Score: 0.9, Rank: 1},
	}
	svc := newTestService(provider, results, newTestBus())

	res, err := svc.Search(context.Background(), uuid.New(), &dto.SearchRequest{
		Question: "What is machine learning and how does it work?",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Cot)
	assert.GreaterOrEqual(t, len(res.Cot.ReasoningSteps), 2)
	assert.NotEmpty(t, res.Answer)
	assert.NotContains(t, res.Answer, "Step 1")
}

func TestSearch_SimpleQuestionSkipsReasoning(t *testing.T) {
	provider := &stubProvider{answer: "TLS is a protocol."}
	svc := newTestService(provider, nil, newTestBus())

	res, err := svc.Search(context.Background(), uuid.New(), &dto.SearchRequest{
		Question: "Define TLS",
	})
	require.NoError(t, err)

	assert.Nil(t, res.Cot)
	assert.Equal(t, "TLS is a protocol.", res.Answer)
}

func TestSearch_InvalidCotConfigFailsRequest(t *testing.T) {
	provider := &stubProvider{answer: "unused"}
	svc := newTestService(provider, nil, newTestBus())

	enabled := true
	badMultiplier := -2.0
	_, err := svc.Search(context.Background(), uuid.New(), &dto.SearchRequest{
		Question: "Explain A and B and how they interact",
		Cot:      &dto.CotConfigRequest{Enabled: &enabled, TokenBudgetMultiplier: &badMultiplier},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, cot.ErrInvalidConfig)
}

func TestSearch_ProviderFailureFallsBackThenSurfaces(t *testing.T) {
	provider := &stubProvider{err: llm.NewProviderError("stub", llm.ErrKindServer, "down", nil)}
	svc := newTestService(provider, nil, newTestBus())

	enabled := true
	_, err := svc.Search(context.Background(), uuid.New(), &dto.SearchRequest{
		Question: "Explain A and B and how they interact",
		Cot:      &dto.CotConfigRequest{Enabled: &enabled},
	})
	// The reasoning failure degrades to the plain path, which hits the
	// same broken provider and surfaces its error.
	require.Error(t, err)
	_, ok := llm.IsProviderError(err)
	assert.True(t, ok)
}

func TestSearch_PublishesCompletionMessage(t *testing.T) {
	bus := newTestBus()
	messages, err := bus.Subscribe(context.Background(), SearchCompletedTopic)
	require.NoError(t, err)

	provider := &stubProvider{answer: "Plain answer."}
	svc := newTestService(provider, nil, bus)

	enabled := false
	_, err = svc.Search(context.Background(), uuid.New(), &dto.SearchRequest{
		Question: "Define TLS",
		Cot:      &dto.CotConfigRequest{Enabled: &enabled},
	})
	require.NoError(t, err)

	select {
	case msg := <-messages:
		var payload dto.SearchCompletedMessage
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, "Define TLS", payload.Question)
		assert.Equal(t, "Plain answer.", payload.Answer)
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("expected completion message on the bus")
	}
}

func TestSearch_FatalStageAborts(t *testing.T) {
	factory := &fakeUoWFactory{uow: &fakeUoW{searchRecords: &recordingRepo{}}}
	fatal := seedFailStage{}
	svc := NewSearchService(
		factory,
		func() []pipeline.PipelineStage { return []pipeline.PipelineStage{fatal} },
		cot.NewOrchestrator(5, nil),
		nil,
		newTestBus(),
		noopLogger{},
	)

	_, err := svc.Search(context.Background(), uuid.New(), &dto.SearchRequest{Question: "anything"})
	require.Error(t, err)
	assert.True(t, pipeline.IsFatal(err))
}

type seedFailStage struct{}

func (seedFailStage) Name() string { return "resolution" }
func (seedFailStage) Execute(context.Context, *pipeline.SearchContext) error {
	return pipeline.Fatal(errors.New("no llm provider available"))
}
