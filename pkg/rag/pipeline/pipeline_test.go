package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStage wraps a func as a PipelineStage.
type stubStage struct {
	name string
	fn   func(ctx context.Context, sc *SearchContext) error
}

func (s stubStage) Name() string { return s.name }
func (s stubStage) Execute(ctx context.Context, sc *SearchContext) error {
	return s.fn(ctx, sc)
}

func TestExecutor_RunsStagesInOrder(t *testing.T) {
	var order []string
	mk := func(name string) stubStage {
		return stubStage{name: name, fn: func(context.Context, *SearchContext) error {
			order = append(order, name)
			return nil
		}}
	}

	e := NewExecutor(nil, mk("first"), mk("second"), mk("third"))
	sc := &SearchContext{Question: "q"}

	require.NoError(t, e.Execute(context.Background(), sc))
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Greater(t, sc.Elapsed.Nanoseconds(), int64(0))
}

func TestExecutor_ContinuesAfterStageFailure(t *testing.T) {
	ran := false
	failing := stubStage{name: "broken", fn: func(context.Context, *SearchContext) error {
		return errors.New("boom")
	}}
	next := stubStage{name: "next", fn: func(context.Context, *SearchContext) error {
		ran = true
		return nil
	}}

	e := NewExecutor(nil, failing, next)
	sc := &SearchContext{}

	require.NoError(t, e.Execute(context.Background(), sc))
	assert.True(t, ran)
	require.Len(t, sc.Errors, 1)
	assert.Equal(t, "broken", sc.Errors[0].Stage)
}

func TestExecutor_FatalAborts(t *testing.T) {
	ran := false
	fatal := stubStage{name: "config", fn: func(context.Context, *SearchContext) error {
		return Fatal(errors.New("no provider"))
	}}
	next := stubStage{name: "next", fn: func(context.Context, *SearchContext) error {
		ran = true
		return nil
	}}

	e := NewExecutor(nil, fatal, next)
	sc := &SearchContext{}

	err := e.Execute(context.Background(), sc)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.False(t, ran)
	// Elapsed is recorded even on fatal failure.
	assert.Greater(t, sc.Elapsed.Nanoseconds(), int64(0))
}

func TestExecutor_RecoversPanickingStage(t *testing.T) {
	panicking := stubStage{name: "wild", fn: func(context.Context, *SearchContext) error {
		panic("unexpected fault")
	}}
	e := NewExecutor(nil, panicking)
	sc := &SearchContext{}

	require.NoError(t, e.Execute(context.Background(), sc))
	require.Len(t, sc.Errors, 1)
	assert.Contains(t, sc.Errors[0].Error(), "unexpected fault")
}

// fakeRetriever returns fixed chunks or an error.
type fakeRetriever struct {
	chunks []RetrievedChunk
	err    error

	gotQuery string
	gotTopK  int
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, _ uuid.UUID, _ uuid.UUID, topK int) ([]RetrievedChunk, error) {
	f.gotQuery = query
	f.gotTopK = topK
	return f.chunks, f.err
}

func TestRetrievalStage_MissingCollectionIsNonFatal(t *testing.T) {
	stage := NewRetrievalStage(&fakeRetriever{}, 0, nil)
	e := NewExecutor(nil, stage)

	sc := &SearchContext{
		Question:       "what is x",
		RewrittenQuery: "what is x",
		CollectionId:   nil,
	}

	require.NoError(t, e.Execute(context.Background(), sc))
	require.Len(t, sc.Errors, 1)
	assert.Contains(t, sc.Errors[0].Error(), "collection")
	assert.Empty(t, sc.Results)
}

func TestRetrievalStage_EmptyQueryFailsFast(t *testing.T) {
	retriever := &fakeRetriever{}
	stage := NewRetrievalStage(retriever, 0, nil)

	collectionId := uuid.New()
	sc := &SearchContext{CollectionId: &collectionId}

	err := stage.Execute(context.Background(), sc)
	require.Error(t, err)
	assert.Empty(t, retriever.gotQuery)
}

func TestRetrievalStage_BuildsDocuments(t *testing.T) {
	docId := uuid.New()
	retriever := &fakeRetriever{chunks: []RetrievedChunk{
		{DocumentId: docId, Title: "Guide", Content: "chunk text", Score: 0.91, ChunkIndex: 4, Rank: 1},
	}}
	stage := NewRetrievalStage(retriever, 0, nil)

	collectionId := uuid.New()
	topK := 7
	sc := &SearchContext{
		UserId:         uuid.New(),
		CollectionId:   &collectionId,
		RewrittenQuery: "chunked query",
		TopK:           &topK,
	}

	require.NoError(t, stage.Execute(context.Background(), sc))
	assert.Equal(t, 7, retriever.gotTopK)
	assert.Equal(t, "chunked query", retriever.gotQuery)

	require.Len(t, sc.Documents, 1)
	assert.Equal(t, docId, sc.Documents[0].DocumentId)
	assert.Equal(t, "Guide", sc.Documents[0].Title)
	assert.Equal(t, "chunk text", sc.Documents[0].Snippet)
	assert.Equal(t, 0.91, sc.Documents[0].Score)
	assert.Equal(t, 1, sc.Documents[0].Rank)
}

func TestRetrievalStage_FallbackTopK(t *testing.T) {
	retriever := &fakeRetriever{}
	stage := NewRetrievalStage(retriever, 0, nil)

	collectionId := uuid.New()
	sc := &SearchContext{CollectionId: &collectionId, RewrittenQuery: "q"}

	require.NoError(t, stage.Execute(context.Background(), sc))
	assert.Equal(t, fallbackTopK, retriever.gotTopK)
}

func TestRetrievalStage_ConfiguredDefaultTopK(t *testing.T) {
	retriever := &fakeRetriever{}
	stage := NewRetrievalStage(retriever, 7, nil)

	collectionId := uuid.New()
	sc := &SearchContext{CollectionId: &collectionId, RewrittenQuery: "q"}

	require.NoError(t, stage.Execute(context.Background(), sc))
	assert.Equal(t, 7, retriever.gotTopK, "configured default applies when the request omits top_k")
}

func TestCleanQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  what   is\tgo  ", "what is go"},
		{"hello\x00world", "helloworld"},
		{"line\none", "line one"},
		{"", ""},
		{"   \t\n ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanQuery(tt.in), "input %q", tt.in)
	}
}

func TestQueryEnhancement_Deterministic(t *testing.T) {
	stage := NewQueryEnhancementStage(nil, nil)

	first := &SearchContext{Question: "Why does   caching help?"}
	second := &SearchContext{Question: "Why does   caching help?"}
	require.NoError(t, stage.Execute(context.Background(), first))
	require.NoError(t, stage.Execute(context.Background(), second))

	assert.Equal(t, first.RewrittenQuery, second.RewrittenQuery)
	// The cleaned wording survives at the front of the rewrite.
	assert.Contains(t, first.RewrittenQuery, "Why does caching help?")
}

func TestQueryEnhancement_EmptyQuestionFails(t *testing.T) {
	stage := NewQueryEnhancementStage(nil, nil)
	sc := &SearchContext{Question: " \t "}
	assert.Error(t, stage.Execute(context.Background(), sc))
}

func TestMakeSnippet_TruncatesOnWordBoundary(t *testing.T) {
	short := "short content"
	assert.Equal(t, short, makeSnippet(short))

	var long string
	for i := 0; i < 60; i++ {
		long += "word "
	}
	got := makeSnippet(long)
	assert.LessOrEqual(t, len(got), snippetMaxLength+3)
	assert.Contains(t, got, "...")
}
