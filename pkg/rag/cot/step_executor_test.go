package cot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepConfidence(t *testing.T) {
	tests := []struct {
		snippets int
		want     float64
	}{
		{0, 0.5}, // no context keeps the base value
		{1, 0.6},
		{2, 0.7},
		{3, 0.8},
		{4, 0.9},
		{10, 0.9}, // ceiling
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, stepConfidence(tt.snippets), 1e-9, "snippets=%d", tt.snippets)
	}
}

func TestExecute_RecordsStepFields(t *testing.T) {
	e := NewReasoningStepExecutor(nil)
	provider := &fakeProvider{answers: []string{"The answer."}}

	sub := DecomposedQuestion{StepIndex: 2, Question: "How does it work?", Type: TypeProcedural}
	step, err := e.Execute(context.Background(), provider, sub, testSnippets(3), []string{"prior finding"})
	require.NoError(t, err)

	assert.Equal(t, 2, step.StepNumber)
	assert.Equal(t, "How does it work?", step.SubQuestion)
	require.NotNil(t, step.Answer)
	assert.Equal(t, "The answer.", *step.Answer)
	assert.InDelta(t, 0.8, step.Confidence, 1e-9)
	assert.Len(t, step.Sources, 3)
	assert.Greater(t, step.ExecutionTime.Nanoseconds(), int64(0))
	assert.Nil(t, step.TokenCost)
}

func TestExecute_CapsStoredSnippets(t *testing.T) {
	e := NewReasoningStepExecutor(nil)
	provider := &fakeProvider{answers: []string{"answer"}}

	sub := DecomposedQuestion{StepIndex: 1, Question: "What is X?"}
	step, err := e.Execute(context.Background(), provider, sub, testSnippets(8), nil)
	require.NoError(t, err)

	assert.Len(t, step.ContextSnippets, maxStoredSnippets)
	// Attributions are not capped, only the stored snippet text.
	assert.Len(t, step.Sources, 8)
}

func TestExecute_ProviderErrorPropagates(t *testing.T) {
	e := NewReasoningStepExecutor(nil)
	provider := &fakeProvider{failAfter: 1, calls: 1} // fails on the next call

	sub := DecomposedQuestion{StepIndex: 1, Question: "What is X?"}
	_, err := e.Execute(context.Background(), provider, sub, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reasoning step 1")
}

func TestBuildStepPrompt_PreviousAnswersMostRecentFirst(t *testing.T) {
	sub := DecomposedQuestion{StepIndex: 3, Question: "Final question?"}
	prompt := buildStepPrompt(sub, nil, []string{"oldest", "newest"})

	newestIdx := strings.Index(prompt, "newest")
	oldestIdx := strings.Index(prompt, "oldest")
	require.NotEqual(t, -1, newestIdx)
	require.NotEqual(t, -1, oldestIdx)
	assert.Less(t, newestIdx, oldestIdx)
}
