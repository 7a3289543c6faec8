package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInputSingleChunk(t *testing.T) {
	chunks := SplitText("short text", 100, 20)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplitTextBreaksAtWordBoundaries(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("alpha bravo ", 40))
	chunks := SplitText(text, 100, 20)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 100)
		last := chunk[strings.LastIndexByte(chunk, ' ')+1:]
		assert.Contains(t, []string{"alpha", "bravo"}, last, "chunk must end on a whole word")
	}
}

func TestSplitTextOverlapCarriesContext(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("alpha bravo ", 40))
	chunks := SplitText(text, 100, 20)

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		words := strings.Fields(chunks[i-1])
		lastWord := words[len(words)-1]
		assert.Contains(t, chunks[i], lastWord, "next chunk should repeat the boundary context")
	}
}

func TestSplitTextUnbrokenRunFallsBackToHardCut(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := SplitText(text, 100, 0)

	require.Len(t, chunks, 3)
	assert.Equal(t, 100, len(chunks[0]))
	assert.Equal(t, 100, len(chunks[1]))
	assert.Equal(t, 50, len(chunks[2]))
	assert.Equal(t, text, strings.Join(chunks, ""))
}
