package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"
)

// queryExpansions maps common question leads to retrieval-friendly keyword
// hints. The table is fixed, which keeps the rewrite deterministic for the
// same input.
var queryExpansions = map[string]string{
	"how":     "method process steps",
	"why":     "reason cause explanation",
	"what":    "definition meaning",
	"when":    "time date period",
	"where":   "location place",
	"compare": "difference similarity versus",
	"explain": "explanation detail",
}

// QueryEnhancementStage normalizes the raw question and rewrites it for
// retrieval quality. Failures here are never fatal: the retrieval stage
// falls back to the cleaned question.
type QueryEnhancementStage struct {
	cache  *QueryCache
	logger *log.Logger
}

func NewQueryEnhancementStage(cache *QueryCache, logger *log.Logger) *QueryEnhancementStage {
	if logger == nil {
		logger = log.Default()
	}
	return &QueryEnhancementStage{
		cache:  cache,
		logger: logger,
	}
}

func (s *QueryEnhancementStage) Name() string {
	return "query_enhancement"
}

func (s *QueryEnhancementStage) Execute(ctx context.Context, sc *SearchContext) error {
	cleaned := CleanQuery(sc.Question)
	if cleaned == "" {
		return fmt.Errorf("question is empty after normalization")
	}

	if cached, ok := s.cache.Get(ctx, cleaned); ok {
		sc.RewrittenQuery = cached
		return nil
	}

	enhanced := expandQuery(cleaned)
	s.cache.Set(ctx, cleaned, enhanced)

	sc.RewrittenQuery = enhanced
	return nil
}

// CleanQuery collapses whitespace runs and strips control characters.
func CleanQuery(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	lastSpace := true
	for _, r := range raw {
		if unicode.IsControl(r) {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

// expandQuery appends keyword hints for recognized question leads. The
// original wording always survives at the front of the rewrite.
func expandQuery(cleaned string) string {
	lower := strings.ToLower(strings.TrimRight(cleaned, "?!."))
	words := strings.Fields(lower)
	if len(words) == 0 {
		return cleaned
	}

	seen := make(map[string]struct{})
	var hints []string
	for _, w := range words {
		expansion, ok := queryExpansions[w]
		if !ok {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		hints = append(hints, expansion)
	}

	if len(hints) == 0 {
		return cleaned
	}
	return cleaned + " " + strings.Join(hints, " ")
}
