package cot

import (
	"sort"

	"github.com/google/uuid"
)

// primarySourceCount is the size of the top-ranked subset.
const primarySourceCount = 3

// SourceAttributionAggregator merges per-step attributions into one
// deduplicated, ranked summary.
type SourceAttributionAggregator struct{}

func NewSourceAttributionAggregator() *SourceAttributionAggregator {
	return &SourceAttributionAggregator{}
}

// Aggregate dedupes attributions by document id, keeping the highest
// relevance seen per document. The per-step map covers every step that had
// at least one attribution.
func (a *SourceAttributionAggregator) Aggregate(steps []ReasoningStep) *SourceSummary {
	byDoc := make(map[uuid.UUID]SourceAttribution)
	stepSources := make(map[int][]string)

	for _, step := range steps {
		if len(step.Sources) == 0 {
			continue
		}
		seenInStep := make(map[uuid.UUID]struct{})
		for _, src := range step.Sources {
			existing, ok := byDoc[src.DocumentId]
			if !ok || src.Relevance > existing.Relevance {
				byDoc[src.DocumentId] = src
			}
			if _, dup := seenInStep[src.DocumentId]; dup {
				continue
			}
			seenInStep[src.DocumentId] = struct{}{}
			stepSources[step.StepNumber] = append(stepSources[step.StepNumber], src.DocumentId.String())
		}
	}

	all := make([]SourceAttribution, 0, len(byDoc))
	for _, src := range byDoc {
		all = append(all, src)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Relevance != all[j].Relevance {
			return all[i].Relevance > all[j].Relevance
		}
		return all[i].DocumentId.String() < all[j].DocumentId.String()
	})

	primaryN := primarySourceCount
	if primaryN > len(all) {
		primaryN = len(all)
	}
	primary := make([]SourceAttribution, primaryN)
	copy(primary, all[:primaryN])

	return &SourceSummary{
		AllSources:     all,
		PrimarySources: primary,
		StepSources:    stepSources,
	}
}
