package mapper

import (
	"ai-researcher-be/internal/dto"
	"ai-researcher-be/pkg/rag/cot"
)

func ToSourceAttributionDTO(src cot.SourceAttribution) dto.SourceAttributionDTO {
	return dto.SourceAttributionDTO{
		DocumentId: src.DocumentId.String(),
		Title:      src.Title,
		Relevance:  src.Relevance,
		Excerpt:    src.Excerpt,
		ChunkIndex: src.ChunkIndex,
		Rank:       src.Rank,
	}
}

func toSourceAttributionDTOs(sources []cot.SourceAttribution) []dto.SourceAttributionDTO {
	if len(sources) == 0 {
		return nil
	}
	out := make([]dto.SourceAttributionDTO, len(sources))
	for i, s := range sources {
		out[i] = ToSourceAttributionDTO(s)
	}
	return out
}

func ToReasoningStepDTO(step cot.ReasoningStep) dto.ReasoningStepDTO {
	return dto.ReasoningStepDTO{
		StepNumber:      step.StepNumber,
		SubQuestion:     step.SubQuestion,
		Answer:          step.Answer,
		Confidence:      step.Confidence,
		Sources:         toSourceAttributionDTOs(step.Sources),
		ExecutionTimeMs: step.ExecutionTime.Milliseconds(),
		TokenCost:       step.TokenCost,
	}
}

func ToCotOutputDTO(out *cot.Output) *dto.CotOutputDTO {
	if out == nil {
		return nil
	}

	steps := make([]dto.ReasoningStepDTO, len(out.Steps))
	for i, s := range out.Steps {
		steps[i] = ToReasoningStepDTO(s)
	}

	result := &dto.CotOutputDTO{
		OriginalQuestion: out.OriginalQuestion,
		FinalAnswer:      out.FinalAnswer,
		ReasoningSteps:   steps,
		Confidence:       out.Confidence,
		TotalTokens:      out.TotalTokens,
		Strategy:         string(out.Strategy),
	}

	if out.TotalTime > 0 {
		ms := out.TotalTime.Milliseconds()
		result.TotalTimeMs = &ms
	}

	if out.SourceSummary != nil {
		result.SourceSummary = &dto.SourceSummaryDTO{
			AllSources:     toSourceAttributionDTOs(out.SourceSummary.AllSources),
			PrimarySources: toSourceAttributionDTOs(out.SourceSummary.PrimarySources),
			StepSources:    out.SourceSummary.StepSources,
		}
	}

	return result
}
