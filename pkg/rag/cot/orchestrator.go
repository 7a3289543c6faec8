package cot

import (
	"context"
	"errors"
	"log"
	"time"

	"ai-researcher-be/pkg/llm"
)

// ErrDisabled is returned when a run is requested with chain-of-thought
// turned off; callers fall back to the plain search answer.
var ErrDisabled = errors.New("chain-of-thought is disabled")

// Orchestrator composes decomposition, sequential step execution, source
// aggregation, and answer synthesis into one reasoning run. Steps run
// strictly in order: each step's context depends on the cumulative output
// of all prior steps.
type Orchestrator struct {
	decomposer  *QuestionDecomposer
	executor    *ReasoningStepExecutor
	aggregator  *SourceAttributionAggregator
	synthesizer *AnswerSynthesizer

	systemMaxDepth int
	logger         *log.Logger
}

func NewOrchestrator(systemMaxDepth int, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	if systemMaxDepth < 1 {
		systemMaxDepth = 5
	}
	return &Orchestrator{
		decomposer:     NewQuestionDecomposer(logger),
		executor:       NewReasoningStepExecutor(logger),
		aggregator:     NewSourceAttributionAggregator(),
		synthesizer:    NewAnswerSynthesizer(logger),
		systemMaxDepth: systemMaxDepth,
		logger:         logger,
	}
}

// Run executes one chain-of-thought pass. A provider error on any step
// stops the run and propagates; completed steps are never rolled back.
func (o *Orchestrator) Run(
	ctx context.Context,
	provider llm.LLMProvider,
	question string,
	snippets []ContextSnippet,
	cfg Config,
) (*Output, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	started := time.Now()

	depth := cfg.MaxReasoningDepth
	if depth > o.systemMaxDepth {
		depth = o.systemMaxDepth
	}

	subQuestions := o.decomposer.Decompose(question, depth)

	steps := make([]ReasoningStep, 0, len(subQuestions))
	var previousAnswers []string
	for _, sub := range subQuestions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fedAnswers := previousAnswers
		if !cfg.ContextPreservation {
			fedAnswers = nil
		}

		step, err := o.executor.Execute(ctx, provider, sub, snippets, fedAnswers)
		if err != nil {
			return nil, err
		}
		steps = append(steps, *step)

		if step.Answer != nil && *step.Answer != "" {
			previousAnswers = append(previousAnswers, *step.Answer)
		}
		if step.Confidence < cfg.EvaluationThreshold {
			o.logger.Printf("[COT] Step %d confidence %.2f below threshold %.2f",
				step.StepNumber, step.Confidence, cfg.EvaluationThreshold)
		}
	}

	summary := o.aggregator.Aggregate(steps)
	answer := o.synthesizer.Synthesize(steps)
	if len(previousAnswers) > 1 {
		answer = o.synthesizer.Refine(ctx, provider, question, answer)
	}

	out := &Output{
		OriginalQuestion: question,
		FinalAnswer:      answer,
		Steps:            steps,
		SourceSummary:    summary,
		Confidence:       meanConfidence(steps),
		TotalTime:        time.Since(started),
		Strategy:         cfg.Strategy,
	}

	total, reported := sumTokenCosts(steps)
	if !reported {
		total = EstimateTokens(question, len(steps))
	}
	out.TotalTokens = &total

	o.logger.Printf("[COT] Run complete: steps=%d confidence=%.2f tokens=%d elapsed=%s",
		len(steps), out.Confidence, total, out.TotalTime.Round(time.Millisecond))
	return out, nil
}

// meanConfidence is the arithmetic mean of step confidences, 0.0 for an
// empty run.
func meanConfidence(steps []ReasoningStep) float64 {
	if len(steps) == 0 {
		return 0.0
	}
	var sum float64
	for _, s := range steps {
		sum += s.Confidence
	}
	return sum / float64(len(steps))
}

// sumTokenCosts totals reported step costs. The second return is false when
// no step reported any, signalling the caller to fall back to an estimate.
func sumTokenCosts(steps []ReasoningStep) (int, bool) {
	var total int
	reported := false
	for _, s := range steps {
		if s.TokenCost != nil {
			total += *s.TokenCost
			reported = true
		}
	}
	return total, reported
}
