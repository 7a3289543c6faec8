package cot

import (
	"errors"
	"fmt"

	"ai-researcher-be/internal/dto"
)

// Strategy labels the reasoning approach recorded on the output.
type Strategy string

const (
	StrategyDecomposition Strategy = "decomposition"
	StrategyIterative     Strategy = "iterative"
	StrategyHierarchical  Strategy = "hierarchical"
	StrategyCausal        Strategy = "causal"
)

// ErrInvalidConfig marks configuration validation failures. Invalid values
// fail the request, they are never silently defaulted.
var ErrInvalidConfig = errors.New("invalid chain-of-thought configuration")

// Config holds the validated chain-of-thought knobs.
type Config struct {
	Enabled               bool
	MaxReasoningDepth     int
	Strategy              Strategy
	ContextPreservation   bool
	TokenBudgetMultiplier float64
	EvaluationThreshold   float64
}

func DefaultConfig() Config {
	return Config{
		Enabled:               true,
		MaxReasoningDepth:     3,
		Strategy:              StrategyDecomposition,
		ContextPreservation:   true,
		TokenBudgetMultiplier: 1.5,
		EvaluationThreshold:   0.6,
	}
}

// ConfigFromRequest merges the caller's knobs over the defaults. Absent
// fields keep their default; present fields are taken as-is and validated
// by the orchestrator before use.
func ConfigFromRequest(req *dto.CotConfigRequest) Config {
	cfg := DefaultConfig()
	if req == nil {
		return cfg
	}
	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}
	if req.MaxReasoningDepth != nil {
		cfg.MaxReasoningDepth = *req.MaxReasoningDepth
	}
	if req.ReasoningStrategy != "" {
		cfg.Strategy = Strategy(req.ReasoningStrategy)
	}
	if req.ContextPreservation != nil {
		cfg.ContextPreservation = *req.ContextPreservation
	}
	if req.TokenBudgetMultiplier != nil {
		cfg.TokenBudgetMultiplier = *req.TokenBudgetMultiplier
	}
	if req.EvaluationThreshold != nil {
		cfg.EvaluationThreshold = *req.EvaluationThreshold
	}
	return cfg
}

func (c Config) Validate() error {
	if c.MaxReasoningDepth <= 0 {
		return fmt.Errorf("%w: max_reasoning_depth must be positive, got %d", ErrInvalidConfig, c.MaxReasoningDepth)
	}
	if c.TokenBudgetMultiplier <= 0 {
		return fmt.Errorf("%w: token_budget_multiplier must be positive, got %g", ErrInvalidConfig, c.TokenBudgetMultiplier)
	}
	if c.EvaluationThreshold < 0 || c.EvaluationThreshold > 1 {
		return fmt.Errorf("%w: evaluation_threshold must be within [0,1], got %g", ErrInvalidConfig, c.EvaluationThreshold)
	}
	switch c.Strategy {
	case StrategyDecomposition, StrategyIterative, StrategyHierarchical, StrategyCausal:
	default:
		return fmt.Errorf("%w: unknown reasoning_strategy %q", ErrInvalidConfig, c.Strategy)
	}
	return nil
}
