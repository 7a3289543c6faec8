package cot

import (
	"fmt"
	"math"
	"strings"
)

const (
	tokensPerWord     = 1.3
	tokensPerStepCost = 120
)

// EstimateTokens is the deterministic fallback when no step reported real
// usage: an explicit approximation from question length and step count, not
// a guess at provider-side cost.
func EstimateTokens(question string, stepCount int) int {
	words := len(strings.Fields(question))
	return int(math.Ceil(float64(words)*tokensPerWord)) + stepCount*tokensPerStepCost
}

// BudgetWarning returns a human-readable warning when total usage exceeds
// the configured multiple of the baseline estimate, or "" when within
// budget.
func BudgetWarning(totalTokens int, question string, stepCount int, multiplier float64) string {
	if totalTokens <= 0 || multiplier <= 0 {
		return ""
	}
	budget := int(math.Ceil(float64(EstimateTokens(question, stepCount)) * multiplier))
	if totalTokens <= budget {
		return ""
	}
	return fmt.Sprintf("token usage %d exceeded the reasoning budget of %d", totalTokens, budget)
}
