package cot

import "strings"

var (
	comparisonMarkers = []string{"compare", "comparison", "versus", " vs ", " vs. ", "difference between", "better than", "worse than"}
	causalMarkers     = []string{"why ", "because", "cause", "reason", "lead to", "leads to", "result in", "results in"}
	proceduralMarkers = []string{"how to", "how do", "how does", "how can", "steps", "process", "procedure", "guide"}
	definitionMarkers = []string{"what is", "what are", "define", "definition", "meaning of", "who is"}

	connectiveMarkers = []string{" and then ", "; ", " but ", " and ", " or "}
)

// ClassifyQuestion detects the rhetorical type of a question from lexical
// cues. Order matters: comparison and causal phrasing win over the generic
// "what is" lead.
func ClassifyQuestion(question string) QuestionType {
	q := " " + strings.ToLower(strings.TrimSpace(question)) + " "
	switch {
	case containsAny(q, comparisonMarkers):
		return TypeComparison
	case containsAny(q, causalMarkers):
		return TypeCausal
	case containsAny(q, proceduralMarkers):
		return TypeProcedural
	case containsAny(q, definitionMarkers):
		return TypeDefinition
	default:
		return TypeAnalytical
	}
}

// LooksComplex reports whether a question warrants multi-step reasoning:
// multiple clauses, comparison or causal phrasing, or sheer length.
func LooksComplex(question string) bool {
	q := " " + strings.ToLower(strings.TrimSpace(question)) + " "
	if containsAny(q, connectiveMarkers) {
		return true
	}
	if containsAny(q, comparisonMarkers) || containsAny(q, causalMarkers) {
		return true
	}
	return len(strings.Fields(question)) > 15
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
