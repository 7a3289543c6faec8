package cot

import (
	"log"
	"strings"
)

// connectivePriority orders boundaries strongest-first; a multi-part
// question is split at every occurrence of the strongest one present.
var connectivePriority = []struct {
	marker   string
	sequence bool // ordering implied, later clause depends on the earlier
}{
	{" and then ", true},
	{"; ", false},
	{" but ", false},
	{" and ", false},
	{" or ", false},
}

var pronounRefs = []string{" it ", " its ", " this ", " that ", " they ", " them ", " these ", " those "}

// causalVerbs split "why does X <verb> Y" into its subject and effect.
var causalVerbs = []string{"prevent", "cause", "lead", "affect", "improve", "reduce", "increase", "make", "result", "work"}

type clause struct {
	text     string
	sequence bool
}

// QuestionDecomposer splits a question into ordered, dependency-annotated
// sub-questions.
type QuestionDecomposer struct {
	logger *log.Logger
}

func NewQuestionDecomposer(logger *log.Logger) *QuestionDecomposer {
	if logger == nil {
		logger = log.Default()
	}
	return &QuestionDecomposer{logger: logger}
}

// Decompose produces at most maxDepth sub-questions with contiguous 1-based
// indices. A single-clause question yields exactly one sub-question with no
// dependencies; the causal two-step expansion only applies when the depth
// budget allows it.
func (d *QuestionDecomposer) Decompose(question string, maxDepth int) []DecomposedQuestion {
	question = strings.TrimSpace(question)
	if maxDepth < 1 {
		maxDepth = 1
	}

	clauses := splitClauses(question)

	if len(clauses) <= 1 {
		if ClassifyQuestion(question) == TypeCausal && maxDepth >= 2 {
			return d.causalPair(question)
		}
		return []DecomposedQuestion{{
			StepIndex:  1,
			Question:   question,
			Type:       ClassifyQuestion(question),
			Complexity: complexityScore(question),
		}}
	}

	clauses = mergeToDepth(clauses, maxDepth)

	steps := make([]DecomposedQuestion, 0, len(clauses))
	for i, c := range clauses {
		step := DecomposedQuestion{
			StepIndex:  i + 1,
			Question:   asQuestion(c.text),
			Type:       ClassifyQuestion(c.text),
			Complexity: complexityScore(c.text),
		}
		if i > 0 && (c.sequence || referencesPrevious(c.text)) {
			step.DependsOn = []int{i}
		}
		steps = append(steps, step)
	}

	d.logger.Printf("[COT] Decomposed question into %d steps (max_depth=%d)", len(steps), maxDepth)
	return steps
}

// causalPair expands "why does X ..." into a definitional sub-question
// about X followed by the causal question itself.
func (d *QuestionDecomposer) causalPair(question string) []DecomposedQuestion {
	subject := causalSubject(question)
	if subject == "" {
		return []DecomposedQuestion{{
			StepIndex:  1,
			Question:   question,
			Type:       TypeCausal,
			Complexity: complexityScore(question),
		}}
	}
	return []DecomposedQuestion{
		{
			StepIndex:  1,
			Question:   "What is " + subject + "?",
			Type:       TypeDefinition,
			Complexity: complexityScore(subject),
		},
		{
			StepIndex:  2,
			Question:   asQuestion(question),
			DependsOn:  []int{1},
			Type:       TypeCausal,
			Complexity: complexityScore(question),
		},
	}
}

func splitClauses(question string) []clause {
	lowered := strings.ToLower(question)
	for _, conn := range connectivePriority {
		if !strings.Contains(lowered, conn.marker) {
			continue
		}
		parts := splitIgnoreCase(question, conn.marker)
		clauses := make([]clause, 0, len(parts))
		for i, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			clauses = append(clauses, clause{text: p, sequence: conn.sequence && i > 0})
		}
		if len(clauses) > 1 {
			return clauses
		}
	}
	return []clause{{text: question}}
}

// splitIgnoreCase splits s at every occurrence of sep, matching without
// case sensitivity but preserving the original text of the parts.
func splitIgnoreCase(s, sep string) []string {
	var parts []string
	lowered := strings.ToLower(s)
	sep = strings.ToLower(sep)
	for {
		idx := strings.Index(lowered, sep)
		if idx < 0 {
			parts = append(parts, s)
			return parts
		}
		parts = append(parts, s[:idx])
		s = s[idx+len(sep):]
		lowered = lowered[idx+len(sep):]
	}
}

// mergeToDepth merges the lowest-complexity adjacent pair until the clause
// count fits the depth budget.
func mergeToDepth(clauses []clause, maxDepth int) []clause {
	for len(clauses) > maxDepth {
		best := 0
		bestScore := complexityScore(clauses[0].text) + complexityScore(clauses[1].text)
		for i := 1; i < len(clauses)-1; i++ {
			score := complexityScore(clauses[i].text) + complexityScore(clauses[i+1].text)
			if score < bestScore {
				best = i
				bestScore = score
			}
		}
		merged := clause{
			text:     trimQuestionMark(clauses[best].text) + " and " + clauses[best+1].text,
			sequence: clauses[best].sequence,
		}
		clauses = append(clauses[:best], append([]clause{merged}, clauses[best+2:]...)...)
	}
	return clauses
}

// complexityScore grows with clause length and the presence of comparison
// or causal markers, clamped to [0,1].
func complexityScore(text string) float64 {
	words := len(strings.Fields(text))
	score := float64(words) / 20.0
	lowered := " " + strings.ToLower(text) + " "
	if containsAny(lowered, comparisonMarkers) {
		score += 0.2
	}
	if containsAny(lowered, causalMarkers) {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	if score < 0.05 {
		score = 0.05
	}
	return score
}

func referencesPrevious(text string) bool {
	return containsAny(" "+strings.ToLower(text)+" ", pronounRefs)
}

func causalSubject(question string) string {
	q := strings.ToLower(trimQuestionMark(question))
	for _, lead := range []string{"why does ", "why do ", "why is ", "why are ", "why "} {
		if strings.HasPrefix(q, lead) {
			q = q[len(lead):]
			break
		}
	}
	words := strings.Fields(q)
	for i, w := range words {
		for _, v := range causalVerbs {
			if strings.HasPrefix(w, v) && i > 0 {
				return strings.Join(words[:i], " ")
			}
		}
	}
	if len(words) > 4 {
		words = words[:4]
	}
	return strings.Join(words, " ")
}

func asQuestion(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	if strings.HasSuffix(text, "?") || strings.HasSuffix(text, ".") {
		return text
	}
	return text + "?"
}

func trimQuestionMark(text string) string {
	return strings.TrimRight(strings.TrimSpace(text), "?!. ")
}
