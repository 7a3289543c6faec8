package main

import (
	"context"
	"log"
	"os"

	"ai-researcher-be/pkg/llm"
	"ai-researcher-be/pkg/llm/ollama"
	"ai-researcher-be/pkg/rag/cot"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

// Runs one chain-of-thought pass against a live Ollama instance and prints
// the decomposition, step results, and synthesis. No database required.
func main() {
	godotenv.Load()

	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "llama3"
	}

	question := "What is machine learning and how does it work?"
	if len(os.Args) > 1 {
		question = os.Args[1]
	}

	provider := llm.NewResilientProvider(ollama.NewOllamaProvider(baseURL, model), llm.DefaultResilienceConfig(), log.Default())
	orchestrator := cot.NewOrchestrator(5, log.Default())

	color.Cyan("Question: %s", question)
	color.Cyan("Model: %s (%s)\n", model, baseURL)

	decomposer := cot.NewQuestionDecomposer(log.Default())
	for _, sub := range decomposer.Decompose(question, 5) {
		color.Yellow("  [%d] %s (type=%s complexity=%.2f deps=%v)",
			sub.StepIndex, sub.Question, sub.Type, sub.Complexity, sub.DependsOn)
	}

	out, err := orchestrator.Run(context.Background(), provider, question, nil, cot.DefaultConfig())
	if err != nil {
		color.Red("Run failed: %v", err)
		os.Exit(1)
	}

	for _, step := range out.Steps {
		color.Green("\nStep %d: %s", step.StepNumber, step.SubQuestion)
		if step.Answer != nil {
			color.White("  %s", *step.Answer)
		}
		color.Magenta("  confidence=%.2f elapsed=%s", step.Confidence, step.ExecutionTime)
	}

	color.Cyan("\nFinal answer (confidence=%.2f, strategy=%s):", out.Confidence, out.Strategy)
	color.White("%s", out.FinalAnswer)
	if out.TotalTokens != nil {
		color.Magenta("tokens=%d elapsed=%s", *out.TotalTokens, out.TotalTime)
	}
}
