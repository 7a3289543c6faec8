package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-researcher-be/internal/dto"
	"ai-researcher-be/internal/mapper"
	"ai-researcher-be/internal/pkg/logger"
	"ai-researcher-be/internal/repository/unitofwork"
	"ai-researcher-be/pkg/llm"
	"ai-researcher-be/pkg/rag/cot"
	"ai-researcher-be/pkg/rag/pipeline"
	"ai-researcher-be/pkg/toolgateway"
	"ai-researcher-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// SearchCompletedTopic is the internal bus topic the recorder consumes.
const SearchCompletedTopic = "SEARCH_COMPLETED"

type ISearchService interface {
	Search(ctx context.Context, userId uuid.UUID, request *dto.SearchRequest) (*dto.SearchResponse, error)
}

// searchService runs the staged retrieval pipeline and, for complex
// questions, the chain-of-thought orchestrator on top of it.
type searchService struct {
	uowFactory   unitofwork.RepositoryFactory
	stageBuilder func() []pipeline.PipelineStage
	orchestrator *cot.Orchestrator
	gateway      *toolgateway.Client
	pubSub       *gochannel.GoChannel
	appLogger    logger.ILogger
	searchLogger *log.Logger
}

func NewSearchService(
	uowFactory unitofwork.RepositoryFactory,
	stageBuilder func() []pipeline.PipelineStage,
	orchestrator *cot.Orchestrator,
	gateway *toolgateway.Client,
	pubSub *gochannel.GoChannel,
	appLogger logger.ILogger,
) ISearchService {
	return &searchService{
		uowFactory:   uowFactory,
		stageBuilder: stageBuilder,
		orchestrator: orchestrator,
		gateway:      gateway,
		pubSub:       pubSub,
		appLogger:    appLogger,
		searchLogger: initSearchLogger(),
	}
}

func (s *searchService) Search(ctx context.Context, userId uuid.UUID, request *dto.SearchRequest) (*dto.SearchResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sc := &pipeline.SearchContext{
		Question:     request.Question,
		UserId:       userId,
		CollectionId: request.CollectionId,
		TopK:         request.TopK,
		UoW:          uow,
	}

	executor := pipeline.NewExecutor(s.searchLogger, s.stageBuilder()...)
	if err := executor.Execute(ctx, sc); err != nil {
		return nil, err
	}

	cotCfg := cot.ConfigFromRequest(request.Cot)
	if request.Cot == nil || request.Cot.Enabled == nil {
		// Caller left the decision to us: simple questions skip the
		// reasoning loop entirely.
		cotCfg.Enabled = cot.LooksComplex(sc.Question)
	}

	snippets := s.buildSnippets(ctx, sc)

	if cotCfg.Enabled {
		if err := s.runChainOfThought(ctx, sc, snippets, cotCfg); err != nil {
			return nil, err
		}
	}

	if sc.Answer == "" {
		if err := s.generatePlainAnswer(ctx, sc, snippets); err != nil {
			return nil, err
		}
	}

	s.publishCompleted(sc)

	s.appLogger.Info("SEARCH", "Search completed", map[string]interface{}{
		"user_id":     userId.String(),
		"cot_used":    sc.CotOutput != nil,
		"documents":   len(sc.Documents),
		"errors":      len(sc.Errors),
		"duration_ms": sc.Elapsed.Milliseconds(),
	})

	return &dto.SearchResponse{
		Answer:       sc.Answer,
		Documents:    sc.Documents,
		Cot:          mapper.ToCotOutputDTO(sc.CotOutput),
		TokenWarning: sc.TokenWarning,
		Errors:       sc.ErrorStrings(),
		DurationMs:   sc.Elapsed.Milliseconds(),
	}, nil
}

// runChainOfThought executes the reasoning loop. A provider error falls
// back to the plain answer path; invalid configuration is the caller's
// mistake and propagates.
func (s *searchService) runChainOfThought(ctx context.Context, sc *pipeline.SearchContext, snippets []cot.ContextSnippet, cfg cot.Config) error {
	out, err := s.orchestrator.Run(ctx, sc.Provider, sc.Question, snippets, cfg)
	if err != nil {
		if errors.Is(err, cot.ErrInvalidConfig) {
			return err
		}
		if errors.Is(err, cot.ErrDisabled) {
			return nil
		}
		if _, ok := llm.IsProviderError(err); ok {
			s.appLogger.Warn("SEARCH", "Reasoning run failed, falling back to plain answer", map[string]interface{}{
				"error": err.Error(),
			})
			sc.AddError("chain_of_thought", err)
			return nil
		}
		return err
	}

	sc.CotOutput = out
	sc.Answer = out.FinalAnswer
	if out.TotalTokens != nil {
		sc.TokenWarning = cot.BudgetWarning(*out.TotalTokens, sc.Question, len(out.Steps), cfg.TokenBudgetMultiplier)
	}
	return nil
}

// generatePlainAnswer is the single-shot fallback: one generation call over
// the retrieved context, no reasoning steps.
func (s *searchService) generatePlainAnswer(ctx context.Context, sc *pipeline.SearchContext, snippets []cot.ContextSnippet) error {
	if sc.Provider == nil {
		sc.Answer = cot.InsufficientInfoMessage
		return nil
	}

	var b strings.Builder
	if len(snippets) > 0 {
		b.WriteString("Answer the question using the context below.\n\nContext:\n")
		for _, sn := range snippets {
			b.WriteString("- ")
			b.WriteString(sn.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Question: ")
	b.WriteString(sc.Question)

	completion, err := sc.Provider.Generate(ctx, b.String(), llm.WithTemperature(0.3))
	if err != nil {
		return err
	}

	sc.Answer = strings.TrimSpace(completion.Text)
	if sc.Answer == "" {
		sc.Answer = cot.InsufficientInfoMessage
	}
	return nil
}

// buildSnippets maps retrieval results into reasoning context and adds
// best-effort tool-gateway enrichment. Gateway failures never surface.
func (s *searchService) buildSnippets(ctx context.Context, sc *pipeline.SearchContext) []cot.ContextSnippet {
	snippets := make([]cot.ContextSnippet, 0, len(sc.Results)+1)
	for _, r := range sc.Results {
		snippets = append(snippets, cot.ContextSnippet{
			DocumentId: r.DocumentId,
			Title:      r.Title,
			Content:    r.Content,
			Score:      r.Score,
			ChunkIndex: r.ChunkIndex,
			Rank:       r.Rank,
		})
	}

	if s.gateway == nil {
		return snippets
	}

	result := s.gateway.InvokeTool(ctx, "context_enrichment", map[string]interface{}{
		"question": sc.Question,
	})
	if result.Status != toolgateway.StatusOK {
		return snippets
	}
	if text, ok := result.Output["content"].(string); ok && text != "" {
		// Tool output is unbounded; chunk it and keep the leading pieces.
		chunks := utils.SplitText(text, 800, 100)
		if len(chunks) > 2 {
			chunks = chunks[:2]
		}
		for _, chunk := range chunks {
			snippets = append(snippets, cot.ContextSnippet{
				Title:   "Tool enrichment",
				Content: chunk,
				Score:   0.5,
				Rank:    len(snippets) + 1,
			})
		}
	}
	return snippets
}

// publishCompleted hands the finished search to the recorder over the
// in-process bus. Best-effort: a bus failure is logged, never surfaced.
func (s *searchService) publishCompleted(sc *pipeline.SearchContext) {
	msg := dto.SearchCompletedMessage{
		RecordId:       uuid.New(),
		UserId:         sc.UserId,
		CollectionId:   sc.CollectionId,
		Question:       sc.Question,
		RewrittenQuery: sc.RewrittenQuery,
		Answer:         sc.Answer,
		StageErrors:    sc.ErrorStrings(),
		DurationMs:     sc.Elapsed.Milliseconds(),
	}
	if sc.CotOutput != nil {
		if raw, err := json.Marshal(mapper.ToCotOutputDTO(sc.CotOutput)); err == nil {
			msg.CotOutput = raw
		}
		msg.TokensUsed = sc.CotOutput.TotalTokens
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		s.appLogger.Error("SEARCH", "Failed to marshal completion message", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := s.pubSub.Publish(SearchCompletedTopic, message.NewMessage(msg.RecordId.String(), payload)); err != nil {
		s.appLogger.Error("SEARCH", "Failed to publish completion message", map[string]interface{}{"error": err.Error()})
	}
}

func initSearchLogger() *log.Logger {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return log.Default()
	}
	f, err := os.OpenFile(filepath.Join(logDir, fmt.Sprintf("search_%s.log", time.Now().Format("2006-01-02"))),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return log.Default()
	}
	return log.New(f, "", log.LstdFlags)
}
