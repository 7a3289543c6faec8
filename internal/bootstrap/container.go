package bootstrap

import (
	"context"
	"log"

	"ai-researcher-be/internal/config"
	"ai-researcher-be/internal/controller"
	"ai-researcher-be/internal/pkg/logger"
	"ai-researcher-be/internal/repository/implementation"
	"ai-researcher-be/internal/repository/unitofwork"
	"ai-researcher-be/internal/service"
	"ai-researcher-be/pkg/embedding"
	"ai-researcher-be/pkg/llm"
	"ai-researcher-be/pkg/llm/directory"
	"ai-researcher-be/pkg/rag/cot"
	"ai-researcher-be/pkg/rag/pipeline"
	ragsearch "ai-researcher-be/pkg/rag/search"
	"ai-researcher-be/pkg/resilience"
	"ai-researcher-be/pkg/toolgateway"

	pktNats "ai-researcher-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SearchController controller.ISearchController

	// Background services (exposed for main.go to run)
	RecorderService service.IRecorderService

	// Shared infrastructure
	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	breakerCfg := resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.Resilience.FailureThreshold,
		RecoveryTimeout:  cfg.Resilience.RecoveryTimeout,
	}

	embedGuard := embedding.DefaultResilienceConfig()
	embedGuard.Breaker = breakerCfg
	embeddingProvider := embedding.NewResilientProvider(
		embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel),
		embedGuard,
		log.Default(),
	)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)

	llmGuard := llm.DefaultResilienceConfig()
	llmGuard.Breaker = breakerCfg
	providerDirectory := directory.NewDirectory(
		implementation.NewLLMProviderRepository(db),
		llmGuard,
		log.Default(),
	)

	// 3.5 Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v (query cache disabled)", err)
		rdb = nil
	}

	var gateway *toolgateway.Client
	if cfg.ToolGateway.BaseURL != "" {
		gateway = toolgateway.NewClient(toolgateway.Config{
			BaseURL:          cfg.ToolGateway.BaseURL,
			BearerToken:      cfg.ToolGateway.BearerToken,
			RequestTimeout:   cfg.ToolGateway.RequestTimeout,
			HealthTimeout:    cfg.ToolGateway.HealthTimeout,
			MaxRetryAttempts: cfg.ToolGateway.MaxRetries,
			Breaker:          breakerCfg,
		}, log.Default())
		if err := gateway.HealthCheck(context.Background()); err != nil {
			log.Printf("[WARN] Tool gateway health check failed: %v (enrichment degraded)", err)
		}
	}

	// 4. Domain components
	retriever := ragsearch.NewRetriever(
		embeddingProvider,
		implementation.NewChunkEmbeddingRepository(db),
		implementation.NewDocumentRepository(db),
		log.Default(),
	)
	queryCache := pipeline.NewQueryCache(rdb)

	stageBuilder := func() []pipeline.PipelineStage {
		return []pipeline.PipelineStage{
			pipeline.NewResolutionStage(providerDirectory, log.Default()),
			pipeline.NewQueryEnhancementStage(queryCache, log.Default()),
			pipeline.NewRetrievalStage(retriever, cfg.Cot.DefaultTopK, log.Default()),
		}
	}

	orchestrator := cot.NewOrchestrator(cfg.Cot.SystemMaxDepth, log.Default())

	// 5. Services
	searchService := service.NewSearchService(
		uowFactory,
		stageBuilder,
		orchestrator,
		gateway,
		pubSub,
		sysLogger,
	)
	recorderService := service.NewRecorderService(
		pubSub,
		service.SearchCompletedTopic,
		uowFactory,
		natsPub,
	)

	// 6. Controllers
	return &Container{
		SearchController: controller.NewSearchController(searchService, gateway, cfg.App.JWTSecret),
		RecorderService:  recorderService,
		Logger:           sysLogger,
	}
}
