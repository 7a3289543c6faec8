package directory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ai-researcher-be/internal/repository/contract"
	"ai-researcher-be/pkg/llm"
	"ai-researcher-be/pkg/llm/factory"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// ErrNoProvider means the user has no enabled LLM provider configured.
// Nothing downstream can proceed without one, so callers surface this as
// a configuration error.
var ErrNoProvider = errors.New("no llm provider configured for user")

// Directory resolves a user's provider record into a live LLMProvider
// handle. Handles are constructed on first use and memoized; the cache
// replaces the lazy-singleton pattern with an explicit, bounded one.
type Directory struct {
	providerRepo contract.LLMProviderRepository
	resilience   llm.ResilienceConfig
	cache        *gocache.Cache
	logger       *log.Logger
}

func NewDirectory(providerRepo contract.LLMProviderRepository, resilienceCfg llm.ResilienceConfig, logger *log.Logger) *Directory {
	if logger == nil {
		logger = log.Default()
	}
	return &Directory{
		providerRepo: providerRepo,
		resilience:   resilienceCfg,
		cache:        gocache.New(10*time.Minute, 15*time.Minute),
		logger:       logger,
	}
}

// GetUserProvider returns the memoized provider handle for a user,
// building it from the repository record on a cache miss. Handles are
// wrapped with retry and a circuit breaker before caching, so every
// request against the same handle shares one breaker.
func (d *Directory) GetUserProvider(ctx context.Context, userId uuid.UUID) (llm.LLMProvider, error) {
	key := userId.String()
	if cached, found := d.cache.Get(key); found {
		return cached.(llm.LLMProvider), nil
	}

	record, err := d.providerRepo.FindEnabledByUser(ctx, userId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoProvider
		}
		return nil, fmt.Errorf("lookup provider record: %w", err)
	}

	raw, err := factory.NewLLMProvider(record.ProviderType, record.ModelName, record.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("construct provider %q: %w", record.ProviderType, err)
	}
	provider := llm.NewResilientProvider(raw, d.resilience, d.logger)

	d.cache.Set(key, provider, gocache.DefaultExpiration)
	d.logger.Printf("[DIRECTORY] Resolved provider %s/%s for user %s", record.ProviderType, record.ModelName, key)

	return provider, nil
}

// Invalidate drops a user's memoized handle (after config changes).
func (d *Directory) Invalidate(userId uuid.UUID) {
	d.cache.Delete(userId.String())
}
