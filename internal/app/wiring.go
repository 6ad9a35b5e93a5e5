package app

import (
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hirelens/screener/internal/adapter/ai/real"
	"github.com/hirelens/screener/internal/adapter/ai/stub"
	"github.com/hirelens/screener/internal/config"
	"github.com/hirelens/screener/internal/service/ratelimiter"
	"github.com/hirelens/screener/internal/service/taxonomy"
	"github.com/hirelens/screener/internal/usecase"
)

// BuildModelClients assembles the escalation chain: primary model first,
// backup second. With AI_STUB set, a single deterministic stub replaces
// both. The optional redis client backs a shared quota across replicas.
func BuildModelClients(cfg config.Config, rdb *goredis.Client) []usecase.ModelClient {
	if cfg.AIStub {
		return []usecase.ModelClient{{Name: "stub", Client: stub.New()}}
	}

	limiter := buildModelLimiter(cfg, rdb)
	out := make([]usecase.ModelClient, 0, 2)
	for _, model := range []string{cfg.PrimaryModel, cfg.BackupModel} {
		if model == "" {
			continue
		}
		c := real.New(cfg, model)
		if limiter != nil {
			c.SetLimiter(limiter)
		}
		out = append(out, usecase.ModelClient{Name: model, Client: c})
	}
	return out
}

func buildModelLimiter(cfg config.Config, rdb *goredis.Client) *ratelimiter.RedisTokenBucket {
	if rdb == nil || cfg.OpenRouterMinInterval <= 0 {
		return nil
	}
	perMinute := int(time.Minute / cfg.OpenRouterMinInterval)
	buckets := map[string]ratelimiter.BucketConfig{}
	for _, model := range []string{cfg.PrimaryModel, cfg.BackupModel} {
		if model != "" {
			buckets[model] = ratelimiter.NewBucketConfigFromPerMinute(perMinute)
		}
	}
	return ratelimiter.NewRedisTokenBucket(rdb, buckets)
}

// BuildTaxonomy loads the skill extractor, applying the optional YAML
// signal override file from configuration.
func BuildTaxonomy(cfg config.Config) (*taxonomy.Extractor, error) {
	sig, err := taxonomy.LoadSignals(cfg.TaxonomySignalsFile)
	if err != nil {
		return nil, fmt.Errorf("op=app.build_taxonomy: %w", err)
	}
	return taxonomy.NewExtractor(sig), nil
}
