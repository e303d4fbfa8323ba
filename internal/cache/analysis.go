package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/pipeline"
)

const (
	analysisKeyPrefix = "analysis:"
	resultKeyPrefix   = analysisKeyPrefix + "result"
	runKeyPrefix      = analysisKeyPrefix + "run"
)

// AnalysisCache stores completed results by input hash and by run id.
type AnalysisCache interface {
	GetByHash(ctx context.Context, inputHash string) (*pipeline.Result, bool, error)
	GetByRunID(ctx context.Context, runID string) (*pipeline.Result, bool, error)
	Set(ctx context.Context, res *pipeline.Result) error
	InvalidateAll(ctx context.Context) error
}

type redisAnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopAnalysisCache struct{}

// NewAnalysisCache connects to redis when caching is enabled and falls back
// to a cache that never hits otherwise.
func NewAnalysisCache(cfg config.CacheConfig) (AnalysisCache, error) {
	if !cfg.Enabled {
		return &noopAnalysisCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisAnalysisCache{client: client, ttl: ttl}, nil
}

func NewNoopAnalysisCache() AnalysisCache {
	return &noopAnalysisCache{}
}

func (c *redisAnalysisCache) GetByHash(ctx context.Context, inputHash string) (*pipeline.Result, bool, error) {
	return c.get(ctx, resultKey(inputHash))
}

func (c *redisAnalysisCache) GetByRunID(ctx context.Context, runID string) (*pipeline.Result, bool, error) {
	return c.get(ctx, runKey(runID))
}

func (c *redisAnalysisCache) get(ctx context.Context, key string) (*pipeline.Result, bool, error) {
	var res pipeline.Result
	found, err := getJSON(ctx, c.client, key, &res)
	if err != nil || !found {
		return nil, false, err
	}
	return &res, true, nil
}

func (c *redisAnalysisCache) Set(ctx context.Context, res *pipeline.Result) error {
	if res == nil || res.RunID == "" {
		return fmt.Errorf("cache: result without run id")
	}
	if res.InputHash != "" {
		if err := setJSON(ctx, c.client, resultKey(res.InputHash), res, c.ttl); err != nil {
			return err
		}
	}
	return setJSON(ctx, c.client, runKey(res.RunID), res, c.ttl)
}

func (c *redisAnalysisCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, analysisKeyPrefix, scanBatchSize)
}

func (n *noopAnalysisCache) GetByHash(ctx context.Context, inputHash string) (*pipeline.Result, bool, error) {
	return nil, false, nil
}

func (n *noopAnalysisCache) GetByRunID(ctx context.Context, runID string) (*pipeline.Result, bool, error) {
	return nil, false, nil
}

func (n *noopAnalysisCache) Set(ctx context.Context, res *pipeline.Result) error {
	return nil
}

func (n *noopAnalysisCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func resultKey(inputHash string) string {
	return fmt.Sprintf("%s:%s", resultKeyPrefix, inputHash)
}

func runKey(runID string) string {
	return fmt.Sprintf("%s:%s", runKeyPrefix, runID)
}
