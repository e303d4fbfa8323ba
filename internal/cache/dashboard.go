package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
)

const dashboardKeyPrefix = "dashboard:run"

// DashboardCache stores rendered dashboards per run.
type DashboardCache interface {
	GetDashboard(ctx context.Context, runID string) (*domain.Dashboard, bool, error)
	SetDashboard(ctx context.Context, dashboard *domain.Dashboard) error
	InvalidateAll(ctx context.Context) error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

func NewDashboardCache(cfg config.CacheConfig) (DashboardCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDashboardCache{client: client, ttl: ttl}, nil
}

func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) GetDashboard(ctx context.Context, runID string) (*domain.Dashboard, bool, error) {
	var d domain.Dashboard
	found, err := getJSON(ctx, c.client, dashboardKey(runID), &d)
	if err != nil || !found {
		return nil, false, err
	}
	return &d, true, nil
}

func (c *redisDashboardCache) SetDashboard(ctx context.Context, dashboard *domain.Dashboard) error {
	return setJSON(ctx, c.client, dashboardKey(dashboard.RunID), dashboard, c.ttl)
}

func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, dashboardKeyPrefix, scanBatchSize)
}

func (n *noopDashboardCache) GetDashboard(ctx context.Context, runID string) (*domain.Dashboard, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) SetDashboard(ctx context.Context, dashboard *domain.Dashboard) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func dashboardKey(runID string) string {
	return fmt.Sprintf("%s:%s", dashboardKeyPrefix, runID)
}
