package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/pipeline"
)

func TestDisabledCachesAreNoop(t *testing.T) {
	ctx := context.Background()

	ac, err := NewAnalysisCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, ac.Set(ctx, &pipeline.Result{RunID: "r1", InputHash: "h1"}))
	res, found, err := ac.GetByHash(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, res)
	_, found, err = ac.GetByRunID(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, ac.InvalidateAll(ctx))

	dc, err := NewDashboardCache(config.CacheConfig{})
	require.NoError(t, err)
	require.NoError(t, dc.SetDashboard(ctx, &domain.Dashboard{RunID: "r1"}))
	_, found, err = dc.GetDashboard(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "analysis:result:abc", resultKey("abc"))
	assert.Equal(t, "analysis:run:r-1", runKey("r-1"))
	assert.Equal(t, "dashboard:run:r-1", dashboardKey("r-1"))
}

func TestBuildRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.CacheConfig
		wantAddr string
		wantDB   int
		wantErr  bool
	}{
		{name: "defaults", cfg: config.CacheConfig{}, wantAddr: "127.0.0.1:6379"},
		{name: "host and port", cfg: config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2}, wantAddr: "cache:6380", wantDB: 2},
		{name: "url wins", cfg: config.CacheConfig{RedisURL: "redis://redis.internal:6390/3", RedisHost: "ignored"}, wantAddr: "redis.internal:6390", wantDB: 3},
		{name: "bad url", cfg: config.CacheConfig{RedisURL: "http://nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := buildRedisOptions(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, opts.Addr)
			assert.Equal(t, tt.wantDB, opts.DB)
		})
	}
}

func TestCacheTTL(t *testing.T) {
	assert.Equal(t, defaultCacheTTL, cacheTTL(config.CacheConfig{}))
	assert.Equal(t, 90*time.Second, cacheTTL(config.CacheConfig{AnalysisTTLSeconds: 90}))
}
