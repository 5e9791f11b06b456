package promptcache

import (
	"sync"
	"time"

	"github.com/gptportal/portal-go/internal/models"
)

// Usage carries the cache-relevant token counts a vendor reports after a call.
type Usage struct {
	InputTokens              int
	CacheCreationInputTokens int
	CacheReadInputTokens     int
}

// ModelStats are the per-model cumulative counters.
type ModelStats struct {
	Requests       int     `json:"requests"`
	CacheHits      int     `json:"cache_hits"`
	CacheMisses    int     `json:"cache_misses"`
	CacheCreations int     `json:"cache_creations"`
	TokensSaved    int     `json:"tokens_saved"`
	CostSavingsUSD float64 `json:"cost_savings_usd"`
}

// Snapshot is a point-in-time copy of the analytics counters.
type Snapshot struct {
	Requests       int                   `json:"requests"`
	CacheAttempts  int                   `json:"cache_attempts"`
	CacheHits      int                   `json:"cache_hits"`
	CacheMisses    int                   `json:"cache_misses"`
	HitRate        float64               `json:"hit_rate"`
	TokensSaved    int                   `json:"tokens_saved"`
	CostSavingsUSD float64               `json:"cost_savings_usd"`
	ByModel        map[string]ModelStats `json:"by_model"`
	Timestamp      time.Time             `json:"timestamp"`
}

type analytics struct {
	mu sync.Mutex

	requests       int
	cacheAttempts  int
	cacheHits      int
	cacheMisses    int
	tokensSaved    int
	costSavingsUSD float64
	byModel        map[string]*ModelStats
}

func newAnalytics() analytics {
	return analytics{byModel: make(map[string]*ModelStats)}
}

func (a *analytics) countRequest(modelID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests++
	a.modelStatsLocked(modelID).Requests++
}

func (a *analytics) countAttempt() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cacheAttempts++
}

func (a *analytics) modelStatsLocked(modelID string) *ModelStats {
	stats, ok := a.byModel[modelID]
	if !ok {
		stats = &ModelStats{}
		a.byModel[modelID] = stats
	}
	return stats
}

// TrackPerformance records the outcome of a completed vendor call that
// attempted caching. Cache reads are priced at 10% of the model's normal
// input rate for the savings estimate.
func (e *Engine) TrackPerformance(modelID string, usage Usage, attempted bool) {
	if !e.cfg.EnableAnalytics || !attempted {
		return
	}

	a := &e.analytics
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := a.modelStatsLocked(modelID)

	if usage.CacheCreationInputTokens > 0 {
		stats.CacheCreations++
	}

	switch {
	case usage.CacheReadInputTokens > 0:
		a.cacheHits++
		stats.CacheHits++
		a.tokensSaved += usage.CacheReadInputTokens
		stats.TokensSaved += usage.CacheReadInputTokens

		if pricing, ok := models.Price(modelID); ok {
			regular := float64(usage.CacheReadInputTokens) * pricing.Input / 1e6
			saved := regular * 0.9
			a.costSavingsUSD += saved
			stats.CostSavingsUSD += saved
		}
	case usage.InputTokens > 0:
		a.cacheMisses++
		stats.CacheMisses++
	}
}

// Snapshot returns a copy of all counters.
func (e *Engine) Snapshot() Snapshot {
	a := &e.analytics
	a.mu.Lock()
	defer a.mu.Unlock()

	byModel := make(map[string]ModelStats, len(a.byModel))
	for id, stats := range a.byModel {
		byModel[id] = *stats
	}

	hitRate := 0.0
	if a.cacheAttempts > 0 {
		hitRate = float64(a.cacheHits) / float64(a.cacheAttempts) * 100
	}

	return Snapshot{
		Requests:       a.requests,
		CacheAttempts:  a.cacheAttempts,
		CacheHits:      a.cacheHits,
		CacheMisses:    a.cacheMisses,
		HitRate:        hitRate,
		TokensSaved:    a.tokensSaved,
		CostSavingsUSD: a.costSavingsUSD,
		ByModel:        byModel,
		Timestamp:      time.Now(),
	}
}

// Reset clears all counters. Useful for tests and the explicit reset route.
func (e *Engine) Reset() {
	a := &e.analytics
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = 0
	a.cacheAttempts = 0
	a.cacheHits = 0
	a.cacheMisses = 0
	a.tokensSaved = 0
	a.costSavingsUSD = 0
	a.byModel = make(map[string]*ModelStats)
}
