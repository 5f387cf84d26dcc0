package synth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// AnalysisCache is a TTL cache of analysis results keyed by model and
// sample content. It lets a long-lived engine skip the analysis call when
// the same sample comes around again.
type AnalysisCache struct {
	cache *ttlcache.Cache[string, string]
}

// NewAnalysisCache creates a cache with TTL-based expiration.
func NewAnalysisCache(ttl time.Duration) *AnalysisCache {
	c := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go c.Start()
	return &AnalysisCache{cache: c}
}

// Close stops the cache expiration loop.
func (ac *AnalysisCache) Close() {
	ac.cache.Stop()
}

// Get returns the cached analysis for model and sample, or false if absent
// or expired.
func (ac *AnalysisCache) Get(model, sample string) (string, bool) {
	item := ac.cache.Get(cacheKey(model, sample))
	if item == nil {
		return "", false
	}
	return item.Value(), true
}

// Set stores an analysis result.
func (ac *AnalysisCache) Set(model, sample, analysis string) {
	ac.cache.Set(cacheKey(model, sample), analysis, ttlcache.DefaultTTL)
}

// cacheKey hashes model and sample so large samples do not become map keys.
func cacheKey(model, sample string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(sample))
	return hex.EncodeToString(h.Sum(nil))
}
