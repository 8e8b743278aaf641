package driver

import (
	"log/slog"

	"github.com/mikeyobrien/tonic/internal/envconfig"
	"github.com/mikeyobrien/tonic/lang/cache"
	"github.com/mikeyobrien/tonic/lang/ir"
)

// cacheKeyFor computes the run cache key for source against the current
// working directory's project root (spec.md §3.7; lang/cache.BuildRunCacheKey
// never itself fails, but frontend treats a cache-key computation error as
// "skip the cache for this run" rather than a hard failure, since caching
// is an optimization, not a correctness requirement).
func cacheKeyFor(source string) (cache.CacheKey, error) {
	return cache.BuildRunCacheKey(source, ".")
}

func loadCachedIR(settings envconfig.Settings, key cache.CacheKey, logger *slog.Logger) (*ir.Program, error) {
	prog, err := cache.Load(settings.CacheRoot, key)
	if err != nil {
		return nil, err
	}
	if prog != nil {
		logger.Debug("ir cache hit", "key", key.String())
	} else {
		logger.Debug("ir cache miss", "key", key.String())
	}
	return prog, nil
}

func storeCachedIR(settings envconfig.Settings, key cache.CacheKey, prog *ir.Program, logger *slog.Logger) {
	if err := cache.Store(settings.CacheRoot, key, prog); err != nil {
		logger.Warn("failed to persist ir cache", "key", key.String(), "error", err)
	}
}
