package cache

import (
	"github.com/vidinfra/revalloc/internal/logger"
)

// Initialize initializes the cache system
func Initialize(log *logger.Logger) *InMemoryCache {
	log.Info("initializing cache system")

	InitializeInMemoryCache()

	return GetInMemoryCache()
}
