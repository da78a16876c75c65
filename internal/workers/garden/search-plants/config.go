// internal/workers/garden/search-plants/config.go
package searchplants

import (
	"time"

	"garden-planner/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// IndexTimeout bounds the Elasticsearch attempt so the store
	// fallback still has time to run.
	IndexTimeout time.Duration
}

func LoadConfig(w config.WorkerConfig) *Config {
	cfg := &Config{
		Timeout:      10 * time.Second,
		IndexTimeout: 3 * time.Second,
	}
	if w.Timeout > 0 {
		cfg.Timeout = config.GetDuration(w.Timeout)
	}
	if cfg.IndexTimeout > cfg.Timeout/2 {
		cfg.IndexTimeout = cfg.Timeout / 2
	}
	return cfg
}
