// internal/workers/garden/create-garden-plan/config.go
package creategardenplan

import (
	"time"

	"garden-planner/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig reads the worker timeout. Plan assembly runs several
// generative calls, so the default is longer than the other workers'.
func LoadConfig(w config.WorkerConfig) *Config {
	cfg := &Config{Timeout: 90 * time.Second}
	if w.Timeout > 0 {
		cfg.Timeout = config.GetDuration(w.Timeout)
	}
	return cfg
}
