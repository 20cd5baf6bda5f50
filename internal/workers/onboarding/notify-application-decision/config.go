// internal/workers/onboarding/notify-application-decision/config.go
package notifyapplicationdecision

import (
	"fmt"
	"time"

	"hospital-onboarding/internal/common/config"
	"hospital-onboarding/pkg/registry"
)

type Config struct {
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}

// LoadConfig takes the timeout from the worker config, then the registry.
func LoadConfig(wcfg config.WorkerConfig, reg *registry.ActivityRegistry) *Config {
	cfg := DefaultConfig()
	if activity, ok := reg.Find(TaskType); ok {
		cfg.Timeout = activity.TimeoutDuration(cfg.Timeout)
	}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
