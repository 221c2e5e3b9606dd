package config

import (
	"slices"

	"github.com/eval-hub/eval-hub-adapters/internal/logging"
	"github.com/eval-hub/eval-hub-adapters/pkg/api"
)

type Config struct {
	Adapters *AdaptersConfig `mapstructure:"adapters"`
	Runtime  *api.Runtime    `mapstructure:"runtime"`
	Logging  logging.Options `mapstructure:"logging"`
}

// AdaptersConfig selects the built-in adapters and the images they run.
type AdaptersConfig struct {
	// Enabled lists the frameworks to register, empty means all built-ins.
	Enabled        []string          `mapstructure:"enabled,omitempty"`
	ImageRegistry  string            `mapstructure:"image_registry,omitempty"`
	ImageTag       string            `mapstructure:"image_tag,omitempty"`
	Images         map[string]string `mapstructure:"images,omitempty"`
	NamingStrategy string            `mapstructure:"naming_strategy,omitempty"`
}

func (c *AdaptersConfig) IsEnabled(framework string) bool {
	if c == nil || len(c.Enabled) == 0 {
		return true
	}
	return slices.Contains(c.Enabled, framework)
}

// K8s returns the configured job runtime, possibly nil.
func (c *Config) K8s() *api.K8sRuntime {
	if c == nil || c.Runtime == nil {
		return nil
	}
	return c.Runtime.K8s
}
