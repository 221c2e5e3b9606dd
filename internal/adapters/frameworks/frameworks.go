package frameworks

import (
	"slices"

	"github.com/eval-hub/eval-hub-adapters/internal/abstractions"
	"github.com/eval-hub/eval-hub-adapters/internal/adapters"
	"github.com/eval-hub/eval-hub-adapters/internal/adapters/frameworks/lighteval"
	"github.com/eval-hub/eval-hub-adapters/internal/adapters/transformers"
	"github.com/eval-hub/eval-hub-adapters/internal/config"
)

// Builtins are the framework integrations shipped with the service.
var Builtins = map[string]adapters.Factory{
	lighteval.FrameworkName: lighteval.New,
}

// RegisterBuiltins registers the enabled built-in frameworks, applying the
// configured images and naming strategy to each factory.
func RegisterBuiltins(registry *adapters.Registry, cfg *config.AdaptersConfig) error {
	for _, name := range BuiltinNames() {
		if !cfg.IsEnabled(name) {
			continue
		}
		if err := registry.Register(name, configure(name, Builtins[name], cfg)); err != nil {
			return err
		}
	}
	return nil
}

// BuiltinNames returns the built-in framework names in a stable order.
func BuiltinNames() []string {
	return []string{lighteval.FrameworkName}
}

func configure(name string, factory adapters.Factory, cfg *config.AdaptersConfig) adapters.Factory {
	configured := configuredOptions(name, cfg)
	if len(configured) == 0 {
		return factory
	}
	return func(opts ...adapters.Option) (abstractions.SchemaAdapter, error) {
		// configured options come first so that callers of Get can override them
		return factory(slices.Concat(configured, opts)...)
	}
}

func configuredOptions(name string, cfg *config.AdaptersConfig) []adapters.Option {
	if cfg == nil {
		return nil
	}
	var opts []adapters.Option
	if image, ok := cfg.Images[name]; ok && image != "" {
		opts = append(opts, adapters.WithImage(image))
	} else if cfg.ImageRegistry != "" || cfg.ImageTag != "" {
		opts = append(opts, adapters.WithImage(adapters.ImageFor(cfg.ImageRegistry, name, cfg.ImageTag)))
	}
	if cfg.NamingStrategy != "" {
		opts = append(opts, adapters.WithNamingStrategy(transformers.ParseNamingStrategy(cfg.NamingStrategy)))
	}
	return opts
}
