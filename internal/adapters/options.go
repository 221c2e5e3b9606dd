package adapters

import (
	"log/slog"

	"github.com/eval-hub/eval-hub-adapters/internal/adapters/transformers"
	"github.com/eval-hub/eval-hub-adapters/internal/metrics"
)

// Options are the construction arguments passed to adapter factories.
type Options struct {
	Logger         *slog.Logger
	Image          string
	NamingStrategy transformers.NamingStrategy
	Metrics        *metrics.Recorder
}

type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithImage(image string) Option {
	return func(o *Options) {
		o.Image = image
	}
}

func WithNamingStrategy(strategy transformers.NamingStrategy) Option {
	return func(o *Options) {
		o.NamingStrategy = strategy
	}
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(o *Options) {
		o.Metrics = recorder
	}
}

// NewOptions applies opts, later options win.
func NewOptions(opts ...Option) Options {
	o := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}
