package adapters

import (
	"fmt"

	"github.com/eval-hub/eval-hub-adapters/internal/abstractions"
	"github.com/eval-hub/eval-hub-adapters/internal/messages"
	"github.com/eval-hub/eval-hub-adapters/internal/serviceerrors"
	"github.com/eval-hub/eval-hub-adapters/pkg/api"
)

const (
	DefaultImageRegistry = "ghcr.io/eval-hub"
	DefaultImageTag      = "latest"

	// FrameworkConfigKey is the backend configuration key naming the framework.
	FrameworkConfigKey = "framework"
)

// Optional capabilities an adapter may implement. The free functions below
// fall back to defaults when they are absent.
type (
	frameworkNamer interface {
		FrameworkName() string
	}
	versioner interface {
		Version() string
	}
	imageProvider interface {
		ContainerImage() string
	}
	benchmarkSupporter interface {
		SupportsBenchmark(benchmarkName string) bool
	}
)

// ImageFor derives the component image of a framework.
func ImageFor(registry string, framework string, tag string) string {
	if registry == "" {
		registry = DefaultImageRegistry
	}
	if tag == "" {
		tag = DefaultImageTag
	}
	return fmt.Sprintf("%s/%s-kfp:%s", registry, framework, tag)
}

// DefaultContainerImage is the image used when an adapter does not override it.
func DefaultContainerImage(framework string) string {
	return ImageFor(DefaultImageRegistry, framework, DefaultImageTag)
}

// FrameworkName returns the framework an adapter integrates, or "" if the
// adapter does not report one.
func FrameworkName(adapter abstractions.SchemaAdapter) string {
	if n, ok := adapter.(frameworkNamer); ok {
		return n.FrameworkName()
	}
	return ""
}

func Version(adapter abstractions.SchemaAdapter) string {
	if v, ok := adapter.(versioner); ok {
		return v.Version()
	}
	return ""
}

// ContainerImage returns the image of the adapter component.
func ContainerImage(adapter abstractions.SchemaAdapter) string {
	if p, ok := adapter.(imageProvider); ok {
		if image := p.ContainerImage(); image != "" {
			return image
		}
	}
	return DefaultContainerImage(FrameworkName(adapter))
}

// SupportsBenchmark defaults to true for adapters that do not restrict benchmarks.
func SupportsBenchmark(adapter abstractions.SchemaAdapter, benchmarkName string) bool {
	if s, ok := adapter.(benchmarkSupporter); ok {
		return s.SupportsBenchmark(benchmarkName)
	}
	return true
}

// ValidateFrameworkName implements the shared part of ValidateConfig: a config
// that names a framework must name the expected one.
func ValidateFrameworkName(expected string, adapterName string, config api.Map) error {
	value, ok := config.Lookup(FrameworkConfigKey)
	if !ok {
		return nil
	}
	if name, isString := value.AsString(); isString && name == expected {
		return nil
	}
	return serviceerrors.NewServiceError(messages.FrameworkMismatch, "Framework", value.Text(), "Adapter", adapterName, "Expected", expected)
}
