package adapters

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"

	"github.com/eval-hub/eval-hub-adapters/internal/abstractions"
	"github.com/eval-hub/eval-hub-adapters/internal/messages"
	"github.com/eval-hub/eval-hub-adapters/internal/metrics"
	"github.com/eval-hub/eval-hub-adapters/internal/serviceerrors"
	"github.com/eval-hub/eval-hub-adapters/internal/validation"
)

// Factory constructs a new adapter instance. Factories must be pure: the
// registry calls them once when registering to check the adapter.
type Factory func(opts ...Option) (abstractions.SchemaAdapter, error)

type registration struct {
	factory       Factory
	componentName string
}

// Registry maps framework names to adapter factories. It is owned by the
// service root and passed to whatever needs to select an adapter. All
// operations are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]registration
	order    []string
	logger   *slog.Logger
	validate *validator.Validate
	recorder *metrics.Recorder
}

// NewRegistry creates an empty registry. The logger and recorder are also
// handed to every adapter the registry constructs; recorder may be nil.
func NewRegistry(logger *slog.Logger, validate *validator.Validate, recorder *metrics.Recorder) (*Registry, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if validate == nil {
		v, err := validation.NewValidator()
		if err != nil {
			return nil, err
		}
		validate = v
	}
	return &Registry{
		adapters: map[string]registration{},
		logger:   logger,
		validate: validate,
		recorder: recorder,
	}, nil
}

func (r *Registry) defaultOptions() []Option {
	return []Option{WithLogger(r.logger), WithMetrics(r.recorder)}
}

// Register binds a framework name to an adapter factory. Registering a name
// again replaces the previous binding (last write wins). The factory is
// rejected if the adapter it builds does not report a framework name or
// has an invalid component descriptor.
func (r *Registry) Register(frameworkName string, factory Factory) error {
	componentName, err := r.checkAdapter(frameworkName, factory)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, existing := range r.adapters {
		if name != frameworkName && existing.componentName == componentName {
			return serviceerrors.NewServiceError(messages.InvalidAdapter, "Framework", frameworkName,
				"Error", fmt.Sprintf("component name %s is already used by framework %s", componentName, name))
		}
	}

	if _, exists := r.adapters[frameworkName]; exists {
		r.logger.Info("Replacing adapter registration", "framework", frameworkName, "component", componentName)
	} else {
		r.order = append(r.order, frameworkName)
		r.logger.Info("Registered adapter", "framework", frameworkName, "component", componentName)
	}
	r.adapters[frameworkName] = registration{factory: factory, componentName: componentName}
	return nil
}

func (r *Registry) checkAdapter(frameworkName string, factory Factory) (string, error) {
	invalid := func(reason string, cause error) error {
		return serviceerrors.NewServiceError(messages.InvalidAdapter, "Framework", frameworkName, "Error", reason).WithCause(cause)
	}
	if factory == nil {
		return "", invalid("the factory is nil", nil)
	}
	adapter, err := factory(r.defaultOptions()...)
	if err != nil {
		return "", invalid(err.Error(), err)
	}
	if adapter == nil {
		return "", invalid("the factory returned no adapter", nil)
	}
	if FrameworkName(adapter) == "" {
		return "", invalid("the adapter does not report a framework name", nil)
	}
	descriptor := adapter.ComponentDescriptor()
	if err := r.validate.Struct(descriptor); err != nil {
		return "", invalid(err.Error(), serviceerrors.NewServiceError(messages.InvalidComponentDescriptor, "Name", descriptor.Name, "Error", err.Error()).WithCause(err))
	}
	return descriptor.Name, nil
}

// Get returns a new adapter instance for the framework. Nothing is cached,
// every call runs the factory with opts applied after the registry defaults.
func (r *Registry) Get(frameworkName string, opts ...Option) (abstractions.SchemaAdapter, error) {
	r.mu.RLock()
	reg, ok := r.adapters[frameworkName]
	available := slices.Clone(r.order)
	r.mu.RUnlock()

	r.recorder.AdapterLookup(frameworkName, ok)
	if !ok {
		return nil, serviceerrors.NewServiceError(messages.AdapterNotFound, "Framework", frameworkName, "Available", formatNames(available))
	}
	return reg.factory(append(r.defaultOptions(), opts...)...)
}

func (r *Registry) IsRegistered(frameworkName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[frameworkName]
	return ok
}

// List returns the registered framework names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Unregister removes a framework, it fails if the framework is not registered.
func (r *Registry) Unregister(frameworkName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.adapters[frameworkName]; !ok {
		return serviceerrors.NewServiceError(messages.AdapterNotRegistered, "Framework", frameworkName)
	}
	delete(r.adapters, frameworkName)
	r.order = slices.DeleteFunc(r.order, func(name string) bool { return name == frameworkName })
	r.logger.Info("Unregistered adapter", "framework", frameworkName)
	return nil
}

// Clear removes every registration. Intended for test isolation and shutdown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = map[string]registration{}
	r.order = nil
}

func IsNotFound(err error) bool {
	return serviceerrors.HasMessageCode(err, messages.AdapterNotFound)
}

func IsNotRegistered(err error) bool {
	return serviceerrors.HasMessageCode(err, messages.AdapterNotRegistered)
}

func IsInvalidAdapter(err error) bool {
	return serviceerrors.HasMessageCode(err, messages.InvalidAdapter)
}

func formatNames(names []string) string {
	return "[" + strings.Join(names, ", ") + "]"
}
