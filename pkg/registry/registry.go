// Package registry maps model names to validated definitions. It is filled
// once at startup and read by every ORM call.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/marshallshelly/babyorm/pkg/runtime"
	"github.com/marshallshelly/babyorm/pkg/schema"
)

// Registry is a thread-safe registry of model definitions.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]*schema.Definition
}

// NewRegistry creates a new Registry instance.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]*schema.Definition),
	}
}

// Register validates def and stores a private copy under def.Name. Its
// Fields become the initial state of every copy returned by Get.
// Registering a name twice replaces the previous definition.
func (r *Registry) Register(def *schema.Definition) error {
	if def == nil {
		return fmt.Errorf("definition must not be nil")
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid model %s: %w", def.Name, err)
	}

	stored := def.Clone()

	r.mu.Lock()
	r.definitions[def.Name] = stored
	r.mu.Unlock()

	return nil
}

// RegisterStruct registers a definition built from the orm tags of model.
func (r *Registry) RegisterStruct(name string, model any) error {
	def, err := schema.FromStruct(name, model)
	if err != nil {
		return fmt.Errorf("failed to parse model %s: %w", name, err)
	}
	return r.Register(def)
}

// Get returns a fresh copy of the definition registered as name.
func (r *Registry) Get(name string) (*schema.Definition, error) {
	r.mu.RLock()
	def, ok := r.definitions[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &runtime.ModelNotFoundError{Name: name}
	}
	return def.Clone(), nil
}

// Has checks if a model name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	_, ok := r.definitions[name]
	r.mu.RUnlock()

	return ok
}

// Names returns all registered model names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// All returns a copy of every registered definition, sorted by name.
func (r *Registry) All() []*schema.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*schema.Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def.Clone())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	return defs
}

// Clear removes all registered models.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.definitions = make(map[string]*schema.Definition)
}

// globalRegistry is the default global registry instance.
var globalRegistry = NewRegistry()

// Default returns the global registry.
func Default() *Registry {
	return globalRegistry
}

// Register registers a definition in the global registry.
func Register(def *schema.Definition) error {
	return globalRegistry.Register(def)
}

// RegisterStruct registers a tagged struct in the global registry.
func RegisterStruct(name string, model any) error {
	return globalRegistry.RegisterStruct(name, model)
}

// Get retrieves a definition from the global registry.
func Get(name string) (*schema.Definition, error) {
	return globalRegistry.Get(name)
}

// Names returns the model names of the global registry.
func Names() []string {
	return globalRegistry.Names()
}

// Clear clears the global registry.
func Clear() {
	globalRegistry.Clear()
}
