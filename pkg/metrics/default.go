package metrics

import "sync"

var (
	defaultMu       sync.Mutex
	defaultRegistry *Registry
)

// Init creates the process-wide registry returned by Default. It is meant
// to be called once at startup; calling it again replaces the registry.
func Init(config Config) (*Registry, error) {
	r, err := NewRegistryWithConfig(config)
	if err != nil {
		return nil, err
	}
	defaultMu.Lock()
	defaultRegistry = r
	defaultMu.Unlock()
	return r, nil
}

// Default returns the process-wide registry, creating one with the default
// configuration if Init was never called.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		defaultRegistry = NewRegistry()
	}
	return defaultRegistry
}
