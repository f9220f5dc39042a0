package ratelimiter

import (
	"sync"
)

// Factory builds the limiter for a key on first use. Returning nil disables
// limiting for that key.
type Factory func(key string) Limiter

// Registry hands out one shared limiter per key, typically a provider name,
// so every orchestrator talking to the same upstream draws from one budget.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]Limiter
	factory  Factory
}

// NewRegistry creates an empty registry. A nil factory leaves unknown keys unlimited.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		limiters: make(map[string]Limiter),
		factory:  factory,
	}
}

// Get returns the limiter for key, creating it with the factory if needed.
func (r *Registry) Get(key string) Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[key]; ok {
		return l
	}
	var l Limiter
	if r.factory != nil {
		l = r.factory(key)
	}
	r.limiters[key] = l
	return l
}

// Set replaces the limiter for key.
func (r *Registry) Set(key string, limiter Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.limiters[key] = limiter
}
