package storage

import (
	"errors"

	"github.com/GriffinCanCode/navcore/internal/infrastructure/resilience"
)

// guarded runs every call through a circuit breaker
type guarded struct {
	store   BlobStore
	breaker *resilience.Breaker
}

// WithBreaker wraps store so calls fail fast with resilience.ErrCircuitOpen
// while the backend keeps failing. ErrNotFound never counts as a failure when
// the breaker is built with IsBackendFailure.
func WithBreaker(store BlobStore, breaker *resilience.Breaker) BlobStore {
	return &guarded{store: store, breaker: breaker}
}

// IsBackendFailure reports errors that indicate an unhealthy backend
func IsBackendFailure(err error) bool {
	return err != nil && !errors.Is(err, ErrNotFound)
}

func (g *guarded) Put(key string, value []byte) error {
	return g.breaker.Do(func() error { return g.store.Put(key, value) })
}

func (g *guarded) Get(key string) ([]byte, error) {
	return resilience.Call(g.breaker, func() ([]byte, error) { return g.store.Get(key) })
}

func (g *guarded) Delete(key string) error {
	return g.breaker.Do(func() error { return g.store.Delete(key) })
}

func (g *guarded) Keys(prefix string) ([]string, error) {
	return resilience.Call(g.breaker, func() ([]string, error) { return g.store.Keys(prefix) })
}

func (g *guarded) Close() error {
	return g.store.Close()
}
