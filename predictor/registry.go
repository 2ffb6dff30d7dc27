package predictor

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRegistrySize bounds the number of distinct model files kept in memory.
const DefaultRegistrySize = 8

// Registry hands out long-lived predictor handles keyed by model file. A model file is read
// and decoded once per process as long as the number of distinct files stays within the
// registry size.
type Registry struct {
	mu     sync.Mutex
	cache  *lru.Cache[string, BatchPredictor]
	loader func(path string) (BatchPredictor, error)
	loads  int
}

func NewRegistry(size int) (*Registry, error) {
	if size < 1 {
		size = DefaultRegistrySize
	}
	cache, err := lru.NewWithEvict[string, BatchPredictor](size, func(path string, _ BatchPredictor) {
		slog.Warn("model evicted from registry, it will be reloaded on next use", "path", path)
	})
	if err != nil {
		return nil, fmt.Errorf("unable to initialize model registry, %w", err)
	}
	return &Registry{cache: cache, loader: Load}, nil
}

// Get returns the predictor for the model file at path, loading it on first use.
func (r *Registry) Get(path string) (BatchPredictor, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve model path %s, %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.cache.Get(key); ok {
		return p, nil
	}

	p, err := r.loader(key)
	if err != nil {
		return nil, err
	}
	r.loads++
	r.cache.Add(key, p)
	slog.Debug("model loaded", "path", key, "loads", r.loads)
	return p, nil
}

// Loads reports how many times a model file was read from disk.
func (r *Registry) Loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}
