package estimator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paveg/appraise/internal/errors"
	"github.com/paveg/appraise/internal/parallel"
)

// Registry maps family names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in families. Forests fit
// their trees on pool; nil lets each fit size its own pool.
func NewRegistry(pool *parallel.WorkerPool) *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(RandomForestFamily, func(params Params, seed int64) (Estimator, error) {
		f, err := NewRandomForest(params, seed, pool)
		if err != nil {
			return nil, err
		}
		return f, nil
	})
	r.Register(GradientBoostingFamily, func(params Params, _ int64) (Estimator, error) {
		g, err := NewGradientBoosting(params)
		if err != nil {
			return nil, err
		}
		return g, nil
	})
	return r
}

// Register adds or replaces a family.
func (r *Registry) Register(family string, factory Factory) {
	r.factories[family] = factory
}

// Lookup returns the factory for family.
func (r *Registry) Lookup(family string) (Factory, error) {
	f, ok := r.factories[family]
	if !ok {
		return nil, errors.NewConfigError("Registry",
			fmt.Sprintf("unknown estimator family %q (known: %s)", family, strings.Join(r.Families(), ", ")))
	}
	return f, nil
}

// Families lists registered family names in sorted order.
func (r *Registry) Families() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
