package estimator

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/paveg/appraise/internal/parallel"
	"gonum.org/v1/gonum/mat"
)

// RandomForestFamily is the registry name of RandomForest.
const RandomForestFamily = "random_forest"

var forestParams = map[string]paramSpec{
	"n_estimators":      {def: 100, min: 1, max: 10000, integer: true},
	"max_depth":         {def: 0, min: 0, max: 1000, integer: true},
	"min_samples_split": {def: 2, min: 2, max: math.MaxInt32, integer: true},
	"min_samples_leaf":  {def: 1, min: 1, max: math.MaxInt32, integer: true},
	"max_features":      {def: 1, min: 0, max: 1},
}

// RandomForest averages regression trees grown on bootstrap samples.
// max_depth 0 means unlimited; max_features is the fraction of features
// considered at each split.
type RandomForest struct {
	params Params
	seed   int64
	pool   *parallel.WorkerPool
	trees  []*regressionTree
	width  int
}

// NewRandomForest validates params and returns an untrained forest. A nil
// pool fits trees on a pool sized to the machine.
func NewRandomForest(params Params, seed int64, pool *parallel.WorkerPool) (*RandomForest, error) {
	resolved, err := resolve(RandomForestFamily, forestParams, params)
	if err != nil {
		return nil, err
	}
	return &RandomForest{params: resolved, seed: seed, pool: pool}, nil
}

// Params returns the effective hyperparameters, defaults included.
func (f *RandomForest) Params() Params {
	return f.params.Clone()
}

// Fit grows n_estimators trees. Tree i uses a generator seeded from the
// forest seed and i, so the result does not depend on scheduling.
func (f *RandomForest) Fit(X mat.Matrix, y []float64) error {
	return f.FitContext(context.Background(), X, y)
}

// FitContext is Fit with cancellation; trees not yet started are skipped
// once ctx is done.
func (f *RandomForest) FitContext(ctx context.Context, X mat.Matrix, y []float64) error {
	if err := checkFit("RandomForest.Fit", X, y); err != nil {
		return err
	}
	rows := denseRows(X)
	n, width := len(rows), len(rows[0])

	cfg := treeConfig{
		maxDepth:        int(f.params["max_depth"]),
		minSamplesSplit: int(f.params["min_samples_split"]),
		minSamplesLeaf:  int(f.params["min_samples_leaf"]),
		maxFeatures:     int(math.Ceil(f.params["max_features"] * float64(width))),
	}
	if cfg.maxFeatures < 1 {
		cfg.maxFeatures = 1
	}

	pool := f.pool
	if pool == nil {
		pool = parallel.NewWorkerPool(0)
		defer pool.Close()
	}

	slots := make([]struct{}, int(f.params["n_estimators"]))
	trees, err := parallel.ProcessIndexedContext(ctx, pool, slots,
		func(_ context.Context, i int, _ struct{}) (*regressionTree, error) {
			rng := rand.New(rand.NewPCG(uint64(f.seed), uint64(i)))
			sample := make([]int, n)
			for k := range sample {
				sample[k] = rng.IntN(n)
			}
			return buildTree(rows, y, sample, cfg, rng), nil
		})
	if err != nil {
		return err
	}

	f.trees, f.width = trees, width
	return nil
}

// Predict returns the mean tree prediction for each row.
func (f *RandomForest) Predict(X mat.Matrix) ([]float64, error) {
	if err := checkPredict("RandomForest.Predict", X, f.width); err != nil {
		return nil, err
	}
	rows := denseRows(X)
	out := make([]float64, len(rows))
	for i, row := range rows {
		sum := 0.0
		for _, t := range f.trees {
			sum += t.predict(row)
		}
		out[i] = sum / float64(len(f.trees))
	}
	return out, nil
}

// NumTrees returns the number of fitted trees.
func (f *RandomForest) NumTrees() int {
	return len(f.trees)
}
