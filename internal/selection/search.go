package selection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/paveg/appraise/internal/errors"
	"github.com/paveg/appraise/internal/estimator"
	"github.com/paveg/appraise/internal/metrics"
	"github.com/paveg/appraise/internal/parallel"
	"github.com/paveg/appraise/internal/validation"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Grid lists the candidate values of each hyperparameter.
type Grid map[string][]float64

// Size returns the number of parameter combinations.
func (g Grid) Size() int {
	if len(g) == 0 {
		return 0
	}
	size := 1
	for _, values := range g {
		size *= len(values)
	}
	return size
}

// Validate rejects an empty grid and any parameter without candidates.
func (g Grid) Validate() error {
	if len(g) == 0 {
		return errors.NewConfigError("Grid", "hyperparameter grid is empty")
	}
	for name, values := range g {
		if len(values) == 0 {
			return errors.NewConfigError("Grid", fmt.Sprintf("parameter %q has no candidate values", name))
		}
	}
	return nil
}

// Enumerate returns every combination. Names are taken in sorted order and
// the last name varies fastest.
func (g Grid) Enumerate() []estimator.Params {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)

	out := []estimator.Params{{}}
	for _, name := range names {
		next := make([]estimator.Params, 0, len(out)*len(g[name]))
		for _, p := range out {
			for _, v := range g[name] {
				q := p.Clone()
				q[name] = v
				next = append(next, q)
			}
		}
		out = next
	}
	return out
}

// CrossValScore returns the R² of each fold, in fold order. Every fold
// trains a fresh estimator built with seed.
func CrossValScore(
	ctx context.Context,
	pool *parallel.WorkerPool,
	factory estimator.Factory,
	params estimator.Params,
	seed int64,
	X mat.Matrix,
	y []float64,
	k int,
) ([]float64, error) {
	n, _ := X.Dims()
	if err := validation.ValidateLength(n, len(y), "CrossValScore", "targets"); err != nil {
		return nil, err
	}
	folds, err := KFold(n, k)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		pool = parallel.NewWorkerPool(0)
		defer pool.Close()
	}

	return parallel.ProcessIndexedContext(ctx, pool, folds,
		func(ctx context.Context, _ int, fold Fold) (float64, error) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			est, err := factory(params, seed)
			if err != nil {
				return 0, err
			}
			if err := estimator.FitContext(ctx, est, Rows(X, fold.Train), Values(y, fold.Train)); err != nil {
				return 0, fmt.Errorf("fitting fold: %w", err)
			}
			pred, err := est.Predict(Rows(X, fold.Test))
			if err != nil {
				return 0, fmt.Errorf("predicting fold: %w", err)
			}
			return metrics.R2(Values(y, fold.Test), pred)
		})
}

// Search configures one randomized hyperparameter search.
type Search struct {
	Family  string
	Factory estimator.Factory
	Grid    Grid
	// NIter caps the number of sampled combinations.
	NIter int
	Folds int
	Seed  int64
	Pool  *parallel.WorkerPool
	// Logger receives per-candidate debug lines. Nil means slog.Default().
	Logger *slog.Logger
}

// Candidate is one scored combination.
type Candidate struct {
	Params     estimator.Params `json:"params" yaml:"params"`
	FoldScores []float64        `json:"fold_scores" yaml:"fold_scores"`
	MeanScore  float64          `json:"mean_score" yaml:"mean_score"`
}

// Result is the outcome of RandomizedSearch.
type Result struct {
	Family     string           `json:"family" yaml:"family"`
	BestParams estimator.Params `json:"best_params" yaml:"best_params"`
	// BestScore is the mean cross-validated R² of BestParams, computed by a
	// separate cross-validation run after the search.
	BestScore  float64     `json:"best_score" yaml:"best_score"`
	BestIndex  int         `json:"best_index" yaml:"best_index"`
	Candidates []Candidate `json:"candidates" yaml:"candidates"`
}

// RandomizedSearch samples min(NIter, grid size) distinct combinations with
// the seed, scores each by mean k-fold R² on X and y, and keeps the highest.
// On ties the earlier sampled candidate wins.
func RandomizedSearch(ctx context.Context, s Search, X mat.Matrix, y []float64) (*Result, error) {
	if err := s.Grid.Validate(); err != nil {
		return nil, err
	}
	if s.Factory == nil {
		return nil, errors.NewConfigError("RandomizedSearch", "no estimator factory")
	}
	if s.NIter < 1 {
		return nil, errors.NewConfigError("RandomizedSearch", fmt.Sprintf("n_iter %d must be positive", s.NIter))
	}
	if s.Folds < 2 {
		return nil, errors.NewConfigError("RandomizedSearch", fmt.Sprintf("fold count %d must be at least 2", s.Folds))
	}
	if n, _ := X.Dims(); n < s.Folds {
		return nil, errors.NewInsufficientDataError("RandomizedSearch", n, s.Folds)
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	all := s.Grid.Enumerate()
	draws := min(s.NIter, len(all))
	order := newRand(s.Seed).Perm(len(all))[:draws]

	res := &Result{Family: s.Family, BestIndex: -1, Candidates: make([]Candidate, 0, draws)}
	for i, pick := range order {
		params := all[pick]
		scores, err := CrossValScore(ctx, s.Pool, s.Factory, params, s.Seed, X, y, s.Folds)
		if err != nil {
			return nil, fmt.Errorf("scoring %s candidate %s: %w", s.Family, params, err)
		}
		mean := stat.Mean(scores, nil)
		res.Candidates = append(res.Candidates, Candidate{Params: params, FoldScores: scores, MeanScore: mean})
		logger.Debug("scored candidate", "family", s.Family, "index", i, "params", params.String(), "mean_r2", mean)

		if res.BestIndex < 0 || mean > res.Candidates[res.BestIndex].MeanScore {
			res.BestIndex = i
		}
	}

	res.BestParams = res.Candidates[res.BestIndex].Params.Clone()
	scores, err := CrossValScore(ctx, s.Pool, s.Factory, res.BestParams, s.Seed, X, y, s.Folds)
	if err != nil {
		return nil, fmt.Errorf("rescoring best %s candidate: %w", s.Family, err)
	}
	res.BestScore = stat.Mean(scores, nil)
	logger.Info("search finished", "family", s.Family, "candidates", draws, "best", res.BestParams.String(), "cv_r2", res.BestScore)
	return res, nil
}
