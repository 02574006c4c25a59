package estimator

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// GradientBoostingFamily is the registry name of GradientBoosting.
const GradientBoostingFamily = "gradient_boosting"

var boostingParams = map[string]paramSpec{
	"n_estimators":     {def: 100, min: 1, max: 10000, integer: true},
	"max_depth":        {def: 6, min: 1, max: 64, integer: true},
	"learning_rate":    {def: 0.3, min: 1e-9, max: 1},
	"min_child_weight": {def: 1, min: 0, max: math.MaxInt32},
	"reg_lambda":       {def: 1, min: 0, max: 1e9},
}

// GradientBoosting fits trees stagewise to squared-error residuals.
// Every sample has unit hessian, so min_child_weight bounds the number of
// rows per leaf and reg_lambda shrinks each leaf toward zero.
type GradientBoosting struct {
	params Params
	base   float64
	trees  []*regressionTree
	width  int
}

// NewGradientBoosting validates params and returns an untrained model.
// Boosting without row subsampling is deterministic, so it takes no seed.
func NewGradientBoosting(params Params) (*GradientBoosting, error) {
	resolved, err := resolve(GradientBoostingFamily, boostingParams, params)
	if err != nil {
		return nil, err
	}
	return &GradientBoosting{params: resolved}, nil
}

// Params returns the effective hyperparameters, defaults included.
func (g *GradientBoosting) Params() Params {
	return g.params.Clone()
}

// Fit starts from the mean target and adds n_estimators shrunken trees.
func (g *GradientBoosting) Fit(X mat.Matrix, y []float64) error {
	return g.FitContext(context.Background(), X, y)
}

// FitContext is Fit with cancellation checked between boosting rounds.
func (g *GradientBoosting) FitContext(ctx context.Context, X mat.Matrix, y []float64) error {
	if err := checkFit("GradientBoosting.Fit", X, y); err != nil {
		return err
	}
	rows := denseRows(X)
	n := len(rows)

	cfg := treeConfig{
		maxDepth:        int(g.params["max_depth"]),
		minSamplesSplit: 2,
		minChildWeight:  g.params["min_child_weight"],
		lambda:          g.params["reg_lambda"],
	}
	rate := g.params["learning_rate"]
	rounds := int(g.params["n_estimators"])

	base := stat.Mean(y, nil)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}
	sample := make([]int, n)
	for i := range sample {
		sample[i] = i
	}

	residual := make([]float64, n)
	trees := make([]*regressionTree, 0, rounds)
	for range rounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		t := buildTree(rows, residual, sample, cfg, nil)
		for i := range t.nodes {
			t.nodes[i].value *= rate
		}
		for i, row := range rows {
			pred[i] += t.predict(row)
		}
		trees = append(trees, t)
	}

	g.base, g.trees, g.width = base, trees, len(rows[0])
	return nil
}

// Predict returns base score plus the sum of tree outputs for each row.
func (g *GradientBoosting) Predict(X mat.Matrix) ([]float64, error) {
	if err := checkPredict("GradientBoosting.Predict", X, g.width); err != nil {
		return nil, err
	}
	rows := denseRows(X)
	out := make([]float64, len(rows))
	for i, row := range rows {
		v := g.base
		for _, t := range g.trees {
			v += t.predict(row)
		}
		out[i] = v
	}
	return out, nil
}

// NumTrees returns the number of boosting rounds fitted.
func (g *GradientBoosting) NumTrees() int {
	return len(g.trees)
}
