// Package estimator provides tree ensemble regressors behind a small
// fit/predict contract, and a registry that builds them from named
// hyperparameters.
package estimator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/paveg/appraise/internal/errors"
	"github.com/paveg/appraise/internal/validation"
	"gonum.org/v1/gonum/mat"
)

// Estimator is a regressor trained on a feature matrix.
type Estimator interface {
	// Fit trains on X and y. Calling Fit again discards earlier training.
	Fit(X mat.Matrix, y []float64) error
	// Predict returns one prediction per row of X.
	Predict(X mat.Matrix) ([]float64, error)
}

// ContextFitter is implemented by estimators whose training stops once ctx
// is done.
type ContextFitter interface {
	FitContext(ctx context.Context, X mat.Matrix, y []float64) error
}

// FitContext trains est on X and y. Estimators that are not ContextFitters
// only see ctx checked before training starts.
func FitContext(ctx context.Context, est Estimator, X mat.Matrix, y []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cf, ok := est.(ContextFitter); ok {
		return cf.FitContext(ctx, X, y)
	}
	return est.Fit(X, y)
}

// Params holds hyperparameters by name. Integer parameters are carried as
// whole floats.
type Params map[string]float64

// String renders params sorted by name, e.g. "max_depth=10 n_estimators=200".
func (p Params) String() string {
	keys := p.Names()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, " ")
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Factory builds an untrained estimator from params and a seed.
type Factory func(params Params, seed int64) (Estimator, error)

// paramSpec describes one accepted hyperparameter.
type paramSpec struct {
	def     float64
	min     float64
	max     float64
	integer bool
}

// resolve merges params over defaults and rejects unknown names and values
// outside the accepted range.
func resolve(family string, specs map[string]paramSpec, params Params) (Params, error) {
	out := make(Params, len(specs))
	for name, spec := range specs {
		out[name] = spec.def
	}
	for _, name := range params.Names() {
		v := params[name]
		spec, ok := specs[name]
		if !ok {
			return nil, errors.NewConfigError(family, fmt.Sprintf("unknown parameter %q", name))
		}
		if math.IsNaN(v) || v < spec.min || v > spec.max {
			return nil, errors.NewConfigError(family,
				fmt.Sprintf("parameter %s=%g outside [%g, %g]", name, v, spec.min, spec.max))
		}
		if spec.integer && v != math.Trunc(v) {
			return nil, errors.NewConfigError(family, fmt.Sprintf("parameter %s=%g must be an integer", name, v))
		}
		out[name] = v
	}
	return out, nil
}

// denseRows copies X into row slices.
func denseRows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
		for j := range rows[i] {
			rows[i][j] = X.At(i, j)
		}
	}
	return rows
}

func checkFit(op string, X mat.Matrix, y []float64) error {
	if X == nil {
		return errors.NewValidationError(op, "", "nil feature matrix")
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewInsufficientDataError(op, r, 1)
	}
	return validation.ValidateLength(r, len(y), op, "targets")
}

func checkPredict(op string, X mat.Matrix, width int) error {
	if width == 0 {
		return errors.ErrNotFitted
	}
	if X == nil {
		return errors.NewValidationError(op, "", "nil feature matrix")
	}
	_, c := X.Dims()
	return validation.ValidateLength(width, c, op, "features")
}
