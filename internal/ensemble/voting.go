// Package ensemble combines fitted regressors by unweighted averaging.
package ensemble

import (
	"context"
	"fmt"

	"github.com/paveg/appraise/internal/errors"
	"github.com/paveg/appraise/internal/estimator"
	"gonum.org/v1/gonum/mat"
)

// Member is one named estimator of a Voting ensemble.
type Member struct {
	Name      string
	Estimator estimator.Estimator
}

// Voting predicts the arithmetic mean of its members' predictions. Members
// are fitted together by Fit and not changed afterwards.
type Voting struct {
	members []Member
	fitted  bool
}

// NewVoting returns an ensemble over members. Names must be unique.
func NewVoting(members ...Member) (*Voting, error) {
	if len(members) == 0 {
		return nil, errors.NewConfigError("Voting", "ensemble needs at least one member")
	}
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if m.Estimator == nil {
			return nil, errors.NewConfigError("Voting", fmt.Sprintf("member %q has no estimator", m.Name))
		}
		if seen[m.Name] {
			return nil, errors.NewConfigError("Voting", fmt.Sprintf("duplicate member %q", m.Name))
		}
		seen[m.Name] = true
	}
	return &Voting{members: append([]Member(nil), members...)}, nil
}

// Fit trains every member on X and y.
func (v *Voting) Fit(X mat.Matrix, y []float64) error {
	return v.FitContext(context.Background(), X, y)
}

// FitContext trains every member in order and stops once ctx is done.
func (v *Voting) FitContext(ctx context.Context, X mat.Matrix, y []float64) error {
	if v.fitted {
		return errors.NewValidationError("Voting.Fit", "", "ensemble is already fitted")
	}
	for _, m := range v.members {
		if err := estimator.FitContext(ctx, m.Estimator, X, y); err != nil {
			return fmt.Errorf("fitting member %s: %w", m.Name, err)
		}
	}
	v.fitted = true
	return nil
}

// Predict returns the mean member prediction per row.
func (v *Voting) Predict(X mat.Matrix) ([]float64, error) {
	per, err := v.PredictMembers(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(per[0]))
	for _, preds := range per {
		for i, p := range preds {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(per))
	}
	return out, nil
}

// PredictMembers returns each member's predictions in member order.
func (v *Voting) PredictMembers(X mat.Matrix) ([][]float64, error) {
	if !v.fitted {
		return nil, errors.ErrNotFitted
	}
	out := make([][]float64, len(v.members))
	for k, m := range v.members {
		preds, err := m.Estimator.Predict(X)
		if err != nil {
			return nil, fmt.Errorf("predicting with member %s: %w", m.Name, err)
		}
		out[k] = preds
	}
	return out, nil
}

// PredictOne predicts a single encoded row.
func (v *Voting) PredictOne(row []float64) (float64, error) {
	if len(row) == 0 {
		return 0, errors.NewValidationError("Voting.PredictOne", "", "empty feature row")
	}
	preds, err := v.Predict(mat.NewDense(1, len(row), row))
	if err != nil {
		return 0, err
	}
	return preds[0], nil
}

// Members returns the member names in order.
func (v *Voting) Members() []string {
	names := make([]string, len(v.members))
	for i, m := range v.members {
		names[i] = m.Name
	}
	return names
}
