// Package metrics scores regression predictions.
package metrics

import (
	"fmt"
	"math"

	"github.com/paveg/appraise/internal/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func check(op string, truth, pred []float64) error {
	if len(truth) == 0 {
		return errors.NewInsufficientDataError(op, 0, 1)
	}
	if len(truth) != len(pred) {
		return errors.NewValidationError(op, "",
			fmt.Sprintf("length mismatch: %d targets, %d predictions", len(truth), len(pred)))
	}
	return nil
}

// R2 returns the coefficient of determination of pred against truth. When
// truth is constant the score is 1 for an exact fit and 0 otherwise.
func R2(truth, pred []float64) (float64, error) {
	if err := check("R2", truth, pred); err != nil {
		return 0, err
	}
	if stat.Variance(truth, nil) == 0 || len(truth) == 1 {
		if floats.Equal(truth, pred) {
			return 1, nil
		}
		return 0, nil
	}
	return stat.RSquaredFrom(pred, truth, nil), nil
}

// MSE returns the mean squared error.
func MSE(truth, pred []float64) (float64, error) {
	if err := check("MSE", truth, pred); err != nil {
		return 0, err
	}
	d := floats.Distance(truth, pred, 2)
	return d * d / float64(len(truth)), nil
}

// RMSE returns the root mean squared error.
func RMSE(truth, pred []float64) (float64, error) {
	mse, err := MSE(truth, pred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE returns the mean absolute error.
func MAE(truth, pred []float64) (float64, error) {
	if err := check("MAE", truth, pred); err != nil {
		return 0, err
	}
	return floats.Distance(truth, pred, 1) / float64(len(truth)), nil
}

// Report bundles the scores of one prediction set.
type Report struct {
	R2   float64 `json:"r2" yaml:"r2"`
	MSE  float64 `json:"mse" yaml:"mse"`
	RMSE float64 `json:"rmse" yaml:"rmse"`
	MAE  float64 `json:"mae" yaml:"mae"`
}

// Evaluate computes every score.
func Evaluate(truth, pred []float64) (Report, error) {
	r2, err := R2(truth, pred)
	if err != nil {
		return Report{}, err
	}
	mse, _ := MSE(truth, pred)
	mae, _ := MAE(truth, pred)
	return Report{R2: r2, MSE: mse, RMSE: math.Sqrt(mse), MAE: mae}, nil
}
