// Package selection splits data and picks hyperparameters by randomized
// search scored with k-fold cross-validation.
package selection

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/paveg/appraise/internal/errors"
	"gonum.org/v1/gonum/mat"
)

// newRand returns the generator used for every seeded draw in this package.
func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0x5eed))
}

// TrainTestSplit partitions row indices 0..n-1 with one seeded permutation.
// The test part holds ceil(n*testFraction) rows.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int, err error) {
	if math.IsNaN(testFraction) || testFraction <= 0 || testFraction >= 1 {
		return nil, nil, errors.NewConfigError("TrainTestSplit",
			fmt.Sprintf("test fraction %g must be in (0, 1)", testFraction))
	}
	nTest := int(math.Ceil(float64(n) * testFraction))
	if n < 2 || nTest >= n {
		return nil, nil, errors.NewInsufficientDataError("TrainTestSplit", n, 2)
	}

	perm := newRand(seed).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// Fold is one cross-validation round.
type Fold struct {
	Train []int
	Test  []int
}

// KFold splits 0..n-1 into k contiguous test blocks, in order and without
// shuffling. The first n%k blocks hold one extra row.
func KFold(n, k int) ([]Fold, error) {
	if k < 2 {
		return nil, errors.NewConfigError("KFold", fmt.Sprintf("fold count %d must be at least 2", k))
	}
	if n < k {
		return nil, errors.NewInsufficientDataError("KFold", n, k)
	}

	folds := make([]Fold, k)
	start := 0
	for i := range folds {
		size := n / k
		if i < n%k {
			size++
		}
		test := make([]int, 0, size)
		train := make([]int, 0, n-size)
		for j := range n {
			if j >= start && j < start+size {
				test = append(test, j)
			} else {
				train = append(train, j)
			}
		}
		folds[i] = Fold{Train: train, Test: test}
		start += size
	}
	return folds, nil
}

// Rows copies the given rows of X into a new matrix.
func Rows(X mat.Matrix, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		for j := range c {
			out.Set(i, j, X.At(r, j))
		}
	}
	return out
}

// Values picks y[idx].
func Values(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}
