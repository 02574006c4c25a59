package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTreeRespectsMaxDepth(t *testing.T) {
	rows := make([][]float64, 64)
	target := make([]float64, len(rows))
	sample := make([]int, len(rows))
	for i := range rows {
		rows[i] = []float64{float64(i)}
		target[i] = float64(i * i)
		sample[i] = i
	}

	grow := func(maxDepth int) *regressionTree {
		return buildTree(rows, target, sample, treeConfig{maxDepth: maxDepth, minSamplesSplit: 2, minSamplesLeaf: 1}, nil)
	}

	tests := []struct {
		name     string
		maxDepth int
	}{
		{"stump", 1},
		{"shallow", 3},
		{"deep", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.maxDepth, grow(tt.maxDepth).depth())
		})
	}

	t.Run("unlimited grows one row per leaf", func(t *testing.T) {
		tree := grow(0)
		assert.GreaterOrEqual(t, tree.depth(), 6)
		for _, row := range rows {
			assert.Equal(t, row[0]*row[0], tree.predict(row))
		}
	})
}
