package estimator

import (
	"math"
	"math/rand/v2"
	"sort"
)

// treeConfig controls tree growth. A zero maxDepth grows until another limit
// stops it; a zero maxFeatures considers every feature at each split.
type treeConfig struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	minChildWeight  float64
	lambda          float64
	maxFeatures     int
}

// node is one tree node. Leaves have feature == -1.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

// regressionTree is a binary CART tree stored as a flat node slice, root first.
type regressionTree struct {
	nodes []node
}

// treeBuilder grows one tree over a row-major feature matrix. A split is
// scored by the reduction in sum^2/(n+lambda) over its children, which is
// variance reduction when lambda is zero and the second-order boosting gain
// under squared loss otherwise.
type treeBuilder struct {
	rows    [][]float64
	target  []float64
	cfg     treeConfig
	rng     *rand.Rand
	nodes   []node
	feature []int
}

func buildTree(rows [][]float64, target []float64, sample []int, cfg treeConfig, rng *rand.Rand) *regressionTree {
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	b := &treeBuilder{
		rows:    rows,
		target:  target,
		cfg:     cfg,
		rng:     rng,
		feature: make([]int, width),
	}
	for i := range b.feature {
		b.feature[i] = i
	}
	idx := append([]int(nil), sample...)
	b.grow(idx, 0)
	return &regressionTree{nodes: b.nodes}
}

func (b *treeBuilder) leafValue(idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += b.target[i]
	}
	return sum / (float64(len(idx)) + b.cfg.lambda)
}

func (b *treeBuilder) score(sum float64, n int) float64 {
	return sum * sum / (float64(n) + b.cfg.lambda)
}

// grow appends the subtree for idx and returns its node index.
func (b *treeBuilder) grow(idx []int, depth int) int {
	at := len(b.nodes)
	b.nodes = append(b.nodes, node{feature: -1, value: b.leafValue(idx)})

	if b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth {
		return at
	}
	if len(idx) < b.cfg.minSamplesSplit || len(idx) < 2 {
		return at
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return at
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[at] = node{feature: feature, threshold: threshold, left: l, right: r, value: b.nodes[at].value}
	return at
}

func (b *treeBuilder) candidates() []int {
	if b.cfg.maxFeatures <= 0 || b.cfg.maxFeatures >= len(b.feature) {
		return b.feature
	}
	b.rng.Shuffle(len(b.feature), func(i, j int) {
		b.feature[i], b.feature[j] = b.feature[j], b.feature[i]
	})
	picked := append([]int(nil), b.feature[:b.cfg.maxFeatures]...)
	sort.Ints(picked)
	return picked
}

func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	total := 0.0
	for _, i := range idx {
		total += b.target[i]
	}
	parent := b.score(total, len(idx))

	minLeaf := b.cfg.minSamplesLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}

	bestGain, bestFeature, bestThreshold := 1e-12, -1, 0.0
	order := make([]int, len(idx))

	for _, f := range b.candidates() {
		copy(order, idx)
		sort.SliceStable(order, func(a, c int) bool {
			return b.rows[order[a]][f] < b.rows[order[c]][f]
		})

		leftSum := 0.0
		for k := 0; k < len(order)-1; k++ {
			leftSum += b.target[order[k]]
			nl, nr := k+1, len(order)-k-1

			lo, hi := b.rows[order[k]][f], b.rows[order[k+1]][f]
			if lo == hi {
				continue
			}
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			if float64(nl) < b.cfg.minChildWeight || float64(nr) < b.cfg.minChildWeight {
				continue
			}

			gain := b.score(leftSum, nl) + b.score(total-leftSum, nr) - parent
			if gain > bestGain {
				bestGain, bestFeature, bestThreshold = gain, f, lo+(hi-lo)/2
			}
		}
	}

	if bestFeature < 0 || math.IsNaN(bestGain) {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// predict walks the tree for one row.
func (t *regressionTree) predict(row []float64) float64 {
	n := t.nodes[0]
	for n.feature >= 0 {
		if row[n.feature] <= n.threshold {
			n = t.nodes[n.left]
		} else {
			n = t.nodes[n.right]
		}
	}
	return n.value
}

// depth returns the longest root to leaf path.
func (t *regressionTree) depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.feature < 0 {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	return walk(0)
}
