package forecast

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a classification tree. Leaves carry the fraction
// of positive samples that reached them.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	prob      float64
	leaf      bool
}

type treeConfig struct {
	maxDepth    int
	minLeaf     int
	maxFeatures int
}

// buildTree grows a gini-split tree on the given sample indices. The feature
// subset considered at each split is drawn from rng, which is what makes
// forest members differ beyond their bootstrap samples.
func buildTree(X [][]float64, y []float64, idx []int, cfg treeConfig, depth int, rng *rand.Rand) *treeNode {
	pos := 0
	for _, i := range idx {
		if y[i] == 1 {
			pos++
		}
	}
	prob := float64(pos) / float64(len(idx))

	if depth >= cfg.maxDepth || len(idx) < 2*cfg.minLeaf || pos == 0 || pos == len(idx) {
		return &treeNode{leaf: true, prob: prob}
	}

	feature, threshold, ok := bestSplit(X, y, idx, cfg, rng)
	if !ok {
		return &treeNode{leaf: true, prob: prob}
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) < cfg.minLeaf || len(rightIdx) < cfg.minLeaf {
		return &treeNode{leaf: true, prob: prob}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      buildTree(X, y, leftIdx, cfg, depth+1, rng),
		right:     buildTree(X, y, rightIdx, cfg, depth+1, rng),
	}
}

func bestSplit(X [][]float64, y []float64, idx []int, cfg treeConfig, rng *rand.Rand) (int, float64, bool) {
	nFeatures := len(X[idx[0]])
	candidates := rng.Perm(nFeatures)
	if cfg.maxFeatures > 0 && cfg.maxFeatures < nFeatures {
		candidates = candidates[:cfg.maxFeatures]
	}

	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	vals := make([]float64, len(idx))
	for _, f := range candidates {
		for k, i := range idx {
			vals[k] = X[i][f]
		}
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)

		for k := 0; k < len(sorted)-1; k++ {
			if sorted[k] == sorted[k+1] {
				continue
			}
			threshold := (sorted[k] + sorted[k+1]) / 2
			g := splitGini(X, y, idx, f, threshold)
			if g < bestGini {
				bestGini = g
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func splitGini(X [][]float64, y []float64, idx []int, feature int, threshold float64) float64 {
	var lTotal, lPos, rTotal, rPos float64
	for _, i := range idx {
		if X[i][feature] <= threshold {
			lTotal++
			lPos += y[i]
		} else {
			rTotal++
			rPos += y[i]
		}
	}
	if lTotal == 0 || rTotal == 0 {
		return math.Inf(1)
	}

	gini := func(total, pos float64) float64 {
		p := pos / total
		return 2 * p * (1 - p)
	}
	n := lTotal + rTotal
	return (lTotal/n)*gini(lTotal, lPos) + (rTotal/n)*gini(rTotal, rPos)
}

func (t *treeNode) predict(row []float64) float64 {
	node := t
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.prob
}
