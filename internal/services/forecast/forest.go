package forecast

import (
	"math"
	"math/rand"
)

// ForestConfig sizes the random forest.
type ForestConfig struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64
}

// Forest is a bagged ensemble of gini trees. Training is fully deterministic
// for a given (config, data) pair: each tree gets its own rng seeded from
// the base seed and tree index.
type Forest struct {
	trees []*treeNode
}

// TrainForest fits a forest on standardized features X and 0/1 labels y.
func TrainForest(X [][]float64, y []float64, cfg ForestConfig) *Forest {
	nFeatures := 0
	if len(X) > 0 {
		nFeatures = len(X[0])
	}

	tcfg := treeConfig{
		maxDepth:    cfg.MaxDepth,
		minLeaf:     cfg.MinLeaf,
		maxFeatures: int(math.Ceil(math.Sqrt(float64(nFeatures)))),
	}

	f := &Forest{trees: make([]*treeNode, cfg.Trees)}
	n := len(X)

	for t := 0; t < cfg.Trees; t++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(t)))

		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}

		f.trees[t] = buildTree(X, y, idx, tcfg, 0, rng)
	}
	return f
}

// ProbUp averages per-tree leaf probabilities for one row.
func (f *Forest) ProbUp(row []float64) float64 {
	if len(f.trees) == 0 {
		return 0.5
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees))
}
