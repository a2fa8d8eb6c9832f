package categorize

import (
	"math"
	"math/rand"
	"sort"
)

const defaultTreeCount = 100

// treeNode is one node of a decision tree, stored in a flat slice so the
// whole tree serializes as plain data. Leaf nodes have Left == -1.
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Class     int     `json:"c"`
}

// Tree is a CART classification tree split on gini impurity.
type Tree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t *Tree) predict(x []float64) int {
	i := 0
	for t.Nodes[i].Left != -1 {
		if x[t.Nodes[i].Feature] <= t.Nodes[i].Threshold {
			i = t.Nodes[i].Left
		} else {
			i = t.Nodes[i].Right
		}
	}
	return t.Nodes[i].Class
}

// Forest is a random forest classifier: bagged gini trees with per-node
// feature subsampling, majority vote at predict time.
type Forest struct {
	Trees      []Tree `json:"trees"`
	NumClasses int    `json:"num_classes"`
}

// TrainForest fits a forest of bagged trees. Each tree sees a bootstrap
// sample of the rows and considers sqrt(feature count) random features at
// every split.
func TrainForest(x [][]float64, y []int, numClasses int, seed int64) *Forest {
	rng := rand.New(rand.NewSource(seed))
	mtry := int(math.Sqrt(float64(len(x[0]))))
	if mtry < 1 {
		mtry = 1
	}

	f := &Forest{NumClasses: numClasses, Trees: make([]Tree, defaultTreeCount)}
	for t := range f.Trees {
		idx := make([]int, len(x))
		for i := range idx {
			idx[i] = rng.Intn(len(x))
		}
		b := treeBuilder{x: x, y: y, numClasses: numClasses, mtry: mtry, rng: rng}
		b.grow(idx)
		f.Trees[t] = Tree{Nodes: b.nodes}
	}
	return f
}

// Predict returns the majority-vote class and the fraction of trees that
// voted for it.
func (f *Forest) Predict(x []float64) (class int, confidence float64) {
	votes := make([]int, f.NumClasses)
	for i := range f.Trees {
		votes[f.Trees[i].predict(x)]++
	}
	best := 0
	for c, n := range votes {
		if n > votes[best] {
			best = c
		}
	}
	return best, float64(votes[best]) / float64(len(f.Trees))
}

type treeBuilder struct {
	x          [][]float64
	y          []int
	numClasses int
	mtry       int
	rng        *rand.Rand
	nodes      []treeNode
}

func (b *treeBuilder) grow(idx []int) int {
	node := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Left: -1, Right: -1})

	counts := make([]int, b.numClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	majority := 0
	for c, n := range counts {
		if n > counts[majority] {
			majority = c
		}
	}
	b.nodes[node].Class = majority

	if len(idx) < 2 || counts[majority] == len(idx) {
		return node
	}

	feature, threshold, ok := b.bestSplit(idx, counts)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return node
	}

	b.nodes[node].Feature = feature
	b.nodes[node].Threshold = threshold
	b.nodes[node].Left = b.grow(left)
	b.nodes[node].Right = b.grow(right)
	return node
}

// bestSplit scans a random feature subset for the threshold with the lowest
// weighted gini impurity. Returns ok=false when no feature in the subset has
// two distinct values.
func (b *treeBuilder) bestSplit(idx []int, counts []int) (feature int, threshold float64, ok bool) {
	features := b.rng.Perm(len(b.x[0]))[:b.mtry]
	bestGini := math.Inf(1)

	leftCounts := make([]int, b.numClasses)
	rightCounts := make([]int, b.numClasses)

	for _, f := range features {
		ordered := make([]int, len(idx))
		copy(ordered, idx)
		sort.Slice(ordered, func(i, j int) bool { return b.x[ordered[i]][f] < b.x[ordered[j]][f] })

		for c := range leftCounts {
			leftCounts[c] = 0
			rightCounts[c] = counts[c]
		}
		for i := 0; i < len(ordered)-1; i++ {
			c := b.y[ordered[i]]
			leftCounts[c]++
			rightCounts[c]--

			cur, next := b.x[ordered[i]][f], b.x[ordered[i+1]][f]
			if cur == next {
				continue
			}
			g := weightedGini(leftCounts, rightCounts, i+1, len(ordered)-i-1)
			if g < bestGini {
				bestGini = g
				feature = f
				threshold = (cur + next) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func weightedGini(left, right []int, nLeft, nRight int) float64 {
	total := float64(nLeft + nRight)
	return float64(nLeft)/total*gini(left, nLeft) + float64(nRight)/total*gini(right, nRight)
}

func gini(counts []int, n int) float64 {
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}
