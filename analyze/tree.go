package analyze

import (
	"fmt"
	"sort"
)

// treeNode is one CART node; leaves predict the mean of their rows.
type treeNode struct {
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

// TreeModel is a regression tree grown by variance-reduction splits.
type TreeModel struct {
	Features []string  `json:"features"`
	MaxDepth int       `json:"max_depth"`
	MinLeaf  int       `json:"min_leaf"`
	Root     *treeNode `json:"root"`
}

func FitTree(d *Dataset, maxDepth, minLeaf int) (*TreeModel, error) {
	if len(d.Y) == 0 {
		return nil, fmt.Errorf("empty dataset")
	}
	if minLeaf < 1 {
		minLeaf = 1
	}
	idx := make([]int, len(d.Y))
	for i := range idx {
		idx[i] = i
	}
	m := &TreeModel{Features: d.Features, MaxDepth: maxDepth, MinLeaf: minLeaf}
	m.Root = m.grow(d, idx, 0)
	return m, nil
}

func mean(d *Dataset, idx []int) float64 {
	s := 0.0
	for _, i := range idx {
		s += d.Y[i]
	}
	return s / float64(len(idx))
}

// sse is the sum of squared deviations from the subset mean.
func sse(d *Dataset, idx []int) float64 {
	m := mean(d, idx)
	s := 0.0
	for _, i := range idx {
		r := d.Y[i] - m
		s += r * r
	}
	return s
}

func (m *TreeModel) grow(d *Dataset, idx []int, depth int) *treeNode {
	if depth >= m.MaxDepth || len(idx) < 2*m.MinLeaf {
		return &treeNode{Leaf: true, Value: mean(d, idx)}
	}

	parent := sse(d, idx)
	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0
	var bestLeft, bestRight []int

	for f := range d.Features {
		ordered := append([]int(nil), idx...)
		sort.Slice(ordered, func(a, b int) bool { return d.X[ordered[a]][f] < d.X[ordered[b]][f] })

		// Prefix sums let every candidate split cost O(1).
		n := len(ordered)
		sum, sumSq := make([]float64, n+1), make([]float64, n+1)
		for i, row := range ordered {
			y := d.Y[row]
			sum[i+1] = sum[i] + y
			sumSq[i+1] = sumSq[i] + y*y
		}
		total, totalSq := sum[n], sumSq[n]

		for i := m.MinLeaf; i <= n-m.MinLeaf; i++ {
			// Only split between distinct feature values.
			if d.X[ordered[i-1]][f] == d.X[ordered[i]][f] {
				continue
			}
			nl, nr := float64(i), float64(n-i)
			sseLeft := sumSq[i] - sum[i]*sum[i]/nl
			sseRight := (totalSq - sumSq[i]) - (total-sum[i])*(total-sum[i])/nr
			gain := parent - sseLeft - sseRight
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (d.X[ordered[i-1]][f] + d.X[ordered[i]][f]) / 2
				bestLeft = append([]int(nil), ordered[:i]...)
				bestRight = append([]int(nil), ordered[i:]...)
			}
		}
	}

	if bestFeature < 0 {
		return &treeNode{Leaf: true, Value: mean(d, idx)}
	}
	return &treeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      m.grow(d, bestLeft, depth+1),
		Right:     m.grow(d, bestRight, depth+1),
	}
}

func (m *TreeModel) Predict(x []float64) float64 {
	n := m.Root
	for !n.Leaf {
		if x[n.Feature] < n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

func (m *TreeModel) PredictAll(d *Dataset) []float64 {
	out := make([]float64, len(d.X))
	for i, x := range d.X {
		out[i] = m.Predict(x)
	}
	return out
}
