package anomaly

import "math"

// regressionTree is a single CART regression tree trained by greedy
// variance-reduction splitting, the weak learner boosted by the
// Ensemble. It operates on a column-major feature matrix
// so training does not need to transpose the frame per split.
type regressionTree struct {
	root *treeNode
}

type treeNode struct {
	isLeaf    bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

type treeConfig struct {
	maxDepth        int
	minSamplesSplit int
}

// fitRegressionTree grows a tree predicting residuals (the target) from
// rows of features, column-major: features[j][i] is feature j of row i.
func fitRegressionTree(features [][]float64, target []float64, cfg treeConfig) *regressionTree {
	indices := make([]int, len(target))
	for i := range indices {
		indices[i] = i
	}
	root := growNode(features, target, indices, 0, cfg)
	return &regressionTree{root: root}
}

func growNode(features [][]float64, target []float64, indices []int, depth int, cfg treeConfig) *treeNode {
	leafValue := meanAt(target, indices)

	if depth >= cfg.maxDepth || len(indices) < cfg.minSamplesSplit {
		return &treeNode{isLeaf: true, value: leafValue}
	}

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	parentVariance := varianceAt(target, indices) * float64(len(indices))

	for feature := range features {
		leftIdx, rightIdx, threshold, gain := bestSplitForFeature(features[feature], target, indices, parentVariance)
		if leftIdx == nil {
			continue
		}
		if gain > bestGain {
			bestGain = gain
			bestFeature = feature
			bestThreshold = threshold
		}
	}

	if bestFeature == -1 || bestGain <= 0 {
		return &treeNode{isLeaf: true, value: leafValue}
	}

	var left, right []int
	for _, i := range indices {
		if features[bestFeature][i] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{isLeaf: true, value: leafValue}
	}

	return &treeNode{
		isLeaf:    false,
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      growNode(features, target, left, depth+1, cfg),
		right:     growNode(features, target, right, depth+1, cfg),
	}
}

// bestSplitForFeature scans candidate thresholds (the midpoints between
// sorted distinct values) and returns the one minimizing total child
// variance, reported as variance reduction relative to the parent.
func bestSplitForFeature(column []float64, target []float64, indices []int, parentVarianceSum float64) ([]int, []int, float64, float64) {
	type pair struct {
		value float64
		idx   int
	}
	sorted := make([]pair, len(indices))
	for i, idx := range indices {
		sorted[i] = pair{value: column[idx], idx: idx}
	}
	sortPairs(sorted)

	bestGain, bestThreshold := 0.0, 0.0
	var bestLeft, bestRight []int

	for cut := 1; cut < len(sorted); cut++ {
		if sorted[cut].value == sorted[cut-1].value {
			continue
		}
		leftIdx := make([]int, cut)
		rightIdx := make([]int, len(sorted)-cut)
		for i := 0; i < cut; i++ {
			leftIdx[i] = sorted[i].idx
		}
		for i := cut; i < len(sorted); i++ {
			rightIdx[i-cut] = sorted[i].idx
		}
		leftVar := varianceAt(target, leftIdx) * float64(len(leftIdx))
		rightVar := varianceAt(target, rightIdx) * float64(len(rightIdx))
		gain := parentVarianceSum - (leftVar + rightVar)
		if gain > bestGain {
			bestGain = gain
			bestThreshold = (sorted[cut-1].value + sorted[cut].value) / 2
			bestLeft = leftIdx
			bestRight = rightIdx
		}
	}

	return bestLeft, bestRight, bestThreshold, bestGain
}

func sortPairs(p []struct {
	value float64
	idx   int
}) {
	// simple insertion sort is fine: candidate sets per node shrink fast,
	// and feature counts are small (15-19 columns).
	for i := 1; i < len(p); i++ {
		j := i
		for j > 0 && p[j-1].value > p[j].value {
			p[j-1], p[j] = p[j], p[j-1]
			j--
		}
	}
}

// predict walks the tree for one row, given as feature index -> value.
func (t *regressionTree) predict(row []float64) float64 {
	node := t.root
	for !node.isLeaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func meanAt(values []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range indices {
		sum += values[i]
	}
	return sum / float64(len(indices))
}

func varianceAt(values []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	m := meanAt(values, indices)
	sum := 0.0
	for _, i := range indices {
		d := values[i] - m
		sum += d * d
	}
	return sum / float64(len(indices))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
