// Package model adapts the loaded gradient-boosted artifact to the
// domain.Classifier contract. The ensemble itself is opaque: this
// package only accumulates leaf values and normalizes them into a
// probability distribution.
package model

import (
	"fmt"
	"math"

	"github.com/mohrashard/LiverLens/internal/artifact"
)

// Classifier invokes the trained ensemble on a feature vector. It is
// stateless apart from the shared immutable bundle and safe for
// concurrent use.
type Classifier struct {
	bundle *artifact.Bundle
}

// NewClassifier creates a classifier over a loaded artifact bundle.
func NewClassifier(bundle *artifact.Bundle) *Classifier {
	return &Classifier{bundle: bundle}
}

// Predict returns the class-probability distribution for a feature
// vector. The vector length must equal the artifact's feature count;
// the returned probabilities are ordered by class index and sum to 1
// within floating tolerance.
func (c *Classifier) Predict(features []float64) ([]float64, error) {
	want := len(c.bundle.FeatureNames())
	if len(features) != want {
		return nil, fmt.Errorf("feature vector length %d does not match model feature count %d",
			len(features), want)
	}

	spec := c.bundle.Model
	margins := make([]float64, spec.NumClasses)
	for i := range margins {
		if i < len(spec.BaseScores) {
			margins[i] = spec.BaseScores[i]
		}
	}

	for ti := range spec.Trees {
		tree := &spec.Trees[ti]
		leaf, err := evalTree(tree, features)
		if err != nil {
			return nil, fmt.Errorf("evaluating tree %d: %w", ti, err)
		}
		margins[tree.Class] += leaf
	}

	return softmax(margins), nil
}

// Importances returns the per-feature importance scores exported with
// the model, or nil when the artifact does not carry them.
func (c *Classifier) Importances() []float64 {
	return c.bundle.Model.FeatureImportances
}

// Labels returns the decoded class labels ordered by class index.
func (c *Classifier) Labels() []string {
	return c.bundle.Preprocessing.Labels.Classes
}

func evalTree(tree *artifact.Tree, features []float64) (float64, error) {
	idx := 0
	for steps := 0; steps <= len(tree.Nodes); steps++ {
		if idx < 0 || idx >= len(tree.Nodes) {
			return 0, fmt.Errorf("node index %d out of range", idx)
		}
		node := &tree.Nodes[idx]
		if node.Leaf {
			return node.Value, nil
		}
		if node.Feature < 0 || node.Feature >= len(features) {
			return 0, fmt.Errorf("node %d references unknown feature %d", idx, node.Feature)
		}
		if features[node.Feature] < node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return 0, fmt.Errorf("tree walk did not terminate")
}

// softmax converts raw class margins to probabilities, shifting by the
// max margin for numeric stability.
func softmax(margins []float64) []float64 {
	maxMargin := margins[0]
	for _, m := range margins[1:] {
		if m > maxMargin {
			maxMargin = m
		}
	}

	probs := make([]float64, len(margins))
	var sum float64
	for i, m := range margins {
		probs[i] = math.Exp(m - maxMargin)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
