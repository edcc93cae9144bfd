package analytics

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// FeatureImportance pairs one model feature with its trained
// importance score.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Importance ranks the artifact's per-feature importance scores,
// descending. The scores are whatever the trained model exported; this
// engine only pairs them with the feature-name list. A length mismatch
// between the two is a data-integrity anomaly: both are truncated to
// the shorter length and the mismatch is logged, not fatal.
func (e *Engine) Importance() []FeatureImportance {
	scores := e.classifier.Importances()
	if len(scores) == 0 {
		return []FeatureImportance{}
	}

	n := len(scores)
	if len(e.featureNames) != len(scores) {
		e.logger.WithFields(logrus.Fields{
			"num_features":    len(e.featureNames),
			"num_importances": len(scores),
		}).Warn("Feature name and importance counts differ, truncating to shorter")
		if len(e.featureNames) < n {
			n = len(e.featureNames)
		}
	}

	ranked := make([]FeatureImportance, n)
	for i := 0; i < n; i++ {
		ranked[i] = FeatureImportance{Feature: e.featureNames[i], Importance: scores[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})
	return ranked
}
