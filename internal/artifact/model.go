package artifact

// ModelSpec is the serialized form of the trained gradient-boosted
// ensemble, exported offline by the training pipeline. This process
// never trains or mutates it; it only walks the trees.
type ModelSpec struct {
	ModelType          string    `json:"model_type"`
	NumClasses         int       `json:"num_classes"`
	BaseScores         []float64 `json:"base_scores"`
	Trees              []Tree    `json:"trees"`
	FeatureImportances []float64 `json:"feature_importances,omitempty"`
}

// Tree is one boosted regression tree contributing to the margin of a
// single class.
type Tree struct {
	Class int    `json:"class"`
	Nodes []Node `json:"nodes"`
}

// Node is one tree node. Interior nodes route on
// feature[Feature] < Threshold; leaves carry the margin contribution.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
}
