package artifact

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/mohrashard/LiverLens/internal/domain"
)

// Load reads the model and preprocessing files and validates that they
// form a coherent bundle. Any failure wraps domain.ErrModelUnavailable;
// callers treat that as fatal and refuse to serve.
func Load(modelPath, preprocessingPath string, logger *logrus.Logger) (*Bundle, error) {
	model, err := loadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("loading model from %s: %v: %w", modelPath, err, domain.ErrModelUnavailable)
	}

	prep, err := loadPreprocessing(preprocessingPath)
	if err != nil {
		return nil, fmt.Errorf("loading preprocessing from %s: %v: %w", preprocessingPath, err, domain.ErrModelUnavailable)
	}

	bundle := &Bundle{Model: model, Preprocessing: prep}
	if err := validate(bundle); err != nil {
		return nil, fmt.Errorf("artifact validation: %v: %w", err, domain.ErrModelUnavailable)
	}

	logger.WithFields(logrus.Fields{
		"model_type":   model.ModelType,
		"num_classes":  model.NumClasses,
		"num_trees":    len(model.Trees),
		"num_features": len(prep.FeatureNames),
	}).Info("Model and preprocessing components loaded successfully")

	return bundle, nil
}

func loadModel(path string) (*ModelSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var model ModelSpec
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("parsing model file: %w", err)
	}
	return &model, nil
}

func loadPreprocessing(path string) (*Preprocessing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var prep Preprocessing
	if err := json.Unmarshal(data, &prep); err != nil {
		return nil, fmt.Errorf("parsing preprocessing file: %w", err)
	}
	return &prep, nil
}

func validate(b *Bundle) error {
	if b.Model.NumClasses < 2 {
		return fmt.Errorf("model declares %d classes", b.Model.NumClasses)
	}
	if len(b.Model.Trees) == 0 {
		return fmt.Errorf("model carries no trees")
	}
	for i, tree := range b.Model.Trees {
		if tree.Class < 0 || tree.Class >= b.Model.NumClasses {
			return fmt.Errorf("tree %d targets unknown class %d", i, tree.Class)
		}
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", i)
		}
	}
	if len(b.Model.BaseScores) != 0 && len(b.Model.BaseScores) != b.Model.NumClasses {
		return fmt.Errorf("base score count %d does not match class count %d",
			len(b.Model.BaseScores), b.Model.NumClasses)
	}
	if len(b.Preprocessing.FeatureNames) == 0 {
		return fmt.Errorf("preprocessing carries no feature names")
	}
	if len(b.Preprocessing.Imputer.Columns) != len(b.Preprocessing.Imputer.Statistics) {
		return fmt.Errorf("imputer column count %d does not match statistic count %d",
			len(b.Preprocessing.Imputer.Columns), len(b.Preprocessing.Imputer.Statistics))
	}
	if len(b.Preprocessing.Labels.Classes) != b.Model.NumClasses {
		return fmt.Errorf("label count %d does not match class count %d",
			len(b.Preprocessing.Labels.Classes), b.Model.NumClasses)
	}
	for field, enc := range b.Preprocessing.CategoricalEncoders {
		if len(enc.Classes) == 0 {
			return fmt.Errorf("encoder for %q has no classes", field)
		}
	}
	return nil
}
