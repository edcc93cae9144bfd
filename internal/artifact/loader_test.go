package artifact

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohrashard/LiverLens/internal/domain"
)

const validModelJSON = `{
	"model_type": "gradient_boosting",
	"num_classes": 3,
	"base_scores": [0.5, 0.5, 0.5],
	"trees": [
		{"class": 0, "nodes": [{"leaf": true, "value": 0.1}]},
		{"class": 1, "nodes": [{"leaf": true, "value": 0.2}]},
		{"class": 2, "nodes": [{"leaf": true, "value": 0.3}]}
	],
	"feature_importances": [1.0]
}`

const validPreprocessingJSON = `{
	"feature_names": ["Bilirubin"],
	"imputer": {"columns": ["Bilirubin"], "statistics": [1.3]},
	"categorical_encoders": {"Sex": {"classes": ["F", "M"]}},
	"label_encoder": {"classes": ["C", "CL", "D"]}
}`

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeArtifacts(t *testing.T, modelJSON, prepJSON string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	prepPath := filepath.Join(dir, "preprocessing.json")
	require.NoError(t, os.WriteFile(modelPath, []byte(modelJSON), 0o644))
	require.NoError(t, os.WriteFile(prepPath, []byte(prepJSON), 0o644))
	return modelPath, prepPath
}

func TestLoad(t *testing.T) {
	modelPath, prepPath := writeArtifacts(t, validModelJSON, validPreprocessingJSON)

	bundle, err := Load(modelPath, prepPath, quietLogger())

	require.NoError(t, err)
	assert.Equal(t, 3, bundle.Model.NumClasses)
	assert.Len(t, bundle.Model.Trees, 3)
	assert.Equal(t, []string{"Bilirubin"}, bundle.FeatureNames())

	enc, ok := bundle.Encoder("Sex")
	require.True(t, ok)
	assert.Equal(t, 1, enc.Encode("M"))
	assert.Equal(t, 0, enc.Encode("unknown"), "unknown codes fall back to index 0")
}

func TestLoad_MissingFileIsModelUnavailable(t *testing.T) {
	_, prepPath := writeArtifacts(t, validModelJSON, validPreprocessingJSON)

	_, err := Load("/nonexistent/model.json", prepPath, quietLogger())

	require.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestLoad_RejectsIncoherentBundles(t *testing.T) {
	tests := []struct {
		name      string
		modelJSON string
		prepJSON  string
	}{
		{
			name:      "model not json",
			modelJSON: "not json",
			prepJSON:  validPreprocessingJSON,
		},
		{
			name:      "no trees",
			modelJSON: `{"model_type": "gb", "num_classes": 3, "trees": []}`,
			prepJSON:  validPreprocessingJSON,
		},
		{
			name: "tree targets unknown class",
			modelJSON: `{"model_type": "gb", "num_classes": 2,
				"trees": [{"class": 5, "nodes": [{"leaf": true, "value": 0.1}]}]}`,
			prepJSON: `{
				"feature_names": ["Bilirubin"],
				"imputer": {"columns": ["Bilirubin"], "statistics": [1.3]},
				"categorical_encoders": {"Sex": {"classes": ["F", "M"]}},
				"label_encoder": {"classes": ["C", "D"]}}`,
		},
		{
			name:      "imputer length mismatch",
			modelJSON: validModelJSON,
			prepJSON: `{
				"feature_names": ["Bilirubin"],
				"imputer": {"columns": ["Bilirubin", "Albumin"], "statistics": [1.3]},
				"categorical_encoders": {"Sex": {"classes": ["F", "M"]}},
				"label_encoder": {"classes": ["C", "CL", "D"]}}`,
		},
		{
			name:      "label count mismatch",
			modelJSON: validModelJSON,
			prepJSON: `{
				"feature_names": ["Bilirubin"],
				"imputer": {"columns": ["Bilirubin"], "statistics": [1.3]},
				"categorical_encoders": {"Sex": {"classes": ["F", "M"]}},
				"label_encoder": {"classes": ["C"]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modelPath, prepPath := writeArtifacts(t, tt.modelJSON, tt.prepJSON)
			_, err := Load(modelPath, prepPath, quietLogger())
			require.ErrorIs(t, err, domain.ErrModelUnavailable)
		})
	}
}

func TestImputer_Transform(t *testing.T) {
	im := Imputer{Columns: []string{"Age", "Copper"}, Statistics: []float64{50, 97}}

	filled, err := im.Transform("Copper", []float64{math.NaN(), 12, math.NaN()})
	require.NoError(t, err)
	assert.Equal(t, []float64{97, 12, 97}, filled)

	_, err = im.Transform("Unknown", []float64{1})
	assert.Error(t, err)
}
