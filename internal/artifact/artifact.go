// Package artifact loads the trained classifier and its preprocessing
// metadata. The bundle is read once at process start and is immutable
// afterwards; every request shares the same instance.
package artifact

import (
	"fmt"
	"math"
)

// Imputer is the trained column-wise missing-value filler. It is
// consumed only through Transform; how the per-column statistics were
// fitted is opaque to this process.
type Imputer struct {
	Columns    []string  `json:"columns"`
	Statistics []float64 `json:"statistics"`
}

// Transform fills NaN entries of one column's values with the trained
// statistic for that column.
func (im *Imputer) Transform(column string, values []float64) ([]float64, error) {
	idx := -1
	for i, c := range im.Columns {
		if c == column {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(im.Statistics) {
		return nil, fmt.Errorf("imputer has no statistic for column %q", column)
	}

	filled := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			filled[i] = im.Statistics[idx]
		} else {
			filled[i] = v
		}
	}
	return filled, nil
}

// Encoder is one trained categorical encoder: an ordered class list
// with a bidirectional code<->index mapping.
type Encoder struct {
	Classes []string `json:"classes"`
}

// Encode maps a class code to its integer index. Codes outside the
// trained class list deterministically fall back to index 0; this is a
// defined recovery policy, not an error.
func (e *Encoder) Encode(code string) int {
	for i, c := range e.Classes {
		if c == code {
			return i
		}
	}
	return 0
}

// Decode maps an index back to its class code.
func (e *Encoder) Decode(idx int) (string, bool) {
	if idx < 0 || idx >= len(e.Classes) {
		return "", false
	}
	return e.Classes[idx], true
}

// LabelEncoder decodes classifier class indexes to status codes.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// Decode returns the status code for a class index, or "" when the
// index is outside the trained label set.
func (l *LabelEncoder) Decode(idx int) string {
	if idx < 0 || idx >= len(l.Classes) {
		return ""
	}
	return l.Classes[idx]
}

// Preprocessing is the metadata companion of the trained model:
// ordered feature names, the fitted imputer, the per-field categorical
// encoders and the label encoder.
type Preprocessing struct {
	FeatureNames        []string           `json:"feature_names"`
	Imputer             Imputer            `json:"imputer"`
	CategoricalEncoders map[string]Encoder `json:"categorical_encoders"`
	Labels              LabelEncoder       `json:"label_encoder"`
}

// Bundle is the complete loaded artifact.
type Bundle struct {
	Model         *ModelSpec
	Preprocessing *Preprocessing
}

// FeatureNames returns the ordered feature-name list. Its length fixes
// the feature-vector length for the life of the process.
func (b *Bundle) FeatureNames() []string {
	return b.Preprocessing.FeatureNames
}

// Encoder returns the trained encoder for a categorical field.
func (b *Bundle) Encoder(field string) (*Encoder, bool) {
	e, ok := b.Preprocessing.CategoricalEncoders[field]
	if !ok {
		return nil, false
	}
	return &e, true
}
