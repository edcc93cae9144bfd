package preprocess

import (
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mohrashard/LiverLens/internal/artifact"
	"github.com/mohrashard/LiverLens/internal/domain"
)

// Domain defaults for clinical-exam fields a caller may omit entirely.
// Applied before validation, so a record missing only these fields is
// still valid.
const (
	defaultCategoricalCode = "N"
	defaultDrug            = "Placebo"
	defaultTryglicerides   = 100
)

// ApplyDefaults returns a copy of the record with domain defaults
// filled in for absent optional fields. Keys sent with an explicit
// null are left alone; those are repaired later in the pipeline.
func ApplyDefaults(rec domain.PatientRecord) domain.PatientRecord {
	for _, name := range []string{
		domain.FieldAscites, domain.FieldHepatomegaly,
		domain.FieldSpiders, domain.FieldEdema,
	} {
		if !rec.Field(name).IsSet() {
			rec = rec.WithField(name, domain.String(defaultCategoricalCode))
		}
	}
	if !rec.Drug.IsSet() {
		rec = rec.WithField(domain.FieldDrug, domain.String(defaultDrug))
	}
	if !rec.Tryglicerides.IsSet() {
		rec = rec.WithField(domain.FieldTryglicerides, domain.Number(defaultTryglicerides))
	}
	return rec
}

// Transformer assembles feature vectors against a loaded artifact
// bundle. Stateless apart from the shared immutable bundle.
type Transformer struct {
	bundle *artifact.Bundle
	logger *logrus.Logger
}

// NewTransformer creates a transformer over a loaded artifact bundle.
func NewTransformer(bundle *artifact.Bundle, logger *logrus.Logger) *Transformer {
	return &Transformer{bundle: bundle, logger: logger}
}

// Transform converts a record into the fixed-order feature vector.
// Unparseable numerics become missing and are imputed; unknown
// categorical codes fall back to encoder index 0; features in the
// artifact list that the record cannot supply are filled with 0. An
// entirely empty record still yields a valid, fully defaulted vector.
//
// The only failure mode is structural: artifact metadata missing for a
// column the pipeline needs, reported as *domain.PreprocessingError.
func (t *Transformer) Transform(rec domain.PatientRecord) ([]float64, error) {
	values := make(map[string]float64, len(domain.NumericFields)+len(domain.CategoricalFields))

	for _, name := range domain.NumericFields {
		raw := math.NaN()
		if f, ok := rec.Field(name).Float(); ok {
			raw = f
		}
		filled, err := t.bundle.Preprocessing.Imputer.Transform(name, []float64{raw})
		if err != nil {
			return nil, &domain.PreprocessingError{Step: "imputation", Err: err}
		}
		values[name] = filled[0]
	}

	for _, name := range domain.CategoricalFields {
		code := foldCategorical(rec.Field(name))
		enc, ok := t.bundle.Encoder(name)
		if !ok {
			return nil, &domain.PreprocessingError{
				Step: "encoding",
				Err:  &missingEncoderError{field: name},
			}
		}
		values[name] = float64(enc.Encode(code))
	}

	featureNames := t.bundle.FeatureNames()
	vector := make([]float64, len(featureNames))
	for i, name := range featureNames {
		if v, ok := values[name]; ok {
			vector[i] = v
		}
	}

	t.logger.WithField("num_features", len(vector)).Debug("Feature vector assembled")
	return vector, nil
}

// foldCategorical reduces a raw categorical value to its single
// uppercase leading letter. Missing values converge on the "No" code,
// the same code a clinical-exam default produces.
func foldCategorical(v domain.RawValue) string {
	if v.IsMissing() {
		return defaultCategoricalCode
	}
	s := strings.TrimSpace(v.Text())
	if s == "" {
		return defaultCategoricalCode
	}
	runes := []rune(strings.ToUpper(s))
	return string(runes[0])
}

type missingEncoderError struct {
	field string
}

func (e *missingEncoderError) Error() string {
	return "no trained encoder for categorical field " + e.field
}
