// Package preprocess turns a raw patient record into the fixed-order
// numeric feature vector the trained classifier consumes: validation,
// domain defaults, sentinel normalization, imputation and categorical
// encoding.
package preprocess

import (
	"fmt"
	"strings"

	"github.com/mohrashard/LiverLens/internal/domain"
)

// Validate checks a record against the required-field and domain-range
// constraints before any numeric work occurs. Pure function; the
// record is never modified. All returned errors are
// *domain.ValidationError with caller-safe messages.
//
// Only Age, Sex and Stage are range-checked here; every other clinical
// field is repaired downstream by the transformer, never rejected.
func Validate(rec domain.PatientRecord) error {
	var missing []string
	for _, name := range domain.RequiredFields {
		if !rec.Field(name).IsSet() {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return domain.NewValidationError("", fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")))
	}

	if strings.TrimSpace(rec.PatientName.Text()) == "" {
		return domain.NewValidationError(domain.FieldPatientName, "Patient Name is required")
	}
	if strings.TrimSpace(rec.PatientID.Text()) == "" {
		return domain.NewValidationError(domain.FieldPatientID, "Patient ID is required")
	}

	// Blank/null sentinels on Age, Sex and Stage count as absent here
	// and are handled by imputation downstream.
	if !rec.Age.IsMissing() {
		age, ok := rec.Age.Float()
		if !ok {
			return domain.NewValidationError(domain.FieldAge, "Age must be a valid number")
		}
		if age <= 0 || age > 150 {
			return domain.NewValidationError(domain.FieldAge, "Age must be between 0 and 150 years")
		}
	}

	if !rec.Sex.IsMissing() {
		switch strings.ToUpper(strings.TrimSpace(rec.Sex.Text())) {
		case "M", "F", "MALE", "FEMALE":
		default:
			return domain.NewValidationError(domain.FieldSex, "Sex must be 'M', 'F', 'Male', or 'Female'")
		}
	}

	if !rec.Stage.IsMissing() {
		stage, ok := rec.Stage.Float()
		if !ok {
			return domain.NewValidationError(domain.FieldStage, "Stage must be a valid number")
		}
		if stage < 1 || stage > 4 {
			return domain.NewValidationError(domain.FieldStage, "Stage must be between 1 and 4")
		}
	}

	return nil
}
