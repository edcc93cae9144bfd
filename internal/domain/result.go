package domain

import "time"

// Predicted disease status codes, matching the trained label encoder.
const (
	StatusCompensated   = "C"
	StatusControlled    = "CL"
	StatusDecompensated = "D"
)

// Risk tiers derived 1:1 from the predicted status.
const (
	RiskLow     = "Low"
	RiskMedium  = "Medium"
	RiskHigh    = "High"
	RiskUnknown = "Unknown"
)

// Disclaimer is attached to every prediction response.
const Disclaimer = "This prediction is not a medical diagnosis. Please consult your healthcare provider."

var statusDescriptions = map[string]string{
	StatusCompensated:   "Compensated - The liver is functioning adequately despite some damage.",
	StatusControlled:    "Controlled - The condition is being managed with treatment.",
	StatusDecompensated: "Decompensated - The liver has significant dysfunction and requires immediate medical attention.",
}

var statusRiskLevels = map[string]string{
	StatusCompensated:   RiskLow,
	StatusControlled:    RiskMedium,
	StatusDecompensated: RiskHigh,
}

// DescriptionForStatus returns the human-readable description for a
// status code, or "Unknown status" for codes outside the trained set.
func DescriptionForStatus(status string) string {
	if d, ok := statusDescriptions[status]; ok {
		return d
	}
	return "Unknown status"
}

// RiskForStatus returns the risk tier for a status code.
func RiskForStatus(status string) string {
	if r, ok := statusRiskLevels[status]; ok {
		return r
	}
	return RiskUnknown
}

// PredictionResult is the calibrated output of one classifier
// invocation. Probabilities are keyed by decoded class label and sum
// to 1 within floating tolerance.
type PredictionResult struct {
	PredictedStatus   string             `json:"predicted_status"`
	StatusDescription string             `json:"status_description"`
	Probabilities     map[string]float64 `json:"probabilities"`
	RiskLevel         string             `json:"risk_level"`
	Disclaimer        string             `json:"disclaimer"`
}

// PersistedPrediction is one saved prediction: the submitted input,
// the result produced for it, the owning user, and the creation time.
// Records are written once and never mutated.
type PersistedPrediction struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Input     PatientRecord    `json:"input_data"`
	Result    PredictionResult `json:"result"`
	CreatedAt time.Time        `json:"timestamp"`
}
