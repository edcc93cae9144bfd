package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Clinical record field names as they appear on the wire and in the
// training data.
const (
	FieldPatientName   = "Patient_Name"
	FieldPatientID     = "Patient_ID"
	FieldNDays         = "N_Days"
	FieldDrug          = "Drug"
	FieldAge           = "Age"
	FieldSex           = "Sex"
	FieldAscites       = "Ascites"
	FieldHepatomegaly  = "Hepatomegaly"
	FieldSpiders       = "Spiders"
	FieldEdema         = "Edema"
	FieldBilirubin     = "Bilirubin"
	FieldCholesterol   = "Cholesterol"
	FieldAlbumin       = "Albumin"
	FieldCopper        = "Copper"
	FieldAlkPhos       = "Alk_Phos"
	FieldSGOT          = "SGOT"
	FieldTryglicerides = "Tryglicerides"
	FieldPlatelets     = "Platelets"
	FieldProthrombin   = "Prothrombin"
	FieldStage         = "Stage"
)

// RequiredFields lists every key a submitted record must carry:
// two identity fields plus the 18 clinical fields.
var RequiredFields = []string{
	FieldPatientName, FieldPatientID,
	FieldNDays, FieldDrug, FieldAge, FieldSex, FieldAscites,
	FieldHepatomegaly, FieldSpiders, FieldEdema, FieldBilirubin,
	FieldCholesterol, FieldAlbumin, FieldCopper, FieldAlkPhos,
	FieldSGOT, FieldTryglicerides, FieldPlatelets, FieldProthrombin,
	FieldStage,
}

// NumericFields are coerced to float64 during preprocessing and run
// through the trained imputer.
var NumericFields = []string{
	FieldNDays, FieldAge, FieldBilirubin, FieldCholesterol,
	FieldAlbumin, FieldCopper, FieldAlkPhos, FieldSGOT,
	FieldTryglicerides, FieldPlatelets, FieldProthrombin, FieldStage,
}

// CategoricalFields are folded to a single-letter code and mapped
// through the trained per-field encoders.
var CategoricalFields = []string{
	FieldDrug, FieldSex, FieldAscites, FieldHepatomegaly,
	FieldSpiders, FieldEdema,
}

// AnalyticsFields are the ten laboratory/demographic measurements the
// analytics engine aggregates over.
var AnalyticsFields = []string{
	FieldAge, FieldBilirubin, FieldCholesterol, FieldAlbumin,
	FieldCopper, FieldAlkPhos, FieldSGOT, FieldTryglicerides,
	FieldPlatelets, FieldProthrombin,
}

// RawValue holds a single record field exactly as it was received,
// before any numeric coercion. It distinguishes a key that was never
// sent from one sent as an explicit null or empty sentinel, so a
// legitimate zero is never confused with a missing value.
type RawValue struct {
	set  bool
	null bool
	text string
}

// String constructs a RawValue from a textual field.
func String(s string) RawValue {
	return RawValue{set: true, text: s}
}

// Number constructs a RawValue from a numeric field.
func Number(f float64) RawValue {
	return RawValue{set: true, text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// Null constructs an explicitly null RawValue.
func Null() RawValue {
	return RawValue{set: true, null: true}
}

// IsSet reports whether the key was present in the submitted record.
func (v RawValue) IsSet() bool { return v.set }

// IsMissing reports whether the value is one of the missing-value
// sentinels: absent key, explicit null, empty string, or the literal
// string "null".
func (v RawValue) IsMissing() bool {
	return !v.set || v.null || v.text == "" || v.text == "null"
}

// Text returns the raw textual form, or "" for null/absent values.
func (v RawValue) Text() string {
	if v.null {
		return ""
	}
	return v.text
}

// Float parses the value as a real number. Missing sentinels and
// unparseable text report ok=false; the caller decides whether that
// means rejection or imputation.
func (v RawValue) Float() (float64, bool) {
	if v.IsMissing() {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// UnmarshalJSON accepts numbers, strings, booleans and null, keeping
// the original lexeme so validation can tell "absent" from "garbage".
func (v *RawValue) UnmarshalJSON(data []byte) error {
	v.set = true
	if string(data) == "null" {
		v.null = true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.text = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		v.text = n.String()
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		v.text = strconv.FormatBool(b)
		return nil
	}
	return fmt.Errorf("unsupported JSON value %s", string(data))
}

// MarshalJSON renders numbers back as numbers where possible so stored
// inputs round-trip cleanly.
func (v RawValue) MarshalJSON() ([]byte, error) {
	if !v.set || v.null {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(v.text, 64); err == nil && v.text != "" {
		return []byte(v.text), nil
	}
	return json.Marshal(v.text)
}

// PatientRecord is a typed clinical record: two identity fields plus
// the 18 clinical fields consumed by the prediction pipeline. Identity
// fields are display/audit only and never enter the feature vector.
type PatientRecord struct {
	PatientName   RawValue `json:"Patient_Name"`
	PatientID     RawValue `json:"Patient_ID"`
	NDays         RawValue `json:"N_Days"`
	Drug          RawValue `json:"Drug"`
	Age           RawValue `json:"Age"`
	Sex           RawValue `json:"Sex"`
	Ascites       RawValue `json:"Ascites"`
	Hepatomegaly  RawValue `json:"Hepatomegaly"`
	Spiders       RawValue `json:"Spiders"`
	Edema         RawValue `json:"Edema"`
	Bilirubin     RawValue `json:"Bilirubin"`
	Cholesterol   RawValue `json:"Cholesterol"`
	Albumin       RawValue `json:"Albumin"`
	Copper        RawValue `json:"Copper"`
	AlkPhos       RawValue `json:"Alk_Phos"`
	SGOT          RawValue `json:"SGOT"`
	Tryglicerides RawValue `json:"Tryglicerides"`
	Platelets     RawValue `json:"Platelets"`
	Prothrombin   RawValue `json:"Prothrombin"`
	Stage         RawValue `json:"Stage"`
}

// Field returns the value stored under the given wire name.
func (r PatientRecord) Field(name string) RawValue {
	switch name {
	case FieldPatientName:
		return r.PatientName
	case FieldPatientID:
		return r.PatientID
	case FieldNDays:
		return r.NDays
	case FieldDrug:
		return r.Drug
	case FieldAge:
		return r.Age
	case FieldSex:
		return r.Sex
	case FieldAscites:
		return r.Ascites
	case FieldHepatomegaly:
		return r.Hepatomegaly
	case FieldSpiders:
		return r.Spiders
	case FieldEdema:
		return r.Edema
	case FieldBilirubin:
		return r.Bilirubin
	case FieldCholesterol:
		return r.Cholesterol
	case FieldAlbumin:
		return r.Albumin
	case FieldCopper:
		return r.Copper
	case FieldAlkPhos:
		return r.AlkPhos
	case FieldSGOT:
		return r.SGOT
	case FieldTryglicerides:
		return r.Tryglicerides
	case FieldPlatelets:
		return r.Platelets
	case FieldProthrombin:
		return r.Prothrombin
	case FieldStage:
		return r.Stage
	}
	return RawValue{}
}

// WithField returns a copy of the record with the named field replaced.
// Unknown names return the record unchanged.
func (r PatientRecord) WithField(name string, v RawValue) PatientRecord {
	switch name {
	case FieldPatientName:
		r.PatientName = v
	case FieldPatientID:
		r.PatientID = v
	case FieldNDays:
		r.NDays = v
	case FieldDrug:
		r.Drug = v
	case FieldAge:
		r.Age = v
	case FieldSex:
		r.Sex = v
	case FieldAscites:
		r.Ascites = v
	case FieldHepatomegaly:
		r.Hepatomegaly = v
	case FieldSpiders:
		r.Spiders = v
	case FieldEdema:
		r.Edema = v
	case FieldBilirubin:
		r.Bilirubin = v
	case FieldCholesterol:
		r.Cholesterol = v
	case FieldCopper:
		r.Copper = v
	case FieldAlbumin:
		r.Albumin = v
	case FieldAlkPhos:
		r.AlkPhos = v
	case FieldSGOT:
		r.SGOT = v
	case FieldTryglicerides:
		r.Tryglicerides = v
	case FieldPlatelets:
		r.Platelets = v
	case FieldProthrombin:
		r.Prothrombin = v
	case FieldStage:
		r.Stage = v
	}
	return r
}

// FloatField parses the named field as a finite real number.
func (r PatientRecord) FloatField(name string) (float64, bool) {
	return r.Field(name).Float()
}

// RecordFromRow builds a PatientRecord from a delimited-file row,
// keyed by header column names. Unknown columns are ignored.
func RecordFromRow(row map[string]string) PatientRecord {
	var rec PatientRecord
	for _, name := range RequiredFields {
		if val, ok := row[name]; ok {
			rec = rec.WithField(name, String(val))
		}
	}
	return rec
}
