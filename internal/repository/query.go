// Package repository provides the persistence layer for prediction
// records, with interchangeable SQLite and PostgreSQL backends behind
// the PredictionStore interface.
package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mohrashard/LiverLens/internal/domain"
)

// predictionColumns is the full column list of the predictions table,
// in insert order. Input and result travel as JSON documents; the
// numeric and categorical columns are denormalized copies used only
// for filtering and sorting.
const predictionColumns = `id, user_id, patient_id, patient_name,
	input_json, result_json, predicted_status, risk_level,
	age, bilirubin, cholesterol, albumin, copper, alk_phos, sgot,
	tryglicerides, platelets, prothrombin, stage,
	drug, sex, ascites, hepatomegaly, spiders, edema,
	created_at`

// scanColumns is the subset read back when reconstructing records.
const scanColumns = `id, user_id, input_json, result_json, created_at`

// numericColumns maps filterable numeric field names onto their
// denormalized columns.
var numericColumns = map[string]string{
	domain.FieldAge:           "age",
	domain.FieldBilirubin:     "bilirubin",
	domain.FieldCholesterol:   "cholesterol",
	domain.FieldAlbumin:       "albumin",
	domain.FieldCopper:        "copper",
	domain.FieldAlkPhos:       "alk_phos",
	domain.FieldSGOT:          "sgot",
	domain.FieldTryglicerides: "tryglicerides",
	domain.FieldPlatelets:     "platelets",
	domain.FieldProthrombin:   "prothrombin",
	domain.FieldStage:         "stage",
}

// categoricalColumns maps filterable categorical field names onto
// their denormalized columns, which hold the folded single-letter code.
var categoricalColumns = map[string]string{
	domain.FieldDrug:         "drug",
	domain.FieldSex:          "sex",
	domain.FieldAscites:      "ascites",
	domain.FieldHepatomegaly: "hepatomegaly",
	domain.FieldSpiders:      "spiders",
	domain.FieldEdema:        "edema",
}

// sortColumns maps whitelisted sort keys onto ORDER BY columns.
var sortColumns = map[string]string{
	domain.SortTimestamp:      "created_at",
	"predicted_status":        "predicted_status",
	"risk_level":              "risk_level",
	"patient_id":              "patient_id",
	domain.FieldAge:           "age",
	domain.FieldBilirubin:     "bilirubin",
	domain.FieldCholesterol:   "cholesterol",
	domain.FieldAlbumin:       "albumin",
	domain.FieldCopper:        "copper",
	domain.FieldAlkPhos:       "alk_phos",
	domain.FieldSGOT:          "sgot",
	domain.FieldTryglicerides: "tryglicerides",
	domain.FieldPlatelets:     "platelets",
	domain.FieldProthrombin:   "prothrombin",
	domain.FieldStage:         "stage",
}

// buildWhere renders a FilterSpec into a WHERE clause with `?`
// placeholders, plus its argument list. An empty filter and owner
// yields an empty clause. Unknown field names in the filter are
// ignored rather than errored; the transport layer only admits known
// ones.
func buildWhere(ownerID string, f domain.FilterSpec) (string, []any) {
	var conds []string
	var args []any

	if ownerID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, ownerID)
	}

	for _, field := range domain.NumericFields {
		rng, ok := f.Ranges[field]
		if !ok {
			continue
		}
		col, ok := numericColumns[field]
		if !ok {
			continue
		}
		if rng.Min != nil {
			conds = append(conds, col+" >= ?")
			args = append(args, *rng.Min)
		}
		if rng.Max != nil {
			conds = append(conds, col+" <= ?")
			args = append(args, *rng.Max)
		}
	}

	for _, field := range domain.CategoricalFields {
		val, ok := f.Categorical[field]
		if !ok || val == "" {
			continue
		}
		col := categoricalColumns[field]
		conds = append(conds, col+" = ?")
		args = append(args, foldCode(val))
	}

	if f.RiskLevel != "" {
		conds = append(conds, "risk_level = ?")
		args = append(args, f.RiskLevel)
	}
	if f.Status != "" {
		conds = append(conds, "predicted_status = ?")
		args = append(args, f.Status)
	}
	if f.PatientIDQuery != "" {
		conds = append(conds, "LOWER(patient_id) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.PatientIDQuery)+"%")
	}
	if f.DateFrom != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, f.DateTo.UTC())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderBy renders the ORDER BY clause for a normalized ListQuery.
// Ties fall back to id so pagination is stable.
func orderBy(q domain.ListQuery) string {
	col := sortColumns[domain.NormalizeSortKey(q.SortBy)]
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", col, dir)
}

// rebind converts `?` placeholders to PostgreSQL's positional `$n`
// form. SQLite takes the query as is.
func rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insertArgs flattens one prediction into the predictions column
// order. Missing numeric fields become NULL, missing categorical
// fields an empty code, so filters never match them spuriously.
func insertArgs(p *domain.PersistedPrediction) ([]any, error) {
	inputJSON, err := json.Marshal(p.Input)
	if err != nil {
		return nil, fmt.Errorf("encoding input record: %w", err)
	}
	resultJSON, err := json.Marshal(p.Result)
	if err != nil {
		return nil, fmt.Errorf("encoding prediction result: %w", err)
	}

	args := []any{
		p.ID,
		p.UserID,
		p.Input.PatientID.Text(),
		p.Input.PatientName.Text(),
		string(inputJSON),
		string(resultJSON),
		p.Result.PredictedStatus,
		p.Result.RiskLevel,
	}
	for _, field := range []string{
		domain.FieldAge, domain.FieldBilirubin, domain.FieldCholesterol,
		domain.FieldAlbumin, domain.FieldCopper, domain.FieldAlkPhos,
		domain.FieldSGOT, domain.FieldTryglicerides, domain.FieldPlatelets,
		domain.FieldProthrombin, domain.FieldStage,
	} {
		args = append(args, nullableFloat(p.Input, field))
	}
	for _, field := range domain.CategoricalFields {
		args = append(args, foldCode(p.Input.Field(field).Text()))
	}
	args = append(args, p.CreatedAt.UTC())
	return args, nil
}

func nullableFloat(rec domain.PatientRecord, field string) any {
	if v, ok := rec.FloatField(field); ok {
		return v
	}
	return nil
}

// foldCode normalizes a categorical value to its uppercased leading
// letter, the same fold the preprocessing pipeline applies.
func foldCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1])
}

// rowScanner is the common surface of database/sql and pgx rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPrediction reconstructs one record from the scan column set.
func scanPrediction(row rowScanner) (domain.PersistedPrediction, error) {
	var (
		p          domain.PersistedPrediction
		inputJSON  string
		resultJSON string
		createdAt  time.Time
	)
	if err := row.Scan(&p.ID, &p.UserID, &inputJSON, &resultJSON, &createdAt); err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(inputJSON), &p.Input); err != nil {
		return p, fmt.Errorf("decoding input record %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &p.Result); err != nil {
		return p, fmt.Errorf("decoding prediction result %s: %w", p.ID, err)
	}
	p.CreatedAt = createdAt.UTC()
	return p, nil
}

// placeholders renders n comma-separated `?` markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
