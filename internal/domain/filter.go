package domain

import "time"

// NumericRange is an optional closed range predicate over one numeric
// field. Nil bounds are open.
type NumericRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// FilterSpec is the full predicate set the analytics engine and the
// record listing accept. All predicates are optional and conjunctive.
type FilterSpec struct {
	// Ranges holds min/max predicates keyed by numeric field name.
	Ranges map[string]NumericRange `json:"ranges,omitempty"`
	// Categorical holds equality predicates keyed by categorical field
	// name; codes compare case-insensitively on the leading letter.
	Categorical map[string]string `json:"categorical,omitempty"`
	// RiskLevel and Status filter on the stored prediction outcome.
	RiskLevel string `json:"risk_level,omitempty"`
	Status    string `json:"status,omitempty"`
	// PatientIDQuery is a case-insensitive substring match on the
	// external patient identifier.
	PatientIDQuery string `json:"patient_id_query,omitempty"`
	// DateFrom/DateTo bound the record timestamp, inclusive.
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
}

// IsZero reports whether no predicate is set.
func (f FilterSpec) IsZero() bool {
	return len(f.Ranges) == 0 && len(f.Categorical) == 0 &&
		f.RiskLevel == "" && f.Status == "" && f.PatientIDQuery == "" &&
		f.DateFrom == nil && f.DateTo == nil
}

// SortTimestamp is the default and fallback sort key.
const SortTimestamp = "timestamp"

// sortableFields is the whitelist of listing sort keys.
var sortableFields = map[string]bool{
	SortTimestamp:      true,
	FieldAge:           true,
	FieldBilirubin:     true,
	FieldCholesterol:   true,
	FieldAlbumin:       true,
	FieldCopper:        true,
	FieldAlkPhos:       true,
	FieldSGOT:          true,
	FieldTryglicerides: true,
	FieldPlatelets:     true,
	FieldProthrombin:   true,
	FieldStage:         true,
	"predicted_status": true,
	"risk_level":       true,
	"patient_id":       true,
}

// NormalizeSortKey maps an arbitrary sort key onto the whitelist,
// falling back to the record timestamp for unknown keys.
func NormalizeSortKey(key string) string {
	if sortableFields[key] {
		return key
	}
	return SortTimestamp
}

// ListQuery describes one paginated listing request.
type ListQuery struct {
	Filter   FilterSpec
	SortBy   string
	SortDesc bool
	Page     int
	PerPage  int
}

// Normalize applies the documented defaults: page 1, page size 10,
// timestamp sort descending.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 10
	}
	q.SortBy = NormalizeSortKey(q.SortBy)
	return q
}

// Pagination describes the page window of a listing response.
// TotalPages is ceil(TotalCount / PerPage).
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalCount int64 `json:"total_count"`
	TotalPages int64 `json:"total_pages"`
}

// NewPagination computes the page window for a total record count.
func NewPagination(page, perPage int, total int64) Pagination {
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalCount: total,
		TotalPages: (total + int64(perPage) - 1) / int64(perPage),
	}
}

// Page is one page of persisted predictions.
type Page struct {
	Records    []PersistedPrediction `json:"predictions"`
	Pagination Pagination            `json:"pagination"`
}
