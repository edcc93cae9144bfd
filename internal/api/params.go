package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mohrashard/LiverLens/internal/domain"
)

// Query parameter names for numeric range filters are the lowercased
// field name with a _min/_max suffix, e.g. bilirubin_min=2.5.
var filterParamFields = func() map[string]string {
	m := make(map[string]string, len(domain.NumericFields))
	for _, field := range domain.NumericFields {
		m[strings.ToLower(field)] = field
	}
	return m
}()

var categoricalParamFields = func() map[string]string {
	m := make(map[string]string, len(domain.CategoricalFields))
	for _, field := range domain.CategoricalFields {
		m[strings.ToLower(field)] = field
	}
	return m
}()

// parseFilter assembles a FilterSpec from request query parameters.
// Unparseable values are ignored rather than rejected; a filter the
// caller mistyped simply does not narrow the result.
func parseFilter(c *gin.Context) domain.FilterSpec {
	var f domain.FilterSpec

	for param, field := range filterParamFields {
		var rng domain.NumericRange
		if v, ok := parseFloatParam(c, param+"_min"); ok {
			rng.Min = &v
		}
		if v, ok := parseFloatParam(c, param+"_max"); ok {
			rng.Max = &v
		}
		if rng.Min == nil && rng.Max == nil {
			continue
		}
		if f.Ranges == nil {
			f.Ranges = make(map[string]domain.NumericRange)
		}
		f.Ranges[field] = rng
	}

	for param, field := range categoricalParamFields {
		if v := c.Query(param); v != "" {
			if f.Categorical == nil {
				f.Categorical = make(map[string]string)
			}
			f.Categorical[field] = v
		}
	}

	f.RiskLevel = c.Query("risk_level")
	f.Status = c.Query("status")
	f.PatientIDQuery = c.Query("patient_id")

	if t, ok := parseTimeParam(c, "date_from"); ok {
		f.DateFrom = &t
	}
	if t, ok := parseTimeParam(c, "date_to"); ok {
		// A bare date means the whole day, inclusive.
		if len(c.Query("date_to")) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.DateTo = &t
	}
	return f
}

// parseListQuery assembles a full listing query: filter, sort and
// pagination. Defaults are page 1, 10 per page, newest first.
func parseListQuery(c *gin.Context) domain.ListQuery {
	q := domain.ListQuery{
		Filter:   parseFilter(c),
		SortBy:   c.DefaultQuery("sort_by", domain.SortTimestamp),
		SortDesc: c.DefaultQuery("sort_order", "desc") != "asc",
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		q.Page = page
	}
	if perPage, err := strconv.Atoi(c.Query("per_page")); err == nil {
		q.PerPage = perPage
	}
	return q.Normalize()
}

func parseFloatParam(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseTimeParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
