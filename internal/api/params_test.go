package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohrashard/LiverLens/internal/domain"
)

func queryContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/history?"+rawQuery, nil)
	return c
}

func TestParseFilter(t *testing.T) {
	c := queryContext(t, "bilirubin_min=1.2&bilirubin_max=4.5&sex=F&risk_level=High&status=D&patient_id=P-10")

	f := parseFilter(c)

	rng, ok := f.Ranges[domain.FieldBilirubin]
	require.True(t, ok)
	require.NotNil(t, rng.Min)
	assert.Equal(t, 1.2, *rng.Min)
	require.NotNil(t, rng.Max)
	assert.Equal(t, 4.5, *rng.Max)
	assert.Equal(t, "F", f.Categorical[domain.FieldSex])
	assert.Equal(t, "High", f.RiskLevel)
	assert.Equal(t, "D", f.Status)
	assert.Equal(t, "P-10", f.PatientIDQuery)
}

func TestParseFilter_IgnoresUnparseableValues(t *testing.T) {
	c := queryContext(t, "age_min=fifty&date_from=yesterday")

	f := parseFilter(c)

	assert.True(t, f.IsZero(), "bad values are dropped, not rejected")
}

func TestParseFilter_DateWindow(t *testing.T) {
	c := queryContext(t, "date_from=2026-08-01&date_to=2026-08-15")

	f := parseFilter(c)

	require.NotNil(t, f.DateFrom)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), *f.DateFrom)
	require.NotNil(t, f.DateTo)
	assert.Equal(t, time.Date(2026, 8, 15, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), *f.DateTo,
		"a bare end date covers the whole day")
}

func TestParseFilter_RFC3339Dates(t *testing.T) {
	c := queryContext(t, "date_to=2026-08-15T12:30:00Z")

	f := parseFilter(c)

	require.NotNil(t, f.DateTo)
	assert.Equal(t, time.Date(2026, 8, 15, 12, 30, 0, 0, time.UTC), *f.DateTo)
}

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantSort string
		wantDesc bool
		wantPage int
		wantPer  int
	}{
		{
			name:     "defaults",
			query:    "",
			wantSort: domain.SortTimestamp,
			wantDesc: true,
			wantPage: 1,
			wantPer:  10,
		},
		{
			name:     "explicit ascending sort",
			query:    "sort_by=Bilirubin&sort_order=asc&page=3&per_page=25",
			wantSort: domain.FieldBilirubin,
			wantDesc: false,
			wantPage: 3,
			wantPer:  25,
		},
		{
			name:     "unknown sort key falls back",
			query:    "sort_by=password&sort_order=sideways",
			wantSort: domain.SortTimestamp,
			wantDesc: true,
			wantPage: 1,
			wantPer:  10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := parseListQuery(queryContext(t, tt.query))

			assert.Equal(t, tt.wantSort, q.SortBy)
			assert.Equal(t, tt.wantDesc, q.SortDesc)
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantPer, q.PerPage)
		})
	}
}
