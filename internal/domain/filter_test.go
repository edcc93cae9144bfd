package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListQuery_Normalize(t *testing.T) {
	tests := []struct {
		name        string
		query       ListQuery
		wantPage    int
		wantPerPage int
		wantSortBy  string
	}{
		{
			name:        "zero query gets defaults",
			query:       ListQuery{},
			wantPage:    1,
			wantPerPage: 10,
			wantSortBy:  SortTimestamp,
		},
		{
			name:        "negative page snaps to first",
			query:       ListQuery{Page: -3, PerPage: 25, SortBy: FieldBilirubin},
			wantPage:    1,
			wantPerPage: 25,
			wantSortBy:  FieldBilirubin,
		},
		{
			name:        "unknown sort key falls back to timestamp",
			query:       ListQuery{Page: 2, PerPage: 5, SortBy: "Patient_Name; DROP TABLE"},
			wantPage:    2,
			wantPerPage: 5,
			wantSortBy:  SortTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.query.Normalize()
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantPerPage, got.PerPage)
			assert.Equal(t, tt.wantSortBy, got.SortBy)
		})
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		perPage   int
		wantPages int64
	}{
		{name: "exact multiple", total: 20, perPage: 10, wantPages: 2},
		{name: "partial last page", total: 25, perPage: 10, wantPages: 3},
		{name: "single short page", total: 3, perPage: 10, wantPages: 1},
		{name: "empty set", total: 0, perPage: 10, wantPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(1, tt.perPage, tt.total)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.total, p.TotalCount)
		})
	}
}

func TestFilterSpec_IsZero(t *testing.T) {
	assert.True(t, FilterSpec{}.IsZero())
	assert.False(t, FilterSpec{RiskLevel: RiskHigh}.IsZero())

	min := 2.0
	assert.False(t, FilterSpec{
		Ranges: map[string]NumericRange{FieldBilirubin: {Min: &min}},
	}.IsZero())
}
