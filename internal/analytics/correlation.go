package analytics

import (
	"context"
	"math"

	"github.com/mohrashard/LiverLens/internal/domain"
)

// CorrelationMatrix is a square Pearson correlation matrix indexed by
// Fields, which lists only the analytics fields with at least one
// non-missing value across the record set.
type CorrelationMatrix struct {
	Fields []string    `json:"fields"`
	Matrix [][]float64 `json:"matrix"`
}

// Correlation computes pairwise-complete Pearson correlations over the
// numeric analytics fields: for each field pair, only records carrying
// both values contribute. Fields with zero non-missing values are
// dropped from the matrix entirely; any undefined coefficient (too few
// complete pairs, zero variance) is reported as 0, so a zero-variance
// field shows 0 even on its own diagonal.
func (e *Engine) Correlation(ctx context.Context, ownerID string, f domain.FilterSpec) (*CorrelationMatrix, error) {
	records, err := e.fetch(ctx, ownerID, f, "correlation")
	if err != nil {
		return nil, err
	}

	// One column per field, NaN marking missing entries, row-aligned
	// across columns.
	columns := make(map[string][]float64, len(domain.AnalyticsFields))
	for _, field := range domain.AnalyticsFields {
		col := make([]float64, len(records))
		for i := range records {
			if v, ok := records[i].Input.FloatField(field); ok {
				col[i] = v
			} else {
				col[i] = math.NaN()
			}
		}
		columns[field] = col
	}

	var fields []string
	for _, field := range domain.AnalyticsFields {
		for _, v := range columns[field] {
			if !math.IsNaN(v) {
				fields = append(fields, field)
				break
			}
		}
	}

	matrix := make([][]float64, len(fields))
	for i := range fields {
		matrix[i] = make([]float64, len(fields))
		for j := range fields {
			if j < i {
				matrix[i][j] = matrix[j][i]
				continue
			}
			matrix[i][j] = pairwiseCorrelation(columns[fields[i]], columns[fields[j]])
		}
	}

	return &CorrelationMatrix{Fields: fields, Matrix: matrix}, nil
}

// pairwiseCorrelation correlates two row-aligned columns using only
// the rows where both values are present.
func pairwiseCorrelation(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return pearson(xs, ys)
}
