package analytics

import (
	"math"

	"github.com/mohrashard/LiverLens/internal/domain"
)

// mean returns the arithmetic mean, or NaN for an empty sample.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationStd returns the population (not sample-adjusted) standard
// deviation, or NaN for an empty sample.
func populationStd(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := mean(values)
	var sumSquares float64
	for _, v := range values {
		diff := v - m
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}

// pearson computes the Pearson correlation of two equal-length samples.
// Undefined results (short samples, zero variance) are reported as 0
// rather than NaN, per the documented fallback.
func pearson(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}

	mx, my := mean(x), mean(y)
	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

// fieldValues collects every finite, parseable value of one input
// field across a record set.
func fieldValues(records []domain.PersistedPrediction, field string) []float64 {
	var values []float64
	for i := range records {
		if v, ok := records[i].Input.FloatField(field); ok {
			values = append(values, v)
		}
	}
	return values
}

// meanOrNil returns a pointer to the mean of the sample, or nil for an
// empty sample. Used where a JSON null is the documented empty result.
func meanOrNil(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := mean(values)
	return &m
}
