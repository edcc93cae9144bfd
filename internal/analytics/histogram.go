package analytics

import (
	"context"
	"fmt"

	"github.com/mohrashard/LiverLens/internal/domain"
)

const histogramBins = 10

// HistogramBucket is one labeled bin of a feature distribution. The
// label is the bin's [low, high) boundary to one decimal place.
type HistogramBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// FeatureHistogram describes the observed distribution of one numeric
// field. Mean and Std are computed over the raw sample (population
// standard deviation, not sample-adjusted).
type FeatureHistogram struct {
	Count   int               `json:"count"`
	Mean    float64           `json:"mean"`
	Std     float64           `json:"std"`
	Min     float64           `json:"min"`
	Max     float64           `json:"max"`
	Buckets []HistogramBucket `json:"buckets"`
}

// Histograms builds a distribution for each numeric analytics field.
// Fields with no finite, parseable values are omitted entirely. Each
// present field gets exactly ten equal-width bins between the observed
// min and max; a constant field collapses to one bin of width 1
// centered on the value. The bucket counts always sum to the number of
// finite values collected for the field.
func (e *Engine) Histograms(ctx context.Context, ownerID string, f domain.FilterSpec) (map[string]FeatureHistogram, error) {
	records, err := e.fetch(ctx, ownerID, f, "histograms")
	if err != nil {
		return nil, err
	}

	histograms := make(map[string]FeatureHistogram)
	for _, field := range domain.AnalyticsFields {
		values := fieldValues(records, field)
		if len(values) == 0 {
			continue
		}
		histograms[field] = buildHistogram(values)
	}
	return histograms, nil
}

func buildHistogram(values []float64) FeatureHistogram {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	h := FeatureHistogram{
		Count: len(values),
		Mean:  mean(values),
		Std:   populationStd(values),
		Min:   lo,
		Max:   hi,
	}

	if lo == hi {
		h.Buckets = []HistogramBucket{{
			Range: bucketLabel(lo-0.5, lo+0.5),
			Count: len(values),
		}}
		return h
	}

	width := (hi - lo) / histogramBins
	counts := make([]int, histogramBins)
	for _, v := range values {
		idx := int((v - lo) / width)
		// The observed max lands on the upper edge of the last bin.
		if idx >= histogramBins {
			idx = histogramBins - 1
		}
		counts[idx]++
	}

	h.Buckets = make([]HistogramBucket, histogramBins)
	for i := 0; i < histogramBins; i++ {
		h.Buckets[i] = HistogramBucket{
			Range: bucketLabel(lo+float64(i)*width, lo+float64(i+1)*width),
			Count: counts[i],
		}
	}
	return h
}

func bucketLabel(lo, hi float64) string {
	return fmt.Sprintf("%.1f - %.1f", lo, hi)
}
