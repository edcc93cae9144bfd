// Package analytics implements the read-only statistical computations
// researchers run over the accumulated prediction history: summary
// statistics, distributions, histograms, correlation, importance
// ranking, temporal trends and subgroup comparison.
//
// Every operation reads the record set it needs through the abstract
// store and computes from scratch; there is no incremental state, so
// each operation is independently testable.
package analytics

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/mohrashard/LiverLens/internal/domain"
)

// Engine computes analytics over the persisted prediction history.
// Stateless apart from the shared immutable artifact metadata; safe
// for concurrent use.
type Engine struct {
	logger       *logrus.Logger
	store        domain.PredictionStore
	classifier   domain.Classifier
	featureNames []string
}

// NewEngine creates an analytics engine.
func NewEngine(logger *logrus.Logger, store domain.PredictionStore, classifier domain.Classifier, featureNames []string) *Engine {
	return &Engine{
		logger:       logger,
		store:        store,
		classifier:   classifier,
		featureNames: featureNames,
	}
}

func (e *Engine) fetch(ctx context.Context, ownerID string, f domain.FilterSpec, op string) ([]domain.PersistedPrediction, error) {
	records, err := e.store.FetchAll(ctx, ownerID, f)
	if err != nil {
		return nil, &domain.AggregationError{Operation: op, Err: err}
	}
	return records, nil
}

// SummaryStats is the single-pass overview of a record set. An empty
// set yields zero counts and zero averages, never an error.
type SummaryStats struct {
	TotalRecords int                `json:"total_records"`
	Averages     map[string]float64 `json:"averages"`
	RiskCounts   map[string]int     `json:"risk_counts"`
}

// Summary computes per-field means over the ten analytics fields plus
// record counts per risk tier.
func (e *Engine) Summary(ctx context.Context, ownerID string, f domain.FilterSpec) (*SummaryStats, error) {
	records, err := e.fetch(ctx, ownerID, f, "summary")
	if err != nil {
		return nil, err
	}

	stats := &SummaryStats{
		TotalRecords: len(records),
		Averages:     make(map[string]float64, len(domain.AnalyticsFields)),
		RiskCounts: map[string]int{
			domain.RiskLow:    0,
			domain.RiskMedium: 0,
			domain.RiskHigh:   0,
		},
	}

	for _, field := range domain.AnalyticsFields {
		values := fieldValues(records, field)
		if len(values) == 0 {
			stats.Averages[field] = 0
			continue
		}
		stats.Averages[field] = mean(values)
	}

	for i := range records {
		if _, ok := stats.RiskCounts[records[i].Result.RiskLevel]; ok {
			stats.RiskCounts[records[i].Result.RiskLevel]++
		}
	}
	return stats, nil
}

// OutcomeCount is one predicted-status slice of the outcome
// distribution. Percentage is relative to the filtered total.
type OutcomeCount struct {
	Status     string  `json:"status"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// OutcomeDistribution counts records per predicted status, sorted by
// count descending.
func (e *Engine) OutcomeDistribution(ctx context.Context, ownerID string, f domain.FilterSpec) ([]OutcomeCount, error) {
	records, err := e.fetch(ctx, ownerID, f, "outcomes")
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for i := range records {
		counts[records[i].Result.PredictedStatus]++
	}

	total := len(records)
	outcomes := make([]OutcomeCount, 0, len(counts))
	for status, count := range counts {
		pct := 0.0
		if total > 0 {
			pct = float64(count) / float64(total) * 100
		}
		outcomes = append(outcomes, OutcomeCount{Status: status, Count: count, Percentage: pct})
	}

	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].Count != outcomes[j].Count {
			return outcomes[i].Count > outcomes[j].Count
		}
		return outcomes[i].Status < outcomes[j].Status
	})
	return outcomes, nil
}

// TrendPoint is one calendar day's record count.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Trends buckets records by calendar date (UTC, day granularity),
// sorted ascending by date. Records without a usable timestamp are
// skipped, not errored.
func (e *Engine) Trends(ctx context.Context, ownerID string, f domain.FilterSpec) ([]TrendPoint, error) {
	records, err := e.fetch(ctx, ownerID, f, "trends")
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]int)
	for i := range records {
		ts := records[i].CreatedAt
		if ts.IsZero() {
			continue
		}
		buckets[ts.UTC().Format("2006-01-02")]++
	}

	trends := make([]TrendPoint, 0, len(buckets))
	for date, count := range buckets {
		trends = append(trends, TrendPoint{Date: date, Count: count})
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })
	return trends, nil
}

// Records returns one filtered, sorted, paginated page of predictions.
func (e *Engine) Records(ctx context.Context, ownerID string, q domain.ListQuery) (*domain.Page, error) {
	page, err := e.store.List(ctx, ownerID, q.Normalize())
	if err != nil {
		return nil, &domain.AggregationError{Operation: "records", Err: err}
	}
	return page, nil
}
