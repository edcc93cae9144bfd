// Package predictor orchestrates the prediction pipeline: domain
// defaults, validation, feature transformation, classifier invocation
// and result construction, plus persistence of the outcome.
package predictor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mohrashard/LiverLens/internal/domain"
	"github.com/mohrashard/LiverLens/internal/metrics"
	"github.com/mohrashard/LiverLens/internal/preprocess"
)

// Notifier receives each successfully saved prediction, e.g. to feed
// live dashboard subscribers. Implementations must not block.
type Notifier interface {
	PredictionSaved(p *domain.PersistedPrediction)
}

// Service implements the prediction workflow over the shared immutable
// artifact. All methods are safe for concurrent use.
type Service struct {
	logger      *logrus.Logger
	classifier  domain.Classifier
	transformer *preprocess.Transformer
	store       domain.PredictionStore
	notifier    Notifier
}

// NewService creates a new prediction service. notifier may be nil.
func NewService(
	logger *logrus.Logger,
	classifier domain.Classifier,
	transformer *preprocess.Transformer,
	store domain.PredictionStore,
	notifier Notifier,
) *Service {
	return &Service{
		logger:      logger,
		classifier:  classifier,
		transformer: transformer,
		store:       store,
		notifier:    notifier,
	}
}

// Predict runs the full pipeline without persisting anything. Used by
// the playground endpoint and as the shared core of PredictAndSave.
func (s *Service) Predict(ctx context.Context, rec domain.PatientRecord) (*domain.PredictionResult, error) {
	rec = preprocess.ApplyDefaults(rec)
	return s.predictPrepared(rec)
}

// PredictAndSave runs the pipeline and persists the outcome for the
// owning user. The stored input is the record after domain defaults,
// matching what the classifier actually saw.
func (s *Service) PredictAndSave(ctx context.Context, userID string, rec domain.PatientRecord) (*domain.PersistedPrediction, error) {
	rec = preprocess.ApplyDefaults(rec)
	result, err := s.predictPrepared(rec)
	if err != nil {
		return nil, err
	}

	persisted := &domain.PersistedPrediction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Input:     rec,
		Result:    *result,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, persisted); err != nil {
		return nil, fmt.Errorf("saving prediction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"prediction_id":    persisted.ID,
		"user_id":          userID,
		"predicted_status": result.PredictedStatus,
		"risk_level":       result.RiskLevel,
	}).Info("Prediction made and saved")

	if s.notifier != nil {
		s.notifier.PredictionSaved(persisted)
	}
	return persisted, nil
}

func (s *Service) predictPrepared(rec domain.PatientRecord) (*domain.PredictionResult, error) {
	if err := preprocess.Validate(rec); err != nil {
		metrics.PredictionErrors.WithLabelValues("validation").Inc()
		return nil, err
	}

	start := time.Now()
	vector, err := s.transformer.Transform(rec)
	if err != nil {
		metrics.PredictionErrors.WithLabelValues("preprocessing").Inc()
		s.logger.WithError(err).Error("Preprocessing error")
		return nil, err
	}

	probabilities, err := s.classifier.Predict(vector)
	if err != nil {
		metrics.PredictionErrors.WithLabelValues("classification").Inc()
		s.logger.WithError(err).Error("Classifier invocation failed")
		return nil, fmt.Errorf("classifier invocation: %w", err)
	}

	result := s.buildResult(probabilities)
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	metrics.PredictionsTotal.WithLabelValues(result.PredictedStatus).Inc()

	s.logger.WithFields(logrus.Fields{
		"predicted_status": result.PredictedStatus,
		"risk_level":       result.RiskLevel,
	}).Info("Prediction completed")
	return result, nil
}

// buildResult maps a class-probability distribution to the final
// prediction result. The predicted status is the arg-max class; ties
// break on the first-encountered index, matching the artifact's class
// ordering. Probability keys are decoded through the label encoder so
// callers always see the original class labels.
func (s *Service) buildResult(probabilities []float64) *domain.PredictionResult {
	labels := s.classifier.Labels()

	best := 0
	for i, p := range probabilities {
		if p > probabilities[best] {
			best = i
		}
	}
	status := ""
	if best < len(labels) {
		status = labels[best]
	}

	probMap := make(map[string]float64, len(probabilities))
	for i, p := range probabilities {
		if i < len(labels) {
			probMap[labels[i]] = p
		}
	}

	return &domain.PredictionResult{
		PredictedStatus:   status,
		StatusDescription: domain.DescriptionForStatus(status),
		Probabilities:     probMap,
		RiskLevel:         domain.RiskForStatus(status),
		Disclaimer:        domain.Disclaimer,
	}
}

// History returns one page of the user's saved predictions.
func (s *Service) History(ctx context.Context, userID string, q domain.ListQuery) (*domain.Page, error) {
	return s.store.List(ctx, userID, q.Normalize())
}

// DeletePrediction removes one record owned by the user. A missing
// record and someone else's record are indistinguishable to the caller.
func (s *Service) DeletePrediction(ctx context.Context, userID, id string) error {
	return s.store.Delete(ctx, userID, id)
}

// DeletePredictions removes the listed records that belong to the user
// and reports how many were actually removed.
func (s *Service) DeletePredictions(ctx context.Context, userID string, ids []string) (int64, error) {
	return s.store.DeleteMany(ctx, userID, ids)
}

// QuickStats summarizes a user's prediction history for the dashboard.
type QuickStats struct {
	TotalPredictions   int                        `json:"total_predictions"`
	StatusDistribution map[string]int             `json:"status_distribution"`
	RiskDistribution   map[string]int             `json:"risk_distribution"`
	LatestPrediction   *domain.PersistedPrediction `json:"latest_prediction"`
}

// Stats computes the quick dashboard summary over the user's full
// history. An empty history is a valid all-zero result, not an error.
func (s *Service) Stats(ctx context.Context, userID string) (*QuickStats, error) {
	records, err := s.store.FetchAll(ctx, userID, domain.FilterSpec{})
	if err != nil {
		return nil, fmt.Errorf("loading prediction history: %w", err)
	}

	stats := &QuickStats{
		TotalPredictions:   len(records),
		StatusDistribution: make(map[string]int),
		RiskDistribution:   make(map[string]int),
	}
	for i := range records {
		rec := &records[i]
		stats.StatusDistribution[rec.Result.PredictedStatus]++
		stats.RiskDistribution[rec.Result.RiskLevel]++
		if stats.LatestPrediction == nil || rec.CreatedAt.After(stats.LatestPrediction.CreatedAt) {
			stats.LatestPrediction = rec
		}
	}
	return stats, nil
}
