package domain

import "context"

// Classifier is the opaque trained model. Predict is a pure,
// deterministic function of the feature vector and the loaded
// artifact; the returned distribution is ordered by class index and
// sums to 1 within floating tolerance.
type Classifier interface {
	Predict(features []float64) ([]float64, error)
	// Importances returns the per-feature importance scores supplied by
	// the trained model, ordered like the feature-name list. May be nil
	// when the artifact does not carry them.
	Importances() []float64
	// Labels returns the decoded class labels ordered by class index.
	Labels() []string
}

// PredictionStore is the abstract record store for persisted
// predictions. Implementations own all concurrency control; callers
// assume single-document atomicity for Insert/Delete and
// snapshot-consistent reads for FetchAll.
type PredictionStore interface {
	Insert(ctx context.Context, p *PersistedPrediction) error
	// Delete removes one record owned by ownerID. Returns ErrNotFound
	// whether the record is missing or owned by someone else.
	Delete(ctx context.Context, ownerID, id string) error
	// DeleteMany removes the listed records that belong to ownerID and
	// reports how many were actually removed. Not atomic across items.
	DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error)
	List(ctx context.Context, ownerID string, q ListQuery) (*Page, error)
	// FetchAll returns every record matching the filter, for
	// aggregation. An empty ownerID matches all owners.
	FetchAll(ctx context.Context, ownerID string, f FilterSpec) ([]PersistedPrediction, error)
	Close() error
}
