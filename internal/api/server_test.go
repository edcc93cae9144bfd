package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohrashard/LiverLens/internal/analytics"
	"github.com/mohrashard/LiverLens/internal/artifact"
	"github.com/mohrashard/LiverLens/internal/cache"
	"github.com/mohrashard/LiverLens/internal/domain"
	"github.com/mohrashard/LiverLens/internal/predictor"
	"github.com/mohrashard/LiverLens/internal/preprocess"
)

type fixedClassifier struct {
	probs  []float64
	labels []string
}

func (f *fixedClassifier) Predict(features []float64) ([]float64, error) { return f.probs, nil }

func (f *fixedClassifier) Importances() []float64 { return []float64{0.5, 0.5} }

func (f *fixedClassifier) Labels() []string { return f.labels }

// memStore is a minimal in-memory PredictionStore for handler tests.
type memStore struct {
	records []domain.PersistedPrediction
}

func (m *memStore) Insert(ctx context.Context, p *domain.PersistedPrediction) error {
	m.records = append(m.records, *p)
	return nil
}

func (m *memStore) Delete(ctx context.Context, ownerID, id string) error {
	for i := range m.records {
		if m.records[i].ID == id && m.records[i].UserID == ownerID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memStore) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if m.Delete(ctx, ownerID, id) == nil {
			deleted++
		}
	}
	return deleted, nil
}

func (m *memStore) List(ctx context.Context, ownerID string, q domain.ListQuery) (*domain.Page, error) {
	q = q.Normalize()
	matched := m.owned(ownerID)
	start := (q.Page - 1) * q.PerPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return &domain.Page{
		Records:    matched[start:end],
		Pagination: domain.NewPagination(q.Page, q.PerPage, int64(len(matched))),
	}, nil
}

func (m *memStore) FetchAll(ctx context.Context, ownerID string, f domain.FilterSpec) ([]domain.PersistedPrediction, error) {
	return m.owned(ownerID), nil
}

func (m *memStore) owned(ownerID string) []domain.PersistedPrediction {
	var matched []domain.PersistedPrediction
	for _, r := range m.records {
		if ownerID == "" || r.UserID == ownerID {
			matched = append(matched, r)
		}
	}
	return matched
}

func (m *memStore) Close() error { return nil }

func testBundle() *artifact.Bundle {
	columns := make([]string, len(domain.NumericFields))
	stats := make([]float64, len(domain.NumericFields))
	for i, name := range domain.NumericFields {
		columns[i] = name
		stats[i] = 1
	}
	encoders := make(map[string]artifact.Encoder, len(domain.CategoricalFields))
	for _, name := range domain.CategoricalFields {
		encoders[name] = artifact.Encoder{Classes: []string{"N", "Y"}}
	}
	return &artifact.Bundle{
		Model: &artifact.ModelSpec{NumClasses: 3},
		Preprocessing: &artifact.Preprocessing{
			FeatureNames:        append(append([]string{}, domain.NumericFields...), domain.CategoricalFields...),
			Imputer:             artifact.Imputer{Columns: columns, Statistics: stats},
			CategoricalEncoders: encoders,
			Labels:              artifact.LabelEncoder{Classes: []string{"C", "CL", "D"}},
		},
	}
}

// newTestServer wires a full server over an in-memory store with a
// fixed classifier and a disabled cache.
func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := &memStore{}
	classifier := &fixedClassifier{
		probs:  []float64{0.1, 0.2, 0.7},
		labels: []string{"C", "CL", "D"},
	}
	bundle := testBundle()
	transformer := preprocess.NewTransformer(bundle, logger)
	svc := predictor.NewService(logger, classifier, transformer, store, nil)
	engine := analytics.NewEngine(logger, store, classifier, bundle.Preprocessing.FeatureNames)

	responseCache, err := cache.New(domain.CacheConfig{Enabled: false}, logger)
	require.NoError(t, err)

	cfg := domain.Config{}
	cfg.Server.AllowedOrigin = "http://localhost:3000"
	return NewServer(cfg, logger, svc, engine, responseCache, NewHub(logger)), store
}

func doRequest(t *testing.T, s *Server, method, path, user string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

const validRecordJSON = `{
	"Patient_Name": "Jane Roe",
	"Patient_ID": "P-100",
	"N_Days": 400,
	"Drug": "Placebo",
	"Age": 52,
	"Sex": "F",
	"Ascites": "N",
	"Hepatomegaly": "Y",
	"Spiders": "N",
	"Edema": "N",
	"Bilirubin": 1.4,
	"Cholesterol": 261,
	"Albumin": 3.6,
	"Copper": 156,
	"Alk_Phos": 1718,
	"SGOT": 137.95,
	"Tryglicerides": 172,
	"Platelets": 190,
	"Prothrombin": 12.2,
	"Stage": 4
}`

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["model_loaded"])
	assert.Equal(t, true, body["cache_healthy"])
}

func TestServer_RequiresIdentity(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/history", "", nil)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "X-User-ID header is required", decodeBody(t, w)["error"])
}

func TestServer_Predict(t *testing.T) {
	s, store := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/predict", "user-1", strings.NewReader(validRecordJSON))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["prediction_id"])
	result := body["result"].(map[string]any)
	assert.Equal(t, "D", result["predicted_status"])
	assert.Equal(t, domain.RiskHigh, result["risk_level"])
	require.Len(t, store.records, 1)
	assert.Equal(t, "user-1", store.records[0].UserID)
}

func TestServer_PredictValidationFailure(t *testing.T) {
	s, store := newTestServer(t)
	bad := strings.Replace(validRecordJSON, `"Age": 52`, `"Age": 999`, 1)

	w := doRequest(t, s, http.MethodPost, "/api/predict", "user-1", strings.NewReader(bad))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Age must be between 0 and 150 years", decodeBody(t, w)["error"])
	assert.Empty(t, store.records)
}

func TestServer_PredictRejectsMalformedBody(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/predict", "user-1", strings.NewReader("not json"))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Request body must be a JSON object", decodeBody(t, w)["error"])
}

func TestServer_PredictOnlyDoesNotPersist(t *testing.T) {
	s, store := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/predict-only", "user-1", strings.NewReader(validRecordJSON))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "D", decodeBody(t, w)["predicted_status"])
	assert.Empty(t, store.records)
}

func TestServer_History(t *testing.T) {
	s, _ := newTestServer(t)
	for i := 0; i < 12; i++ {
		w := doRequest(t, s, http.MethodPost, "/api/predict", "user-1", strings.NewReader(validRecordJSON))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(t, s, http.MethodGet, "/api/history?page=2&per_page=10", "user-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["predictions"], 2)
	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(12), pagination["total_count"])
	assert.Equal(t, float64(2), pagination["total_pages"])
}

func TestServer_DeletePredictionNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodDelete, "/api/history/nope", "user-1", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_BulkDeleteRequiresIDs(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodDelete, "/api/history", "user-1", strings.NewReader(`{"ids": []}`))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "A non-empty 'ids' array is required", decodeBody(t, w)["error"])
}

func TestServer_BulkDelete(t *testing.T) {
	s, store := newTestServer(t)
	w := doRequest(t, s, http.MethodPost, "/api/predict", "user-1", strings.NewReader(validRecordJSON))
	require.Equal(t, http.StatusOK, w.Code)
	id := store.records[0].ID

	payload, err := json.Marshal(map[string][]string{"ids": {id, "missing"}})
	require.NoError(t, err)
	w = doRequest(t, s, http.MethodDelete, "/api/history", "user-1", bytes.NewReader(payload))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["deleted"])
	assert.Equal(t, float64(2), body["requested"])
	assert.Empty(t, store.records)
}

func TestServer_AnalyticsSummary(t *testing.T) {
	s, _ := newTestServer(t)
	for i := 0; i < 3; i++ {
		w := doRequest(t, s, http.MethodPost, "/api/predict", "user-1", strings.NewReader(validRecordJSON))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(t, s, http.MethodGet, "/api/analytics/summary", "user-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(3), body["total_records"])
}

func TestServer_AnalyticsScopedToCaller(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodPost, "/api/predict", "user-1", strings.NewReader(validRecordJSON))
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, s, http.MethodGet, "/api/analytics/summary", "someone-else", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["total_records"])
}

func TestServer_AnalyticsImportance(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/analytics/importance", "user-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	importances, ok := body["importances"].([]any)
	require.True(t, ok)
	assert.Len(t, importances, 2)
}

func TestServer_CORSHeaders(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/health", "", nil)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestServer_StatsAfterPredictions(t *testing.T) {
	s, _ := newTestServer(t)
	for i := 0; i < 2; i++ {
		w := doRequest(t, s, http.MethodPost, "/api/predict", "user-1", strings.NewReader(validRecordJSON))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(t, s, http.MethodGet, "/api/stats", "user-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["total_predictions"])

	latest, ok := body["latest_prediction"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, latest["timestamp"])
}
