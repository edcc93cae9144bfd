package repository

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohrashard/LiverLens/internal/domain"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &SQLiteStore{db: db, log: logger}, mock
}

func storedPrediction(id, userID string) *domain.PersistedPrediction {
	rec := domain.PatientRecord{}
	rec = rec.WithField(domain.FieldPatientID, domain.String("P-1"))
	rec = rec.WithField(domain.FieldAge, domain.String("52"))
	return &domain.PersistedPrediction{
		ID:     id,
		UserID: userID,
		Input:  rec,
		Result: domain.PredictionResult{
			PredictedStatus: "C",
			RiskLevel:       domain.RiskLow,
		},
		CreatedAt: time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteStore_Insert(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO predictions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Insert(context.Background(), storedPrediction("pred-1", "user-1"))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_InsertFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO predictions").
		WillReturnError(assert.AnError)

	err := store.Insert(context.Background(), storedPrediction("pred-1", "user-1"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting prediction")
}

func TestSQLiteStore_Delete(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM predictions WHERE id = \? AND user_id = \?`).
		WithArgs("pred-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Delete(context.Background(), "user-1", "pred-1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_DeleteNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM predictions WHERE id = \? AND user_id = \?`).
		WithArgs("missing", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Delete(context.Background(), "user-1", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_DeleteMany(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM predictions WHERE user_id = \? AND id IN \(\?, \?\)`).
		WithArgs("user-1", "pred-1", "pred-2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err := store.DeleteMany(context.Background(), "user-1", []string{"pred-1", "pred-2"})

	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_DeleteManyEmpty(t *testing.T) {
	store, mock := newMockStore(t)

	deleted, err := store.DeleteMany(context.Background(), "user-1", nil)

	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet(), "no query issued for an empty id list")
}

func TestSQLiteStore_List(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM predictions WHERE user_id = \?`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	rows := sqlmock.NewRows([]string{"id", "user_id", "input_json", "result_json", "created_at"}).
		AddRow("pred-1", "user-1", `{"Age": "52"}`, `{"predicted_status": "C", "risk_level": "Low"}`, created)
	mock.ExpectQuery(`SELECT id, user_id, input_json, result_json, created_at FROM predictions WHERE user_id = \? ORDER BY created_at DESC, id ASC LIMIT \? OFFSET \?`).
		WithArgs("user-1", 10, 10).
		WillReturnRows(rows)

	page, err := store.List(context.Background(), "user-1", domain.ListQuery{
		Page:     2,
		PerPage:  10,
		SortDesc: true,
	})

	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "pred-1", page.Records[0].ID)
	assert.Equal(t, "C", page.Records[0].Result.PredictedStatus)
	age, ok := page.Records[0].Input.FloatField(domain.FieldAge)
	require.True(t, ok)
	assert.Equal(t, 52.0, age)
	assert.Equal(t, int64(12), page.Pagination.TotalCount)
	assert.Equal(t, int64(2), page.Pagination.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ListCorruptRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := sqlmock.NewRows([]string{"id", "user_id", "input_json", "result_json", "created_at"}).
		AddRow("pred-1", "user-1", "not json", "{}", time.Now())
	mock.ExpectQuery("SELECT id, user_id, input_json, result_json, created_at FROM predictions").
		WillReturnRows(rows)

	_, err := store.List(context.Background(), "user-1", domain.ListQuery{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning prediction row")
}

func TestSQLiteStore_FetchAll(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "input_json", "result_json", "created_at"}).
		AddRow("pred-1", "user-1", `{}`, `{"predicted_status": "C"}`, created).
		AddRow("pred-2", "user-1", `{}`, `{"predicted_status": "D"}`, created.Add(time.Hour))
	mock.ExpectQuery(`SELECT id, user_id, input_json, result_json, created_at FROM predictions WHERE user_id = \? AND bilirubin >= \? ORDER BY created_at ASC, id ASC`).
		WithArgs("user-1", 2.0).
		WillReturnRows(rows)

	records, err := store.FetchAll(context.Background(), "user-1", domain.FilterSpec{
		Ranges: map[string]domain.NumericRange{
			domain.FieldBilirubin: {Min: floatPtr(2.0)},
		},
	})

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "pred-2", records[1].ID)
	assert.Equal(t, "D", records[1].Result.PredictedStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
