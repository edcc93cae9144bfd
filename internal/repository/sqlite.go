package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/mohrashard/LiverLens/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS predictions (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	patient_id       TEXT NOT NULL DEFAULT '',
	patient_name     TEXT NOT NULL DEFAULT '',
	input_json       TEXT NOT NULL,
	result_json      TEXT NOT NULL,
	predicted_status TEXT NOT NULL,
	risk_level       TEXT NOT NULL,
	age              REAL,
	bilirubin        REAL,
	cholesterol      REAL,
	albumin          REAL,
	copper           REAL,
	alk_phos         REAL,
	sgot             REAL,
	tryglicerides    REAL,
	platelets        REAL,
	prothrombin      REAL,
	stage            REAL,
	drug             TEXT NOT NULL DEFAULT '',
	sex              TEXT NOT NULL DEFAULT '',
	ascites          TEXT NOT NULL DEFAULT '',
	hepatomegaly     TEXT NOT NULL DEFAULT '',
	spiders          TEXT NOT NULL DEFAULT '',
	edema            TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_user_created
	ON predictions (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_predictions_user_patient
	ON predictions (user_id, patient_id);
`

// SQLiteStore persists prediction records in an embedded SQLite
// database. It is the default backend for single-node deployments.
type SQLiteStore struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewSQLiteStore opens (creating if needed) the database file, enables
// WAL mode and bootstraps the schema.
func NewSQLiteStore(ctx context.Context, path string, logger *logrus.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Single writer; WAL keeps readers unblocked during inserts.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrapping sqlite schema: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"driver": "sqlite",
		"path":   path,
	}).Info("Prediction store opened")

	return &SQLiteStore{db: db, log: logger}, nil
}

// Insert stores one prediction record.
func (s *SQLiteStore) Insert(ctx context.Context, p *domain.PersistedPrediction) error {
	args, err := insertArgs(p)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		"INSERT INTO predictions (%s) VALUES (%s)",
		predictionColumns, placeholders(len(args)),
	)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.log.WithFields(logrus.Fields{
			"prediction_id": p.ID,
			"user_id":       p.UserID,
			"error":         err,
		}).Error("Failed to insert prediction")
		return fmt.Errorf("inserting prediction: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"prediction_id": p.ID,
		"user_id":       p.UserID,
		"status":        p.Result.PredictedStatus,
	}).Info("Prediction saved")
	return nil
}

// Delete removes one record owned by ownerID.
func (s *SQLiteStore) Delete(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM predictions WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"prediction_id": id,
			"user_id":       ownerID,
			"error":         err,
		}).Error("Failed to delete prediction")
		return fmt.Errorf("deleting prediction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting prediction: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("prediction %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteMany removes the listed records belonging to ownerID and
// reports how many rows were actually removed.
func (s *SQLiteStore) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, ownerID)
	for _, id := range ids {
		args = append(args, id)
	}

	query := fmt.Sprintf(
		"DELETE FROM predictions WHERE user_id = ? AND id IN (%s)",
		placeholders(len(ids)),
	)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": ownerID,
			"count":   len(ids),
			"error":   err,
		}).Error("Failed to bulk delete predictions")
		return 0, fmt.Errorf("bulk deleting predictions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk deleting predictions: %w", err)
	}
	return affected, nil
}

// List returns one filtered, sorted, paginated page of records.
func (s *SQLiteStore) List(ctx context.Context, ownerID string, q domain.ListQuery) (*domain.Page, error) {
	q = q.Normalize()
	where, args := buildWhere(ownerID, q.Filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM predictions" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting predictions: %w", err)
	}

	query := "SELECT " + scanColumns + " FROM predictions" + where + orderBy(q) + " LIMIT ? OFFSET ?"
	pageArgs := append(append([]any{}, args...), q.PerPage, (q.Page-1)*q.PerPage)

	rows, err := s.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("listing predictions: %w", err)
	}
	defer rows.Close()

	records := make([]domain.PersistedPrediction, 0, q.PerPage)
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prediction row: %w", err)
		}
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prediction rows: %w", err)
	}

	return &domain.Page{
		Records:    records,
		Pagination: domain.NewPagination(q.Page, q.PerPage, total),
	}, nil
}

// FetchAll returns every record matching the filter, ordered by
// creation time ascending.
func (s *SQLiteStore) FetchAll(ctx context.Context, ownerID string, f domain.FilterSpec) ([]domain.PersistedPrediction, error) {
	where, args := buildWhere(ownerID, f)
	query := "SELECT " + scanColumns + " FROM predictions" + where + " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching predictions: %w", err)
	}
	defer rows.Close()

	var records []domain.PersistedPrediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prediction row: %w", err)
		}
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prediction rows: %w", err)
	}
	return records, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
