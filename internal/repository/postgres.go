package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/mohrashard/LiverLens/internal/domain"
)

// PostgresStore persists prediction records in PostgreSQL via a pgx
// connection pool. Schema management is handled by the migration
// runner, not here.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

// NewPostgresStore wraps an established connection pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *logrus.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, log: logger}
}

// Insert stores one prediction record.
func (s *PostgresStore) Insert(ctx context.Context, p *domain.PersistedPrediction) error {
	args, err := insertArgs(p)
	if err != nil {
		return err
	}

	query := rebind(fmt.Sprintf(
		"INSERT INTO predictions (%s) VALUES (%s)",
		predictionColumns, placeholders(len(args)),
	))
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
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
func (s *PostgresStore) Delete(ctx context.Context, ownerID, id string) error {
	result, err := s.pool.Exec(ctx,
		"DELETE FROM predictions WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"prediction_id": id,
			"user_id":       ownerID,
			"error":         err,
		}).Error("Failed to delete prediction")
		return fmt.Errorf("deleting prediction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("prediction %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteMany removes the listed records belonging to ownerID and
// reports how many rows were actually removed.
func (s *PostgresStore) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := s.pool.Exec(ctx,
		"DELETE FROM predictions WHERE user_id = $1 AND id = ANY($2)", ownerID, ids)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": ownerID,
			"count":   len(ids),
			"error":   err,
		}).Error("Failed to bulk delete predictions")
		return 0, fmt.Errorf("bulk deleting predictions: %w", err)
	}
	return result.RowsAffected(), nil
}

// List returns one filtered, sorted, paginated page of records.
func (s *PostgresStore) List(ctx context.Context, ownerID string, q domain.ListQuery) (*domain.Page, error) {
	q = q.Normalize()
	where, args := buildWhere(ownerID, q.Filter)

	var total int64
	countQuery := rebind("SELECT COUNT(*) FROM predictions" + where)
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting predictions: %w", err)
	}

	query := rebind("SELECT " + scanColumns + " FROM predictions" + where + orderBy(q) + " LIMIT ? OFFSET ?")
	pageArgs := append(append([]any{}, args...), q.PerPage, (q.Page-1)*q.PerPage)

	rows, err := s.pool.Query(ctx, query, pageArgs...)
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
func (s *PostgresStore) FetchAll(ctx context.Context, ownerID string, f domain.FilterSpec) ([]domain.PersistedPrediction, error) {
	where, args := buildWhere(ownerID, f)
	query := rebind("SELECT " + scanColumns + " FROM predictions" + where + " ORDER BY created_at ASC, id ASC")

	rows, err := s.pool.Query(ctx, query, args...)
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

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
