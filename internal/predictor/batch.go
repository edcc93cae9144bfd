package predictor

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mohrashard/LiverLens/internal/domain"
)

// BatchRowResult reports one accepted row of a bulk ingestion.
type BatchRowResult struct {
	Row             int    `json:"row"`
	PredictionID    string `json:"prediction_id"`
	PredictedStatus string `json:"predicted_status"`
	RiskLevel       string `json:"risk_level"`
}

// BatchResult reports a bulk ingestion run. When the run halted early,
// Results still holds every row accepted before the failure; accepted
// rows are never rolled back.
type BatchResult struct {
	RowsProcessed int              `json:"rows_processed"`
	RowsSaved     int              `json:"rows_saved"`
	Results       []BatchRowResult `json:"results"`
}

// PredictBatch ingests a delimited file of patient records: one
// prediction per row, each saved for the owning user. The header must
// contain all required column names. Processing halts at the first row
// that fails validation or preprocessing; the returned error is then a
// *domain.BatchRowError carrying the 1-based data-row index, alongside
// the partial BatchResult.
func (s *Service) PredictBatch(ctx context.Context, userID string, r io.Reader) (*BatchResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, domain.NewValidationError("", "CSV file is empty or unreadable")
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range domain.RequiredFields {
		if _, ok := colIndex[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError("",
			fmt.Sprintf("CSV is missing required columns: %s", strings.Join(missing, ", ")))
	}

	result := &BatchResult{}
	for rowNum := 1; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.RowsProcessed++
			return result, &domain.BatchRowError{Row: rowNum, Err: err}
		}
		result.RowsProcessed++

		fields := make(map[string]string, len(colIndex))
		for name, idx := range colIndex {
			if idx < len(row) {
				fields[name] = row[idx]
			}
		}

		persisted, err := s.PredictAndSave(ctx, userID, domain.RecordFromRow(fields))
		if err != nil {
			return result, &domain.BatchRowError{Row: rowNum, Err: err}
		}

		result.RowsSaved++
		result.Results = append(result.Results, BatchRowResult{
			Row:             rowNum,
			PredictionID:    persisted.ID,
			PredictedStatus: persisted.Result.PredictedStatus,
			RiskLevel:       persisted.Result.RiskLevel,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"rows_saved": result.RowsSaved,
	}).Info("Batch prediction completed")
	return result, nil
}
