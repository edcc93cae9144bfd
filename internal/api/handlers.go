package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mohrashard/LiverLens/internal/domain"
	"github.com/mohrashard/LiverLens/internal/middleware"
)

func userID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// handleHealth reports service liveness plus the state of the model
// artifact and the cache tier.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"model_loaded":  s.predictor != nil,
		"cache_healthy": s.cache.Healthy(c.Request.Context()),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

// handlePredict runs the full pipeline and persists the outcome for
// the calling user.
func (s *Server) handlePredict(c *gin.Context) {
	var rec domain.PatientRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be a JSON object"})
		return
	}

	persisted, err := s.predictor.PredictAndSave(c.Request.Context(), userID(c), rec)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prediction_id": persisted.ID,
		"timestamp":     persisted.CreatedAt.Format(time.RFC3339),
		"result":        persisted.Result,
	})
}

// handlePredictOnly runs the pipeline without saving anything. Used by
// the what-if playground.
func (s *Server) handlePredictOnly(c *gin.Context) {
	var rec domain.PatientRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be a JSON object"})
		return
	}

	result, err := s.predictor.Predict(c.Request.Context(), rec)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleBatchPredict ingests a CSV upload, one prediction per row.
// When processing halts mid-file the response still reports every row
// accepted before the failure.
func (s *Server) handleBatchPredict(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A CSV file upload named 'file' is required"})
		return
	}
	defer file.Close()

	result, err := s.predictor.PredictBatch(c.Request.Context(), userID(c), file)
	if err != nil {
		var rowErr *domain.BatchRowError
		if errors.As(err, &rowErr) && result != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":          rowErr.Err.Error(),
				"failed_row":     rowErr.Row,
				"rows_processed": result.RowsProcessed,
				"rows_saved":     result.RowsSaved,
				"results":        result.Results,
			})
			return
		}
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleHistory returns one filtered, sorted page of the caller's
// saved predictions.
func (s *Server) handleHistory(c *gin.Context) {
	page, err := s.predictor.History(c.Request.Context(), userID(c), parseListQuery(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// handleDeletePrediction removes one record owned by the caller.
func (s *Server) handleDeletePrediction(c *gin.Context) {
	id := c.Param("id")
	if err := s.predictor.DeletePrediction(c.Request.Context(), userID(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prediction deleted", "id": id})
}

// handleBulkDelete removes the listed records owned by the caller and
// reports how many were actually removed.
func (s *Server) handleBulkDelete(c *gin.Context) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || len(body.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A non-empty 'ids' array is required"})
		return
	}

	deleted, err := s.predictor.DeletePredictions(c.Request.Context(), userID(c), body.IDs)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   userID(c),
		"requested": len(body.IDs),
		"deleted":   deleted,
	}).Info("Bulk delete completed")
	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "requested": len(body.IDs)})
}

// handleStats returns the caller's quick dashboard summary.
func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.predictor.Stats(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
