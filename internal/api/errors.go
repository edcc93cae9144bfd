package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mohrashard/LiverLens/internal/domain"
)

// respondError maps domain errors onto HTTP status codes. Validation
// messages are returned verbatim; internal faults are logged in full
// and surfaced generically.
func (s *Server) respondError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		body := gin.H{"error": validationErr.Message}
		if validationErr.Field != "" {
			body["field"] = validationErr.Field
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrNotFound.Error()})
		return
	}

	if errors.Is(err, domain.ErrModelUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Model is not available"})
		return
	}

	s.log.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.FullPath(),
		"error":      err,
	}).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
