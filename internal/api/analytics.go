package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohrashard/LiverLens/internal/cache"
	"github.com/mohrashard/LiverLens/internal/metrics"
)

// serveCached answers an analytics request from the response cache
// when possible, computing and back-filling the cache otherwise. The
// cache key covers operation, caller and the full filter, so two users
// or two filters never share an entry.
func (s *Server) serveCached(c *gin.Context, operation string, params any, compute func() (any, error)) {
	ctx := c.Request.Context()
	key := cache.Key(operation, userID(c), params)

	if payload, ok := s.cache.Get(ctx, key); ok {
		metrics.AnalyticsRequests.WithLabelValues(operation, "hit").Inc()
		c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
		return
	}
	metrics.AnalyticsRequests.WithLabelValues(operation, "miss").Inc()

	result, err := compute()
	if err != nil {
		s.respondError(c, err)
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.cache.Set(ctx, key, payload)
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

func (s *Server) handleAnalyticsSummary(c *gin.Context) {
	f := parseFilter(c)
	s.serveCached(c, "summary", f, func() (any, error) {
		return s.analytics.Summary(c.Request.Context(), userID(c), f)
	})
}

func (s *Server) handleAnalyticsOutcomes(c *gin.Context) {
	f := parseFilter(c)
	s.serveCached(c, "outcomes", f, func() (any, error) {
		return s.analytics.OutcomeDistribution(c.Request.Context(), userID(c), f)
	})
}

func (s *Server) handleAnalyticsHistograms(c *gin.Context) {
	f := parseFilter(c)
	s.serveCached(c, "histograms", f, func() (any, error) {
		return s.analytics.Histograms(c.Request.Context(), userID(c), f)
	})
}

func (s *Server) handleAnalyticsCorrelation(c *gin.Context) {
	f := parseFilter(c)
	s.serveCached(c, "correlation", f, func() (any, error) {
		return s.analytics.Correlation(c.Request.Context(), userID(c), f)
	})
}

// handleAnalyticsImportance serves the model's feature importance
// ranking. It depends only on the loaded artifact, never the record
// set, so no cache round-trip is needed.
func (s *Server) handleAnalyticsImportance(c *gin.Context) {
	metrics.AnalyticsRequests.WithLabelValues("importance", "bypass").Inc()
	c.JSON(http.StatusOK, gin.H{"importances": s.analytics.Importance()})
}

func (s *Server) handleAnalyticsTrends(c *gin.Context) {
	f := parseFilter(c)
	s.serveCached(c, "trends", f, func() (any, error) {
		return s.analytics.Trends(c.Request.Context(), userID(c), f)
	})
}

func (s *Server) handleAnalyticsSubgroups(c *gin.Context) {
	f := parseFilter(c)
	s.serveCached(c, "subgroups", f, func() (any, error) {
		return s.analytics.Subgroups(c.Request.Context(), userID(c), f)
	})
}

// handleAnalyticsRecords lists the filtered record pages backing the
// other analytics views. Served uncached; listings change with every
// insert and are already a single indexed query.
func (s *Server) handleAnalyticsRecords(c *gin.Context) {
	metrics.AnalyticsRequests.WithLabelValues("records", "bypass").Inc()
	page, err := s.analytics.Records(c.Request.Context(), userID(c), parseListQuery(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
