package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/Ayash-Bera/budgetbites/backend/internal/repository"
	"github.com/Ayash-Bera/budgetbites/backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Searcher runs the search pipeline.
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) models.SearchResponse
}

var errHistoryDisabled = errors.New("search history requires database.url")

type SearchHandler struct {
	searchService Searcher
	repoManager   *repository.RepositoryManager
	logger        *logrus.Logger
}

// NewSearchHandler builds the handler. repoManager is nil when no database
// is configured; history endpoints then answer 503.
func NewSearchHandler(
	searchService Searcher,
	repoManager *repository.RepositoryManager,
	logger *logrus.Logger,
) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		repoManager:   repoManager,
		logger:        logger,
	}
}

// HandleSearch processes search requests. The HTTP status always mirrors
// status_info.http_code.
func (h *SearchHandler) HandleSearch(c *gin.Context) {
	startTime := time.Now()
	ctx := c.Request.Context()
	log := utils.LoggerFrom(ctx, h.logger)

	payload, err := decodeObject(c)
	if err != nil {
		log.WithError(err).Warn("Invalid search request body")
		c.JSON(http.StatusBadRequest, models.NewFailureResponse(http.StatusBadRequest, []models.FailureDetail{{
			ReasonCode:   models.ReasonRequestValidationError,
			ReasonStatus: models.ReasonStatusFailure,
			ReasonDetails: []models.ValidationIssue{{
				Field:   "body",
				Message: "Request body must be a JSON object",
			}},
		}}))
		return
	}

	req := models.ParseSearchRequest(payload)
	resp := h.searchService.Search(ctx, req)
	responseTime := time.Since(startTime)

	log.WithFields(logrus.Fields{
		"http_code":     resp.StatusInfo.HTTPCode,
		"results_count": len(resp.StoresList),
		"response_time": responseTime.Milliseconds(),
	}).Info("Search request finished")

	if h.repoManager != nil {
		record := newSearchRecord(ctx, req, resp, responseTime, c.GetHeader("User-Agent"), c.ClientIP())
		go h.trackSearch(record)
	}

	c.JSON(resp.StatusInfo.HTTPCode, resp)
}

func decodeObject(c *gin.Context) (map[string]interface{}, error) {
	if c.Request.Body == nil {
		return nil, errors.New("empty body")
	}

	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()

	var payload interface{}
	if err := decoder.Decode(&payload); err != nil {
		return nil, err
	}
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil, errors.New("body is not a JSON object")
	}
	return obj, nil
}

func newSearchRecord(ctx context.Context, req models.SearchRequest, resp models.SearchResponse, responseTime time.Duration, userAgent, ip string) *models.SearchQuery {
	radius, _ := strconv.Atoi(req.RadiusMiles)

	storeNames := make(models.StringArray, 0, len(resp.StoresList))
	for _, offer := range resp.StoresList {
		storeNames = append(storeNames, offer.StoreDetails.StoreName)
	}

	reasonCode := ""
	if len(resp.StatusInfo.ReasonDetails) > 0 {
		reasonCode = resp.StatusInfo.ReasonDetails[0].ReasonCode
	}

	return &models.SearchQuery{
		RequestID:       utils.RequestIDFrom(ctx),
		ProductName:     req.ProductName,
		Location:        req.Location(),
		MinStoreResults: req.MinResults(),
		RadiusMiles:     radius,
		ResultsCount:    len(resp.StoresList),
		StoreNames:      storeNames,
		HTTPCode:        resp.StatusInfo.HTTPCode,
		ReasonCode:      reasonCode,
		SearchTimestamp: time.Now(),
		ResponseTimeMs:  int(responseTime.Milliseconds()),
		UserAgent:       userAgent,
		IPAddress:       ip,
	}
}

func (h *SearchHandler) trackSearch(record *models.SearchQuery) {
	log := h.logger.WithField("request_id", record.RequestID)

	if record.ProductName == "" {
		return
	}

	if err := h.repoManager.SearchQuery.Create(record); err != nil {
		log.WithError(err).Error("Failed to track search query")
	}

	if record.HTTPCode != http.StatusOK {
		return
	}
	if err := h.repoManager.PopularProduct.RecordSearch(record.ProductName, record.ResultsCount, record.ResponseTimeMs); err != nil {
		log.WithError(err).Error("Failed to update popular products")
	}
}

// HandleRecentSearches returns the latest recorded searches.
func (h *SearchHandler) HandleRecentSearches(c *gin.Context) {
	if h.repoManager == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Search history unavailable", errHistoryDisabled)
		return
	}

	searches, err := h.repoManager.SearchQuery.GetRecentSearches(queryLimit(c, 20, 100))
	if err != nil {
		utils.LoggerFrom(c.Request.Context(), h.logger).WithError(err).Error("Failed to get recent searches")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get recent searches", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Recent searches retrieved", searches)
}

// HandlePopularProducts returns the most searched products.
func (h *SearchHandler) HandlePopularProducts(c *gin.Context) {
	if h.repoManager == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Search history unavailable", errHistoryDisabled)
		return
	}

	products, err := h.repoManager.PopularProduct.GetTop(queryLimit(c, 10, 50))
	if err != nil {
		utils.LoggerFrom(c.Request.Context(), h.logger).WithError(err).Error("Failed to get popular products")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get popular products", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Popular products retrieved", products)
}

// HandleFeedback records feedback about an offer returned by a past search.
func (h *SearchHandler) HandleFeedback(c *gin.Context) {
	if h.repoManager == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Search history unavailable", errHistoryDisabled)
		return
	}
	log := utils.LoggerFrom(c.Request.Context(), h.logger)

	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid feedback format", err)
		return
	}

	if !models.IsValidFeedbackType(req.FeedbackType) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid feedback type", nil)
		return
	}

	if !h.searchExists(c, req.QueryID, "Failed to save feedback") {
		return
	}

	feedback := &models.OfferFeedback{
		QueryID:      req.QueryID,
		FeedbackType: req.FeedbackType,
		StoreName:    req.StoreName,
		FeedbackText: req.FeedbackText,
	}

	if err := h.repoManager.OfferFeedback.Create(feedback); err != nil {
		log.WithError(err).Error("Failed to save feedback")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to save feedback", err)
		return
	}

	log.WithFields(logrus.Fields{
		"query_id":      req.QueryID,
		"feedback_type": req.FeedbackType,
	}).Info("Feedback recorded")

	utils.SuccessResponse(c, http.StatusCreated, "Feedback recorded", feedback)
}

// HandleListFeedback returns the feedback left on one recorded search,
// newest first.
func (h *SearchHandler) HandleListFeedback(c *gin.Context) {
	if h.repoManager == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Search history unavailable", errHistoryDisabled)
		return
	}

	queryID, err := strconv.ParseUint(c.Param("query_id"), 10, 32)
	if err != nil || queryID == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid search id", nil)
		return
	}

	if !h.searchExists(c, uint(queryID), "Failed to load feedback") {
		return
	}

	feedback, err := h.repoManager.OfferFeedback.GetByQueryID(uint(queryID))
	if err != nil {
		utils.LoggerFrom(c.Request.Context(), h.logger).WithError(err).Error("Failed to load feedback")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load feedback", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Feedback retrieved", feedback)
}

// searchExists writes a 404 or 500 response and returns false when the
// recorded search cannot be loaded.
func (h *SearchHandler) searchExists(c *gin.Context, queryID uint, failure string) bool {
	_, err := h.repoManager.SearchQuery.GetByID(queryID)
	if err == nil {
		return true
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.ErrorResponse(c, http.StatusNotFound, "Search not found", nil)
		return false
	}
	utils.LoggerFrom(c.Request.Context(), h.logger).WithError(err).Error("Failed to load search")
	utils.ErrorResponse(c, http.StatusInternalServerError, failure, err)
	return false
}

func queryLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
