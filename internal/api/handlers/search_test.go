package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/Ayash-Bera/budgetbites/backend/internal/repository"
	"github.com/Ayash-Bera/budgetbites/backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSearcher struct {
	resp     models.SearchResponse
	received []models.SearchRequest
}

func (f *fakeSearcher) Search(ctx context.Context, req models.SearchRequest) models.SearchResponse {
	f.received = append(f.received, req)
	return f.resp
}

type fakeSearchRepo struct {
	created chan *models.SearchQuery
	known   map[uint]bool
}

func (r *fakeSearchRepo) Create(query *models.SearchQuery) error {
	r.created <- query
	return nil
}

func (r *fakeSearchRepo) GetByID(id uint) (*models.SearchQuery, error) {
	if !r.known[id] {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.SearchQuery{BaseModel: models.BaseModel{ID: id}}, nil
}

func (r *fakeSearchRepo) GetRecentSearches(limit int) ([]models.SearchQuery, error) {
	return []models.SearchQuery{{ProductName: "milk"}}, nil
}

type fakePopularRepo struct {
	recorded chan string
	limit    int
}

func (r *fakePopularRepo) RecordSearch(productName string, resultsCount int, responseTime int) error {
	r.recorded <- productName
	return nil
}

func (r *fakePopularRepo) GetTop(limit int) ([]models.PopularProduct, error) {
	r.limit = limit
	return []models.PopularProduct{{ProductName: "milk", SearchCount: 3}}, nil
}

type fakeFeedbackRepo struct {
	saved []*models.OfferFeedback
	byID  map[uint][]models.OfferFeedback
}

func (r *fakeFeedbackRepo) Create(feedback *models.OfferFeedback) error {
	r.saved = append(r.saved, feedback)
	return nil
}

func (r *fakeFeedbackRepo) GetByQueryID(queryID uint) ([]models.OfferFeedback, error) {
	return r.byID[queryID], nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func successResponse() models.SearchResponse {
	prompt := "find milk"
	name := "UFA - Budget Bite API"
	return models.SearchResponse{
		StoresList: []models.StoreOffer{{ProductName: "milk", ProductPrice: "$2.00", StoreDetails: models.StoreDetails{StoreName: "Ralphs"}}},
		StatusInfo: models.ResponseStatus{
			HTTPCode: 200,
			ReasonDetails: []models.FailureDetail{{
				ReasonCode:    models.ReasonOK,
				ReasonStatus:  models.ReasonStatusSuccess,
				ReasonDetails: []models.ValidationIssue{{Field: "message", Message: "ok"}},
			}},
		},
		PromptUsed: &prompt,
		APIName:    &name,
	}
}

func newRouter(h *SearchHandler) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(utils.WithRequestID(c.Request.Context(), "req-1"))
		c.Next()
	})
	router.POST("/api/v1/search", h.HandleSearch)
	router.GET("/api/v1/search/recent", h.HandleRecentSearches)
	router.GET("/api/v1/search/popular", h.HandlePopularProducts)
	router.POST("/api/v1/search/feedback", h.HandleFeedback)
	router.GET("/api/v1/search/feedback/:query_id", h.HandleListFeedback)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleSearch_ParsesSynonymsAndMirrorsStatus(t *testing.T) {
	searcher := &fakeSearcher{resp: successResponse()}
	router := newRouter(NewSearchHandler(searcher, nil, quietLogger()))

	w := postJSON(router, "/api/v1/search", `{"productName":" milk ","zip":90210,"minStoreResults":5,"radiusMiles":"10","ignored":true}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, searcher.received, 1)
	assert.Equal(t, models.SearchRequest{
		ProductName:     "milk",
		ZipCode:         "90210",
		MinStoreResults: "5",
		RadiusMiles:     "10",
	}, searcher.received[0])

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.StoresList, 1)
	assert.Equal(t, 200, resp.StatusInfo.HTTPCode)
}

func TestHandleSearch_FailureStatus(t *testing.T) {
	searcher := &fakeSearcher{resp: models.NewFailureResponse(http.StatusBadGateway, nil)}
	router := newRouter(NewSearchHandler(searcher, nil, quietLogger()))

	w := postJSON(router, "/api/v1/search", `{"product_name":"milk"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"stores_list":[]`)
}

func TestHandleSearch_NonObjectBody(t *testing.T) {
	searcher := &fakeSearcher{resp: successResponse()}
	router := newRouter(NewSearchHandler(searcher, nil, quietLogger()))

	for _, body := range []string{`[1,2]`, `not json`, ``} {
		w := postJSON(router, "/api/v1/search", body)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		var resp models.SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.ReasonRequestValidationError, resp.StatusInfo.ReasonDetails[0].ReasonCode)
	}
	assert.Empty(t, searcher.received)
}

func TestHandleSearch_RecordsHistory(t *testing.T) {
	searchRepo := &fakeSearchRepo{created: make(chan *models.SearchQuery, 1)}
	popularRepo := &fakePopularRepo{recorded: make(chan string, 1)}
	repos := &repository.RepositoryManager{SearchQuery: searchRepo, PopularProduct: popularRepo}

	router := newRouter(NewSearchHandler(&fakeSearcher{resp: successResponse()}, repos, quietLogger()))
	w := postJSON(router, "/api/v1/search", `{"product_name":"milk","zip_code":"90210","min_store_results":"5","radius_miles":"10"}`)
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case record := <-searchRepo.created:
		assert.Equal(t, "req-1", record.RequestID)
		assert.Equal(t, "milk", record.ProductName)
		assert.Equal(t, "90210", record.Location)
		assert.Equal(t, 5, record.MinStoreResults)
		assert.Equal(t, 10, record.RadiusMiles)
		assert.Equal(t, models.StringArray{"Ralphs"}, record.StoreNames)
		assert.Equal(t, models.ReasonOK, record.ReasonCode)
	case <-time.After(2 * time.Second):
		t.Fatal("search was not recorded")
	}

	select {
	case product := <-popularRepo.recorded:
		assert.Equal(t, "milk", product)
	case <-time.After(2 * time.Second):
		t.Fatal("popular product was not recorded")
	}
}

func TestHistoryEndpoints_WithoutDatabase(t *testing.T) {
	router := newRouter(NewSearchHandler(&fakeSearcher{}, nil, quietLogger()))

	for _, path := range []string{"/api/v1/search/recent", "/api/v1/search/popular", "/api/v1/search/feedback/1"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}

	w := postJSON(router, "/api/v1/search/feedback", `{"query_id":1,"feedback_type":"price_wrong"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandlePopularProducts_ClampsLimit(t *testing.T) {
	popularRepo := &fakePopularRepo{}
	repos := &repository.RepositoryManager{PopularProduct: popularRepo}
	router := newRouter(NewSearchHandler(&fakeSearcher{}, repos, quietLogger()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/search/popular?limit=500", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, popularRepo.limit)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "req-1", resp.RequestID)
}

func TestHandleFeedback(t *testing.T) {
	feedbackRepo := &fakeFeedbackRepo{}
	repos := &repository.RepositoryManager{
		SearchQuery:   &fakeSearchRepo{known: map[uint]bool{7: true}},
		OfferFeedback: feedbackRepo,
	}
	router := newRouter(NewSearchHandler(&fakeSearcher{}, repos, quietLogger()))

	w := postJSON(router, "/api/v1/search/feedback", `{"query_id":7,"feedback_type":"price_wrong","store_name":"Ralphs","feedback_text":"was $4"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, feedbackRepo.saved, 1)
	assert.Equal(t, "Ralphs", feedbackRepo.saved[0].StoreName)

	w = postJSON(router, "/api/v1/search/feedback", `{"query_id":7,"feedback_type":"helpful"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "/api/v1/search/feedback", `{"query_id":99,"feedback_type":"price_accurate"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Len(t, feedbackRepo.saved, 1)
}

func TestHandleListFeedback(t *testing.T) {
	feedbackRepo := &fakeFeedbackRepo{byID: map[uint][]models.OfferFeedback{
		7: {
			{QueryID: 7, FeedbackType: "price_wrong", StoreName: "Ralphs"},
			{QueryID: 7, FeedbackType: "price_accurate", StoreName: "Vons"},
		},
	}}
	repos := &repository.RepositoryManager{
		SearchQuery:   &fakeSearchRepo{known: map[uint]bool{7: true, 8: true}},
		OfferFeedback: feedbackRepo,
	}
	router := newRouter(NewSearchHandler(&fakeSearcher{}, repos, quietLogger()))

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/api/v1/search/feedback/7")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []models.OfferFeedback `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "Ralphs", body.Data[0].StoreName)

	assert.Equal(t, http.StatusOK, get("/api/v1/search/feedback/8").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/v1/search/feedback/99").Code)
	assert.Equal(t, http.StatusBadRequest, get("/api/v1/search/feedback/abc").Code)
}
