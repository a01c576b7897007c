package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ayash-Bera/budgetbites/backend/internal/health"
	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okPinger struct{}

func (okPinger) PingDatabase(ctx context.Context) error { return nil }
func (okPinger) PingRedis(ctx context.Context) error    { return nil }

func TestHandleHealth(t *testing.T) {
	checker := health.NewHealthChecker(okPinger{}, nil, nil, health.Providers{GeminiConfigured: true}, quietLogger())
	h := NewHealthHandler(checker, "BudgetBitesAPI", "1.0.0")

	router := gin.New()
	router.GET("/health", h.HandleHealth)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "BudgetBitesAPI", resp.Service)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.NotEmpty(t, resp.Timestamp)
	assert.Equal(t, health.StatusHealthy, resp.Services["gemini"])
	assert.Equal(t, health.StatusDegraded, resp.Services["places"])
}

func TestHandleHealth_WithoutChecker(t *testing.T) {
	router := gin.New()
	router.GET("/health", NewHealthHandler(nil, "BudgetBitesAPI", "1.0.0").HandleHealth)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "services")
}
