package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/Ayash-Bera/budgetbites/backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// RequestID honours a well-formed incoming X-Request-ID or generates one,
// stores it in the request context and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if !utils.ValidateRequestID(requestID) {
			requestID = utils.NewRequestID()
		}

		c.Request = c.Request.WithContext(utils.WithRequestID(c.Request.Context(), requestID))
		c.Header(RequestIDHeader, requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// RequestLogger logs the start and end of every request.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		log := utils.LoggerFrom(c.Request.Context(), logger).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})

		log.Info("Request start")
		c.Next()

		log.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		}).Info("Request end")
	}
}

// Recovery converts a panic into the generic 500 search envelope.
func Recovery(apiName string, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				utils.LoggerFrom(c.Request.Context(), logger).WithFields(logrus.Fields{
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("Unhandled error")

				c.AbortWithStatusJSON(http.StatusInternalServerError, models.NewInternalErrorResponse(apiName))
			}
		}()
		c.Next()
	}
}
