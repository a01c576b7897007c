package utils

import (
	"github.com/gin-gonic/gin"
)

// APIResponse wraps the auxiliary endpoints (history, feedback). Search
// responses use their own envelope.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func SuccessResponse(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: RequestIDFrom(c.Request.Context()),
	})
}

func ErrorResponse(c *gin.Context, code int, message string, err error) {
	response := APIResponse{
		Success:   false,
		Message:   message,
		RequestID: RequestIDFrom(c.Request.Context()),
	}

	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(code, response)
}
