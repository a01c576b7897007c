package utils

import (
	"github.com/google/uuid"
)

// NewRequestID generates a correlation id for an inbound request.
func NewRequestID() string {
	return uuid.NewString()
}

// ValidateRequestID reports whether an incoming X-Request-ID is safe to echo.
func ValidateRequestID(requestID string) bool {
	if requestID == "" || len(requestID) > 128 {
		return false
	}
	for _, r := range requestID {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}
