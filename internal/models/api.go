package models

// Reason codes reported in FailureDetail.ReasonCode.
const (
	ReasonOK                       = "OK"
	ReasonRequestValidationError   = "REQUEST_VALIDATION_ERROR"
	ReasonAPIConfigValidationError = "API_CONFIG_VALIDATION_ERROR"
	ReasonGeminiError              = "GEMINI_ERROR"
	ReasonInternalError            = "INTERNAL_ERROR"
	ReasonRateLimited              = "RATE_LIMITED"
)

const (
	ReasonStatusSuccess = "success"
	ReasonStatusFailure = "failure"
)

// ValidationIssue is a single field problem.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FailureDetail groups issues under one machine-readable reason code.
// It is also used for the success detail.
type FailureDetail struct {
	ReasonCode    string            `json:"reason_code"`
	ReasonStatus  string            `json:"reason_status"`
	ReasonDetails []ValidationIssue `json:"reason_details"`
}

type ResponseStatus struct {
	HTTPCode      int             `json:"http_code"`
	ReasonDetails []FailureDetail `json:"reason_details"`
}

// SearchResponse is the uniform envelope for every search outcome.
type SearchResponse struct {
	StoresList []StoreOffer   `json:"stores_list"`
	StatusInfo ResponseStatus `json:"status_info"`
	PromptUsed *string        `json:"prompt_used"`
	APIName    *string        `json:"api_name"`
}

// NewFailureResponse builds an error envelope with an empty offer list.
func NewFailureResponse(httpCode int, details []FailureDetail) SearchResponse {
	if details == nil {
		details = []FailureDetail{}
	}
	return SearchResponse{
		StoresList: []StoreOffer{},
		StatusInfo: ResponseStatus{
			HTTPCode:      httpCode,
			ReasonDetails: details,
		},
	}
}

// NewInternalErrorResponse is the generic 500 envelope.
func NewInternalErrorResponse(apiName string) SearchResponse {
	resp := NewFailureResponse(500, []FailureDetail{{
		ReasonCode:   ReasonInternalError,
		ReasonStatus: ReasonStatusFailure,
		ReasonDetails: []ValidationIssue{{
			Field:   "message",
			Message: "An unexpected error occurred.",
		}},
	}})
	if apiName != "" {
		resp.APIName = &apiName
	}
	return resp
}

type FeedbackRequest struct {
	QueryID      uint   `json:"query_id" binding:"required"`
	FeedbackType string `json:"feedback_type" binding:"required"`
	StoreName    string `json:"store_name"`
	FeedbackText string `json:"feedback_text"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}
