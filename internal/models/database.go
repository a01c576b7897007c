package models

// GORM models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// StringArray for PostgreSQL array support
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	quoted := make([]string, len(s))
	for i, v := range s {
		quoted[i] = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v) + `"`
	}
	return fmt.Sprintf("{%s}", strings.Join(quoted, ",")), nil
}

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		v = strings.Trim(v, "{}")
		if v == "" {
			*s = StringArray{}
			return nil
		}
		parts := strings.Split(v, ",")
		for i, p := range parts {
			parts[i] = strings.Trim(p, `"`)
		}
		*s = StringArray(parts)
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
	return nil
}

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchQuery records one completed search call.
type SearchQuery struct {
	BaseModel
	RequestID       string      `json:"request_id" gorm:"index"`
	ProductName     string      `json:"product_name" gorm:"not null"`
	Location        string      `json:"location"`
	MinStoreResults int         `json:"min_store_results"`
	RadiusMiles     int         `json:"radius_miles"`
	ResultsCount    int         `json:"results_count" gorm:"default:0"`
	StoreNames      StringArray `json:"store_names" gorm:"type:text[]"`
	HTTPCode        int         `json:"http_code"`
	ReasonCode      string      `json:"reason_code"`
	SearchTimestamp time.Time   `json:"search_timestamp" gorm:"default:NOW()"`
	ResponseTimeMs  int         `json:"response_time_ms"`
	UserAgent       string      `json:"user_agent"`
	IPAddress       string      `json:"ip_address"`

	// Associations
	Feedback []OfferFeedback `json:"feedback,omitempty" gorm:"foreignKey:QueryID"`
}

// OfferFeedback is a user's report on the accuracy of a returned offer.
type OfferFeedback struct {
	BaseModel
	QueryID      uint   `json:"query_id" gorm:"not null"`
	FeedbackType string `json:"feedback_type" gorm:"not null;check:feedback_type IN ('price_accurate','price_wrong','store_unavailable')"`
	StoreName    string `json:"store_name"`
	FeedbackText string `json:"feedback_text"`
}

// PopularProduct represents frequently searched products
type PopularProduct struct {
	BaseModel
	ProductName       string    `json:"product_name" gorm:"unique;not null"`
	SearchCount       int       `json:"search_count" gorm:"default:1"`
	AvgResultsCount   float64   `json:"avg_results_count" gorm:"type:decimal(6,2);default:0"`
	AvgResponseTimeMs int       `json:"avg_response_time_ms" gorm:"default:0"`
	LastSearched      time.Time `json:"last_searched" gorm:"default:NOW()"`
}

// SystemHealth represents service health monitoring
type SystemHealth struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ServiceName    string    `json:"service_name" gorm:"not null"`
	Status         string    `json:"status" gorm:"not null;check:status IN ('healthy','degraded','unhealthy')"`
	ResponseTimeMs int       `json:"response_time_ms"`
	ErrorMessage   string    `json:"error_message"`
	CheckedAt      time.Time `json:"checked_at" gorm:"default:NOW()"`
}

type SearchQueryRepository interface {
	Create(query *SearchQuery) error
	GetByID(id uint) (*SearchQuery, error)
	GetRecentSearches(limit int) ([]SearchQuery, error)
}

type OfferFeedbackRepository interface {
	Create(feedback *OfferFeedback) error
	GetByQueryID(queryID uint) ([]OfferFeedback, error)
}

type PopularProductRepository interface {
	RecordSearch(productName string, resultsCount int, responseTime int) error
	GetTop(limit int) ([]PopularProduct, error)
}

type SystemHealthRepository interface {
	UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error
	GetAllServicesHealth() ([]SystemHealth, error)
}

func (SearchQuery) TableName() string    { return "search_queries" }
func (OfferFeedback) TableName() string  { return "offer_feedback" }
func (PopularProduct) TableName() string { return "popular_products" }
func (SystemHealth) TableName() string   { return "system_health" }

var validFeedbackTypes = map[string]bool{
	"price_accurate":    true,
	"price_wrong":       true,
	"store_unavailable": true,
}

// IsValidFeedbackType reports whether t is an accepted OfferFeedback type.
func IsValidFeedbackType(t string) bool {
	return validFeedbackTypes[t]
}

func (sq *SearchQuery) Validate() error {
	if sq.ProductName == "" {
		return fmt.Errorf("product name is required")
	}
	if sq.ResponseTimeMs < 0 {
		return fmt.Errorf("response time cannot be negative")
	}
	return nil
}

func (of *OfferFeedback) Validate() error {
	if of.QueryID == 0 {
		return fmt.Errorf("query ID is required")
	}
	if !IsValidFeedbackType(of.FeedbackType) {
		return fmt.Errorf("invalid feedback type: %s", of.FeedbackType)
	}
	return nil
}

// GORM hooks
func (sq *SearchQuery) BeforeCreate(tx *gorm.DB) error {
	return sq.Validate()
}

func (of *OfferFeedback) BeforeCreate(tx *gorm.DB) error {
	return of.Validate()
}
