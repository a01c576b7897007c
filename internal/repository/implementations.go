package repository

import (
	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"gorm.io/gorm"
)

// SearchQueryRepositoryImpl implements SearchQueryRepository
type SearchQueryRepositoryImpl struct {
	db *gorm.DB
}

func NewSearchQueryRepository(db *gorm.DB) models.SearchQueryRepository {
	return &SearchQueryRepositoryImpl{db: db}
}

func (r *SearchQueryRepositoryImpl) Create(query *models.SearchQuery) error {
	return r.db.Create(query).Error
}

func (r *SearchQueryRepositoryImpl) GetByID(id uint) (*models.SearchQuery, error) {
	var query models.SearchQuery
	err := r.db.Preload("Feedback").First(&query, id).Error
	if err != nil {
		return nil, err
	}
	return &query, nil
}

func (r *SearchQueryRepositoryImpl) GetRecentSearches(limit int) ([]models.SearchQuery, error) {
	var queries []models.SearchQuery
	err := r.db.Order("search_timestamp DESC").
		Limit(limit).
		Find(&queries).Error
	return queries, err
}

// OfferFeedbackRepositoryImpl implements OfferFeedbackRepository
type OfferFeedbackRepositoryImpl struct {
	db *gorm.DB
}

func NewOfferFeedbackRepository(db *gorm.DB) models.OfferFeedbackRepository {
	return &OfferFeedbackRepositoryImpl{db: db}
}

func (r *OfferFeedbackRepositoryImpl) Create(feedback *models.OfferFeedback) error {
	return r.db.Create(feedback).Error
}

func (r *OfferFeedbackRepositoryImpl) GetByQueryID(queryID uint) ([]models.OfferFeedback, error) {
	var feedback []models.OfferFeedback
	err := r.db.Where("query_id = ?", queryID).
		Order("created_at DESC").
		Find(&feedback).Error
	return feedback, err
}

// PopularProductRepositoryImpl implements PopularProductRepository
type PopularProductRepositoryImpl struct {
	db *gorm.DB
}

func NewPopularProductRepository(db *gorm.DB) models.PopularProductRepository {
	return &PopularProductRepositoryImpl{db: db}
}

// RecordSearch upserts the product row and folds the new sample into the
// running averages.
func (r *PopularProductRepositoryImpl) RecordSearch(productName string, resultsCount int, responseTime int) error {
	return r.db.Exec(`
		INSERT INTO popular_products (product_name, search_count, avg_results_count, avg_response_time_ms, last_searched, created_at, updated_at)
		VALUES (?, 1, ?, ?, NOW(), NOW(), NOW())
		ON CONFLICT (product_name)
		DO UPDATE SET
			search_count = popular_products.search_count + 1,
			avg_results_count = (popular_products.avg_results_count * popular_products.search_count + EXCLUDED.avg_results_count) / (popular_products.search_count + 1),
			avg_response_time_ms = (popular_products.avg_response_time_ms * popular_products.search_count + EXCLUDED.avg_response_time_ms) / (popular_products.search_count + 1),
			last_searched = NOW(),
			updated_at = NOW()
	`, productName, resultsCount, responseTime).Error
}

func (r *PopularProductRepositoryImpl) GetTop(limit int) ([]models.PopularProduct, error) {
	var products []models.PopularProduct
	err := r.db.Order("search_count DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// SystemHealthRepositoryImpl implements SystemHealthRepository
type SystemHealthRepositoryImpl struct {
	db *gorm.DB
}

func NewSystemHealthRepository(db *gorm.DB) models.SystemHealthRepository {
	return &SystemHealthRepositoryImpl{db: db}
}

func (r *SystemHealthRepositoryImpl) UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error {
	return r.db.Exec(`
		INSERT INTO system_health (service_name, status, response_time_ms, error_message, checked_at)
		VALUES (?, ?, ?, ?, NOW())
	`, serviceName, status, responseTime, errorMsg).Error
}

func (r *SystemHealthRepositoryImpl) GetAllServicesHealth() ([]models.SystemHealth, error) {
	var health []models.SystemHealth
	err := r.db.Raw(`
		SELECT DISTINCT ON (service_name) *
		FROM system_health
		ORDER BY service_name, checked_at DESC
	`).Scan(&health).Error
	return health, err
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	SearchQuery    models.SearchQueryRepository
	OfferFeedback  models.OfferFeedbackRepository
	PopularProduct models.PopularProductRepository
	SystemHealth   models.SystemHealthRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		SearchQuery:    NewSearchQueryRepository(db),
		OfferFeedback:  NewOfferFeedbackRepository(db),
		PopularProduct: NewPopularProductRepository(db),
		SystemHealth:   NewSystemHealthRepository(db),
	}
}
