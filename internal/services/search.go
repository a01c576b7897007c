package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Ayash-Bera/budgetbites/backend/internal/config"
	"github.com/Ayash-Bera/budgetbites/backend/internal/gemini"
	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/Ayash-Bera/budgetbites/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

// OfferGenerator turns a prompt into raw store records.
type OfferGenerator interface {
	GenerateOffers(ctx context.Context, prompt string) ([]gemini.RawStoreRecord, error)
}

type SearchService struct {
	config    *config.Config
	generator OfferGenerator
	enricher  *Enricher
	logger    *logrus.Logger
}

func NewSearchService(
	cfg *config.Config,
	generator OfferGenerator,
	enricher *Enricher,
	logger *logrus.Logger,
) *SearchService {
	return &SearchService{
		config:    cfg,
		generator: generator,
		enricher:  enricher,
		logger:    logger,
	}
}

// Search runs the full pipeline. It always returns an envelope: validation
// failures yield 400, provider failures 502 and anything unexpected 500.
func (s *SearchService) Search(ctx context.Context, req models.SearchRequest) (resp models.SearchResponse) {
	log := utils.LoggerFrom(ctx, s.logger)

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Unhandled error in search pipeline")
			resp = models.NewInternalErrorResponse(s.config.App.APIName)
		}
	}()

	if details := s.collectValidationErrors(req); len(details) > 0 {
		log.WithField("error_groups", len(details)).Error("Validation failed")
		return models.NewFailureResponse(http.StatusBadRequest, details)
	}

	prompt := BuildPrompt(PromptTemplates{
		Zip:       s.config.Queries.ZipTemplate,
		CityState: s.config.Queries.CityStateTemplate,
	}, req)

	log.WithFields(logrus.Fields{
		"product":  req.ProductName,
		"location": req.Location(),
	}).Info("Searching for product")

	raws, err := s.generator.GenerateOffers(ctx, prompt)
	if err != nil {
		if !gemini.IsProviderError(err) {
			log.WithError(err).Error("Unexpected generation failure")
			return models.NewInternalErrorResponse(s.config.App.APIName)
		}
		log.WithError(err).Error("Gemini search failed")
		return models.NewFailureResponse(http.StatusBadGateway, []models.FailureDetail{{
			ReasonCode:   models.ReasonGeminiError,
			ReasonStatus: models.ReasonStatusFailure,
			ReasonDetails: []models.ValidationIssue{{
				Field:   "message",
				Message: err.Error(),
			}},
		}})
	}

	offers := RankOffers(NormalizeOffers(raws), req.MinResults())
	if len(raws) > 0 && len(offers) == 0 {
		log.Warn("No valid store items found in Gemini response")
	}

	if s.enricher != nil {
		s.enricher.Enrich(ctx, offers, req)
	}

	return s.successResponse(offers, prompt, req)
}

func (s *SearchService) collectValidationErrors(req models.SearchRequest) []models.FailureDetail {
	var details []models.FailureDetail

	if issues := ValidateRequest(req); len(issues) > 0 {
		details = append(details, models.FailureDetail{
			ReasonCode:    models.ReasonRequestValidationError,
			ReasonStatus:  models.ReasonStatusFailure,
			ReasonDetails: issues,
		})
	}

	if issues := s.config.ValidateSearch(); len(issues) > 0 {
		details = append(details, models.FailureDetail{
			ReasonCode:    models.ReasonAPIConfigValidationError,
			ReasonStatus:  models.ReasonStatusFailure,
			ReasonDetails: issues,
		})
	}

	return details
}

func (s *SearchService) successResponse(offers []models.StoreOffer, prompt string, req models.SearchRequest) models.SearchResponse {
	apiName := s.config.App.APIName
	if apiName == "" {
		apiName = "UFA - Budget Bite API"
	}

	return models.SearchResponse{
		StoresList: offers,
		StatusInfo: models.ResponseStatus{
			HTTPCode: http.StatusOK,
			ReasonDetails: []models.FailureDetail{{
				ReasonCode:   models.ReasonOK,
				ReasonStatus: models.ReasonStatusSuccess,
				ReasonDetails: []models.ValidationIssue{{
					Field:   "message",
					Message: fmt.Sprintf("Search completed successfully. Found %d stores; requested minimum %d.", len(offers), req.MinResults()),
				}},
			}},
		},
		PromptUsed: &prompt,
		APIName:    &apiName,
	}
}
