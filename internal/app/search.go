package app

import (
	"context"

	"github.com/Ayash-Bera/budgetbites/backend/internal/config"
	"github.com/Ayash-Bera/budgetbites/backend/internal/gemini"
	"github.com/Ayash-Bera/budgetbites/backend/internal/places"
	"github.com/Ayash-Bera/budgetbites/backend/internal/services"
	"github.com/sirupsen/logrus"
)

// NewSearchService wires the pipeline from configuration. Missing provider
// keys do not fail construction; searches then report the problem.
func NewSearchService(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*services.SearchService, error) {
	var generator gemini.Generator
	if cfg.Gemini.APIKey != "" {
		g, err := gemini.NewGenAIGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.HTTPTimeout(), logger)
		if err != nil {
			return nil, err
		}
		generator = g
	}

	geminiService := gemini.NewService(generator, cfg.Gemini.Model, gemini.RetryConfigForAttempts(cfg.Gemini.RetryAttempts), logger)

	var lookup services.PlaceLookup
	placesClient := places.NewClient(cfg.Places.APIKey, cfg.Places.TextSearchURL, cfg.Places.DetailsURL, cfg.HTTPTimeout(), logger)
	if placesClient.Configured() {
		lookup = placesClient
	}

	enricher := services.NewEnricher(lookup, services.EnrichmentConfig{
		Enabled:     cfg.Places.EnableEnrichment,
		Mode:        cfg.Places.EnrichMode,
		MaxEnrich:   cfg.Places.MaxEnrich,
		Concurrency: cfg.Places.Concurrency,
	}, logger)

	return services.NewSearchService(cfg, geminiService, enricher, logger), nil
}
