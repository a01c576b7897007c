package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Ayash-Bera/budgetbites/backend/internal/config"
	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/Ayash-Bera/budgetbites/backend/internal/places"
	"github.com/Ayash-Bera/budgetbites/backend/pkg/utils"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

const defaultEnrichConcurrency = 5

// PlaceLookup resolves a store to its address and website.
type PlaceLookup interface {
	SearchPlace(ctx context.Context, query string) (*places.Candidate, error)
	GetDetails(ctx context.Context, placeID string) (*places.Details, error)
}

type EnrichmentConfig struct {
	Enabled     bool
	Mode        string
	MaxEnrich   int
	Concurrency int
}

// Enricher back-fills store address and website from the places provider.
type Enricher struct {
	lookup PlaceLookup
	config EnrichmentConfig
	logger *logrus.Logger
}

func NewEnricher(lookup PlaceLookup, cfg EnrichmentConfig, logger *logrus.Logger) *Enricher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultEnrichConcurrency
	}
	if cfg.Mode != config.EnrichModeAlways {
		cfg.Mode = config.EnrichModeMissingOnly
	}
	return &Enricher{
		lookup: lookup,
		config: cfg,
		logger: logger,
	}
}

// Enrich updates offers in place. It returns only after every lookup has
// finished. Lookup failures are logged per offer and never returned; the
// order of offers is never changed.
func (e *Enricher) Enrich(ctx context.Context, offers []models.StoreOffer, req models.SearchRequest) {
	log := utils.LoggerFrom(ctx, e.logger)

	if !e.config.Enabled || len(offers) == 0 {
		return
	}
	if e.lookup == nil {
		log.Warn("Places lookup not configured; skipping enrichment")
		return
	}

	eligible := len(offers)
	if e.config.MaxEnrich < eligible {
		eligible = e.config.MaxEnrich
	}
	if eligible <= 0 {
		return
	}

	pool, err := ants.NewPool(e.config.Concurrency)
	if err != nil {
		log.WithError(err).Error("Failed to create enrichment pool")
		return
	}
	defer pool.Release()

	suffix := locationSuffix(req)
	var wg sync.WaitGroup

	for i := 0; i < eligible; i++ {
		offer := &offers[i]
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			e.enrichOne(ctx, log, offer, suffix)
		}); err != nil {
			wg.Done()
			log.WithError(err).WithField("store", offer.StoreDetails.StoreName).Warn("Failed to schedule enrichment")
		}
	}

	wg.Wait()

	log.WithFields(logrus.Fields{
		"considered": eligible,
		"mode":       e.config.Mode,
	}).Debug("Enrichment completed")
}

func (e *Enricher) enrichOne(ctx context.Context, log *logrus.Entry, offer *models.StoreOffer, suffix string) {
	storeName := offer.StoreDetails.StoreName
	defer func() {
		if r := recover(); r != nil {
			log.WithField("store", storeName).Warnf("Unexpected enrichment error: %v", r)
		}
	}()

	always := e.config.Mode == config.EnrichModeAlways
	needAddress := always || offer.StoreDetails.StoreAddress == ""
	needWebsite := always || offer.StoreDetails.Website == ""
	if !needAddress && !needWebsite {
		return
	}

	query := storeName
	if suffix != "" {
		query = fmt.Sprintf("%s %s", storeName, suffix)
	}

	candidate, err := e.lookup.SearchPlace(ctx, query)
	if err != nil {
		log.WithError(err).WithField("store", storeName).Warn("Places enrichment failed")
		return
	}
	if candidate == nil || candidate.PlaceID == "" {
		return
	}

	details, err := e.lookup.GetDetails(ctx, candidate.PlaceID)
	if err != nil {
		log.WithError(err).WithField("store", storeName).Warn("Places enrichment failed")
		return
	}
	if details == nil {
		return
	}

	if needAddress && details.FormattedAddress != "" {
		offer.StoreDetails.StoreAddress = details.FormattedAddress
	}
	if needWebsite && details.Website != "" {
		offer.StoreDetails.Website = details.Website
	}
}

func locationSuffix(req models.SearchRequest) string {
	var parts []string
	for _, p := range []string{req.CityName, req.StateName, req.ZipCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
