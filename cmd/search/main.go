package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/Ayash-Bera/budgetbites/backend/internal/app"
	"github.com/Ayash-Bera/budgetbites/backend/internal/config"
	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/Ayash-Bera/budgetbites/backend/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	product    = flag.String("product", "", "Product to search for")
	zip        = flag.String("zip", "", "Zip code, required (12345 or 12345-6789)")
	city       = flag.String("city", "", "City name, appended to store lookups (does not replace -zip)")
	state      = flag.String("state", "", "State name, appended to store lookups (does not replace -zip)")
	minResults = flag.Int("min", 5, "Minimum store results")
	radius     = flag.Int("radius", 10, "Search radius in miles")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.NewLogger(cfg.App.LogLevel, "text")
	logger.SetOutput(os.Stderr)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = utils.WithRequestID(ctx, utils.NewRequestID())

	searchService, err := app.NewSearchService(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize search service")
	}

	resp := searchService.Search(ctx, models.SearchRequest{
		ProductName:     *product,
		CityName:        *city,
		StateName:       *state,
		ZipCode:         *zip,
		MinStoreResults: strconv.Itoa(*minResults),
		RadiusMiles:     strconv.Itoa(*radius),
	})

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(resp); err != nil {
		logger.WithError(err).Fatal("Failed to encode response")
	}

	if resp.StatusInfo.HTTPCode != 200 {
		os.Exit(1)
	}
}
