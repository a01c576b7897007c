package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ayash-Bera/budgetbites/backend/internal/config"
	"github.com/Ayash-Bera/budgetbites/backend/internal/gemini"
	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/Ayash-Bera/budgetbites/backend/internal/places"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// textGenerator is a gemini.Generator returning fixed text.
type textGenerator struct {
	text    string
	err     error
	prompts []string
}

func (g *textGenerator) Generate(ctx context.Context, model, prompt string) (*gemini.GroundedText, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return nil, g.err
	}
	return &gemini.GroundedText{Text: g.text}, nil
}

type panicGenerator struct{}

func (panicGenerator) GenerateOffers(ctx context.Context, prompt string) ([]gemini.RawStoreRecord, error) {
	panic("boom")
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.APIName = "UFA - Budget Bite API"
	cfg.Gemini.APIKey = "test-key"
	cfg.Gemini.Model = "gemini-test"
	cfg.Queries.ZipTemplate = "Find {item_name} near {zipcode} within {radius_miles} miles ({min_results} stores)"
	cfg.Queries.CityStateTemplate = "Find {item_name} in {city_name}, {state_name}"
	return cfg
}

func newTestSearchService(cfg *config.Config, gen gemini.Generator, enricher *Enricher) *SearchService {
	retry := gemini.RetryConfig{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	service := gemini.NewService(gen, cfg.Gemini.Model, retry, testLogger())
	return NewSearchService(cfg, service, enricher, testLogger())
}

func fencedJSON(t *testing.T, items []map[string]string) string {
	data, err := json.Marshal(items)
	require.NoError(t, err)
	return "Here are the stores:\n```json\n" + string(data) + "\n```"
}

func TestSearch_MilkScenario(t *testing.T) {
	prices := []string{"$3.50", "$2.00", "abc", "$4.10", "$1.25", "$5.00", "$2.75", "$3.10"}
	items := make([]map[string]string, len(prices))
	for i, p := range prices {
		items[i] = map[string]string{
			"product_name": "milk",
			"store_name":   "Store " + string(rune('A'+i)),
			"price":        p,
		}
	}
	gen := &textGenerator{text: fencedJSON(t, items)}

	svc := newTestSearchService(testConfig(), gen, nil)
	resp := svc.Search(context.Background(), zipRequest)

	require.Equal(t, http.StatusOK, resp.StatusInfo.HTTPCode)
	require.Len(t, resp.StoresList, 5)
	assert.Equal(t, []string{"$1.25", "$2.00", "$2.75", "$3.10", "$3.50"}, pricesOf(resp.StoresList))

	detail := resp.StatusInfo.ReasonDetails[0]
	assert.Equal(t, models.ReasonOK, detail.ReasonCode)
	assert.Equal(t, models.ReasonStatusSuccess, detail.ReasonStatus)
	assert.Equal(t, "Search completed successfully. Found 5 stores; requested minimum 5.", detail.ReasonDetails[0].Message)

	require.NotNil(t, resp.PromptUsed)
	assert.Equal(t, "Find milk near 90210 within 10 miles (5 stores)", *resp.PromptUsed)
	assert.Equal(t, []string{*resp.PromptUsed}, gen.prompts)
	require.NotNil(t, resp.APIName)
	assert.Equal(t, "UFA - Budget Bite API", *resp.APIName)
}

func TestSearch_UnparsablePriceSortsLast(t *testing.T) {
	gen := &textGenerator{text: `[{"price":"abc"},{"price":"$3.50"},{"price":"$2.00"}]`}

	resp := newTestSearchService(testConfig(), gen, nil).Search(context.Background(), models.SearchRequest{
		ProductName: "milk", ZipCode: "90210", MinStoreResults: "10", RadiusMiles: "10",
	})

	assert.Equal(t, []string{"$2.00", "$3.50", "abc"}, pricesOf(resp.StoresList))
}

func TestSearch_TrailingCommaRepaired(t *testing.T) {
	gen := &textGenerator{text: "```json\n[\n  {\"store_name\": \"Ralphs\", \"price\": \"$1.00\",},\n  {\"store_name\": \"Vons\", \"price\": \"$0.50\"},\n]\n```"}

	resp := newTestSearchService(testConfig(), gen, nil).Search(context.Background(), zipRequest)

	require.Equal(t, http.StatusOK, resp.StatusInfo.HTTPCode)
	require.Len(t, resp.StoresList, 2)
	assert.Equal(t, "Vons", resp.StoresList[0].StoreDetails.StoreName)
	assert.Equal(t, "Ralphs", resp.StoresList[1].StoreDetails.StoreName)
}

func TestSearch_UnrepairableIsEmptySuccess(t *testing.T) {
	gen := &textGenerator{text: "Sorry, I could not find any stores {{{"}

	resp := newTestSearchService(testConfig(), gen, nil).Search(context.Background(), zipRequest)

	assert.Equal(t, http.StatusOK, resp.StatusInfo.HTTPCode)
	assert.NotNil(t, resp.StoresList)
	assert.Empty(t, resp.StoresList)
	assert.Equal(t, "Search completed successfully. Found 0 stores; requested minimum 5.",
		resp.StatusInfo.ReasonDetails[0].ReasonDetails[0].Message)
}

func TestSearch_RequestValidationError(t *testing.T) {
	gen := &textGenerator{text: "[]"}

	resp := newTestSearchService(testConfig(), gen, nil).Search(context.Background(), models.SearchRequest{
		ProductName: "milk",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusInfo.HTTPCode)
	assert.Empty(t, resp.StoresList)
	assert.Nil(t, resp.PromptUsed)
	require.Len(t, resp.StatusInfo.ReasonDetails, 1)
	assert.Equal(t, models.ReasonRequestValidationError, resp.StatusInfo.ReasonDetails[0].ReasonCode)
	assert.Len(t, resp.StatusInfo.ReasonDetails[0].ReasonDetails, 3)
	assert.Empty(t, gen.prompts, "no generative call on validation failure")
}

func TestSearch_ConfigValidationError(t *testing.T) {
	cfg := testConfig()
	cfg.Gemini.APIKey = ""
	cfg.Queries.ZipTemplate = ""
	gen := &textGenerator{text: "[]"}

	resp := newTestSearchService(cfg, gen, nil).Search(context.Background(), models.SearchRequest{
		ProductName: "milk!", ZipCode: "90210", MinStoreResults: "5", RadiusMiles: "10",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusInfo.HTTPCode)
	require.Len(t, resp.StatusInfo.ReasonDetails, 2)
	assert.Equal(t, models.ReasonRequestValidationError, resp.StatusInfo.ReasonDetails[0].ReasonCode)
	assert.Equal(t, models.ReasonAPIConfigValidationError, resp.StatusInfo.ReasonDetails[1].ReasonCode)
	assert.Len(t, resp.StatusInfo.ReasonDetails[1].ReasonDetails, 2)
	assert.Empty(t, gen.prompts)
}

func TestSearch_ProviderError(t *testing.T) {
	gen := &textGenerator{err: errors.New("connection reset")}

	resp := newTestSearchService(testConfig(), gen, nil).Search(context.Background(), zipRequest)

	assert.Equal(t, http.StatusBadGateway, resp.StatusInfo.HTTPCode)
	assert.Empty(t, resp.StoresList)
	require.Len(t, resp.StatusInfo.ReasonDetails, 1)
	detail := resp.StatusInfo.ReasonDetails[0]
	assert.Equal(t, models.ReasonGeminiError, detail.ReasonCode)
	assert.Equal(t, "message", detail.ReasonDetails[0].Field)
	assert.Equal(t, "Failed to call Gemini API", detail.ReasonDetails[0].Message)
}

func TestSearch_PanicBecomesInternalError(t *testing.T) {
	svc := NewSearchService(testConfig(), panicGenerator{}, nil, testLogger())

	resp := svc.Search(context.Background(), zipRequest)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusInfo.HTTPCode)
	assert.Empty(t, resp.StoresList)
	assert.Equal(t, models.ReasonInternalError, resp.StatusInfo.ReasonDetails[0].ReasonCode)
	assert.Equal(t, "An unexpected error occurred.", resp.StatusInfo.ReasonDetails[0].ReasonDetails[0].Message)
}

func TestSearch_PlacesNon200LeavesOfferUnchanged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/textsearch":
			if r.URL.Query().Get("query") == "Vons 90210" {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"status":"OK","results":[{"place_id":"` + r.URL.Query().Get("query") + `"}]}`))
		case "/details":
			w.Write([]byte(`{"status":"OK","result":{"formatted_address":"Resolved for ` + r.URL.Query().Get("place_id") + `","website":"https://store.example"}}`))
		}
	}))
	defer server.Close()

	client := places.NewClient("places-key", server.URL+"/textsearch", server.URL+"/details", 5*time.Second, testLogger())
	enricher := NewEnricher(client, EnrichmentConfig{Enabled: true, MaxEnrich: 15, Concurrency: 5}, testLogger())

	gen := &textGenerator{text: `[
		{"store_name":"Ralphs","price":"$1.00"},
		{"store_name":"Vons","price":"$2.00","address":"As generated"},
		{"store_name":"Aldi","price":"$3.00"}
	]`}

	resp := newTestSearchService(testConfig(), gen, enricher).Search(context.Background(), zipRequest)

	require.Equal(t, http.StatusOK, resp.StatusInfo.HTTPCode)
	require.Len(t, resp.StoresList, 3)
	assert.Equal(t, "Resolved for Ralphs 90210", resp.StoresList[0].StoreDetails.StoreAddress)
	assert.Equal(t, "As generated", resp.StoresList[1].StoreDetails.StoreAddress)
	assert.Equal(t, "", resp.StoresList[1].StoreDetails.Website)
	assert.Equal(t, "Resolved for Aldi 90210", resp.StoresList[2].StoreDetails.StoreAddress)
	assert.Equal(t, "https://store.example", resp.StoresList[2].StoreDetails.Website)
}
