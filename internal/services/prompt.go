package services

import (
	"strconv"
	"strings"

	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
)

// PromptTemplates holds the two query templates. Placeholders are written as
// {item_name}, {zipcode}, {city_name}, {state_name}, {min_results} and
// {radius_miles}; unknown placeholders are left untouched.
type PromptTemplates struct {
	Zip       string
	CityState string
}

// BuildPrompt fills the zip template when the request has a zip code and the
// city/state template otherwise.
func BuildPrompt(templates PromptTemplates, req models.SearchRequest) string {
	template := templates.CityState
	if req.ZipCode != "" {
		template = templates.Zip
	}

	replacer := strings.NewReplacer(
		"{item_name}", req.ProductName,
		"{zipcode}", req.ZipCode,
		"{city_name}", req.CityName,
		"{state_name}", req.StateName,
		"{min_results}", strconv.Itoa(req.MinResults()),
		"{radius_miles}", req.RadiusMiles,
	)
	return replacer.Replace(template)
}
