package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
)

var (
	productNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s]+$`)
	zipCodePattern     = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	digitsOnlyPattern  = regexp.MustCompile(`^\d+$`)
)

// ValidateRequest checks every field independently and returns all issues.
// An empty result means the request is valid.
func ValidateRequest(req models.SearchRequest) []models.ValidationIssue {
	var issues []models.ValidationIssue

	productName := strings.TrimSpace(req.ProductName)
	switch {
	case productName == "":
		issues = append(issues, models.ValidationIssue{
			Field:   "product_name",
			Message: "Product name is required",
		})
	case !productNamePattern.MatchString(productName):
		issues = append(issues, models.ValidationIssue{
			Field:   "product_name",
			Message: "Product name contains invalid characters; only letters, numbers, and spaces are allowed",
		})
	}

	zipCode := strings.TrimSpace(req.ZipCode)
	switch {
	case zipCode == "":
		issues = append(issues, models.ValidationIssue{
			Field:   "location",
			Message: "Zip code is required",
		})
	case !zipCodePattern.MatchString(zipCode):
		issues = append(issues, models.ValidationIssue{
			Field:   "zip_code",
			Message: "Zip code must be in format 12345 or 12345-6789",
		})
	}

	issues = appendCountIssue(issues, "min_store_results", "Minimum store results", req.MinStoreResults)
	issues = appendCountIssue(issues, "radius_miles", "Radius miles", req.RadiusMiles)

	return issues
}

// appendCountIssue requires value to be digits that fit in an int.
func appendCountIssue(issues []models.ValidationIssue, field, label, value string) []models.ValidationIssue {
	value = strings.TrimSpace(value)
	if !digitsOnlyPattern.MatchString(value) {
		return append(issues, models.ValidationIssue{
			Field:   field,
			Message: label + " must be a valid number",
		})
	}
	if _, err := strconv.Atoi(value); err != nil {
		return append(issues, models.ValidationIssue{
			Field:   field,
			Message: label + " is too large",
		})
	}
	return issues
}
