package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SearchRequest is the normalized inbound search. All fields stay string-typed;
// numeric input is converted when the request is parsed.
type SearchRequest struct {
	ProductName     string `json:"product_name"`
	CityName        string `json:"city_name,omitempty"`
	StateName       string `json:"state_name,omitempty"`
	ZipCode         string `json:"zip_code,omitempty"`
	MinStoreResults string `json:"min_store_results"`
	RadiusMiles     string `json:"radius_miles"`
}

// requestSynonyms maps every accepted inbound key to its canonical field.
// Canonical keys are listed first so they win over synonyms.
var requestSynonyms = []struct {
	key       string
	canonical string
}{
	{"product_name", "product_name"},
	{"city_name", "city_name"},
	{"state_name", "state_name"},
	{"zip_code", "zip_code"},
	{"min_store_results", "min_store_results"},
	{"radius_miles", "radius_miles"},
	{"productName", "product_name"},
	{"cityName", "city_name"},
	{"stateName", "state_name"},
	{"zipCode", "zip_code"},
	{"city", "city_name"},
	{"state", "state_name"},
	{"zipcode", "zip_code"},
	{"zip", "zip_code"},
	{"postalCode", "zip_code"},
	{"postal_code", "zip_code"},
	{"minStoreResults", "min_store_results"},
	{"radiusMiles", "radius_miles"},
}

// ParseSearchRequest builds a SearchRequest from a decoded JSON object,
// resolving key synonyms and coercing numbers to strings. Unknown keys are ignored.
func ParseSearchRequest(data map[string]interface{}) SearchRequest {
	resolved := make(map[string]string, 6)
	for _, syn := range requestSynonyms {
		if _, done := resolved[syn.canonical]; done {
			continue
		}
		raw, ok := data[syn.key]
		if !ok || raw == nil {
			continue
		}
		resolved[syn.canonical] = requestValue(raw)
	}

	return SearchRequest{
		ProductName:     resolved["product_name"],
		CityName:        resolved["city_name"],
		StateName:       resolved["state_name"],
		ZipCode:         resolved["zip_code"],
		MinStoreResults: resolved["min_store_results"],
		RadiusMiles:     resolved["radius_miles"],
	}
}

func requestValue(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return strconv.FormatInt(n, 10)
		}
		if f, err := v.Float64(); err == nil && wholeInt64(f) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strings.TrimSpace(v.String())
	case float64:
		return numberString(v)
	case float32:
		return numberString(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// numberString renders whole numbers without a fraction. Values outside the
// int64 range, or with a fraction, keep their decimal form so validation
// rejects them rather than a conversion silently wrapping.
func numberString(f float64) string {
	if wholeInt64(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func wholeInt64(f float64) bool {
	return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64
}

// Location renders the request location for logs and places queries.
func (r SearchRequest) Location() string {
	if r.ZipCode != "" {
		return r.ZipCode
	}
	if r.CityName != "" && r.StateName != "" {
		return fmt.Sprintf("%s, %s", r.CityName, r.StateName)
	}
	return "unknown"
}

// MinResults returns the parsed minimum result count, or 0 when unparsable.
func (r SearchRequest) MinResults() int {
	n, err := strconv.Atoi(strings.TrimSpace(r.MinStoreResults))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// StoreDetails describes where an offer can be bought.
type StoreDetails struct {
	StoreName           string `json:"store_name"`
	StoreAddress        string `json:"store_address"`
	DistanceFromZipcode string `json:"distance_from_zipcode"`
	Website             string `json:"website"`
}

// StoreOffer is one product-at-store record returned to the caller.
type StoreOffer struct {
	ProductName  string       `json:"product_name"`
	ProductImage *string      `json:"product_image"`
	ProductPrice string       `json:"product_price"`
	UnitQuantity string       `json:"unit_quantity"`
	StoreDetails StoreDetails `json:"store_details"`
}

// PriceValue parses the offer price, ignoring currency symbols and thousands
// separators. Unparsable prices return +Inf so they sort last.
func (o StoreOffer) PriceValue() float64 {
	cleaned := strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(o.ProductPrice))
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return math.Inf(1)
	}
	return value
}
