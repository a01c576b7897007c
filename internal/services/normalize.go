package services

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Ayash-Bera/budgetbites/backend/internal/gemini"
	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
)

// offerSynonyms lists, per canonical offer field, the raw keys consulted in
// order. The first non-empty value wins.
var offerSynonyms = []struct {
	field string
	keys  []string
}{
	{"product_name", []string{"product_name", "Product"}},
	{"product_image", []string{"product_image", "item_image"}},
	{"store_name", []string{"store_name", "Store"}},
	{"store_address", []string{"address", "store_address"}},
	{"distance_from_zipcode", []string{"distance_from_zipcode"}},
	{"product_price", []string{"price", "product_price"}},
	{"unit_quantity", []string{"unit/quantity", "unit_quantity", "Unit-quantity"}},
	{"website", []string{"website_link", "website"}},
}

// NormalizeOffer maps a raw record onto a StoreOffer. It never fails: missing
// fields become empty strings and product_image becomes nil.
func NormalizeOffer(raw gemini.RawStoreRecord) models.StoreOffer {
	values := make(map[string]string, len(offerSynonyms))
	for _, syn := range offerSynonyms {
		for _, key := range syn.keys {
			if v := coerceString(raw[key]); v != "" {
				values[syn.field] = v
				break
			}
		}
	}

	offer := models.StoreOffer{
		ProductName:  values["product_name"],
		ProductPrice: values["product_price"],
		UnitQuantity: values["unit_quantity"],
		StoreDetails: models.StoreDetails{
			StoreName:           values["store_name"],
			StoreAddress:        values["store_address"],
			DistanceFromZipcode: values["distance_from_zipcode"],
			Website:             values["website"],
		},
	}
	if image, ok := values["product_image"]; ok {
		offer.ProductImage = &image
	}
	return offer
}

// NormalizeOffers normalizes every record, preserving order.
func NormalizeOffers(raws []gemini.RawStoreRecord) []models.StoreOffer {
	offers := make([]models.StoreOffer, 0, len(raws))
	for _, raw := range raws {
		offers = append(offers, NormalizeOffer(raw))
	}
	return offers
}

func coerceString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case map[string]interface{}, []interface{}:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
