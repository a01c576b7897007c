package services

import (
	"encoding/json"
	"testing"

	"github.com/Ayash-Bera/budgetbites/backend/internal/gemini"
	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOffer_Synonyms(t *testing.T) {
	offer := NormalizeOffer(gemini.RawStoreRecord{
		"Product":       "Milk",
		"item_image":    "https://img/milk.png",
		"Store":         "Ralphs",
		"store_address": "123 Main St",
		"product_price": json.Number("3.49"),
		"Unit-quantity": "1 gal",
		"website":       "https://ralphs.com",
	})

	assert.Equal(t, "Milk", offer.ProductName)
	require.NotNil(t, offer.ProductImage)
	assert.Equal(t, "https://img/milk.png", *offer.ProductImage)
	assert.Equal(t, "Ralphs", offer.StoreDetails.StoreName)
	assert.Equal(t, "123 Main St", offer.StoreDetails.StoreAddress)
	assert.Equal(t, "3.49", offer.ProductPrice)
	assert.Equal(t, "1 gal", offer.UnitQuantity)
	assert.Equal(t, "https://ralphs.com", offer.StoreDetails.Website)
}

func TestNormalizeOffer_CanonicalKeyWins(t *testing.T) {
	offer := NormalizeOffer(gemini.RawStoreRecord{
		"price":         "$2.00",
		"product_price": "$9.99",
		"website_link":  "",
		"website":       "https://fallback.example",
	})

	assert.Equal(t, "$2.00", offer.ProductPrice)
	assert.Equal(t, "https://fallback.example", offer.StoreDetails.Website)
}

func TestNormalizeOffer_Total(t *testing.T) {
	offer := NormalizeOffer(gemini.RawStoreRecord{
		"distance_from_zipcode": 2.5,
		"unit/quantity":         12.0,
		"store_name":            nil,
		"extra":                 map[string]interface{}{"x": 1},
	})

	assert.Equal(t, "2.5", offer.StoreDetails.DistanceFromZipcode)
	assert.Equal(t, "12", offer.UnitQuantity)
	assert.Equal(t, "", offer.StoreDetails.StoreName)
	assert.Equal(t, "", offer.ProductName)
	assert.Nil(t, offer.ProductImage)

	data, err := json.Marshal(offer)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"store_address":""`)
	assert.Contains(t, string(data), `"product_image":null`)
}

func offersWithPrices(prices ...string) []models.StoreOffer {
	offers := make([]models.StoreOffer, len(prices))
	for i, p := range prices {
		offers[i] = models.StoreOffer{
			ProductPrice: p,
			StoreDetails: models.StoreDetails{StoreName: string(rune('A' + i))},
		}
	}
	return offers
}

func pricesOf(offers []models.StoreOffer) []string {
	prices := make([]string, len(offers))
	for i, o := range offers {
		prices[i] = o.ProductPrice
	}
	return prices
}

func TestRankOffers(t *testing.T) {
	offers := offersWithPrices("$3.50", "$2.00", "abc", "$1,204.10", "", "$0.99")

	ranked := RankOffers(offers, 0)
	assert.Equal(t, []string{"$0.99", "$2.00", "$3.50", "$1,204.10", "abc", ""}, pricesOf(ranked))

	// unparsable prices keep their input order
	assert.Equal(t, "C", ranked[4].StoreDetails.StoreName)
	assert.Equal(t, "E", ranked[5].StoreDetails.StoreName)

	again := RankOffers(ranked, 0)
	assert.Equal(t, ranked, again)
}

func TestRankOffers_Truncates(t *testing.T) {
	ranked := RankOffers(offersWithPrices("$5", "$4", "$3", "$2", "$1"), 3)
	assert.Equal(t, []string{"$1", "$2", "$3"}, pricesOf(ranked))

	ranked = RankOffers(offersWithPrices("$5", "$4"), 10)
	assert.Len(t, ranked, 2)

	assert.Empty(t, RankOffers(nil, 5))
}
