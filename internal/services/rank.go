package services

import (
	"sort"

	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
)

// RankOffers returns the offers sorted ascending by parsed price. Offers with
// unparsable prices keep their relative order after all priced ones. When
// limit is positive the result is truncated to limit entries.
func RankOffers(offers []models.StoreOffer, limit int) []models.StoreOffer {
	type ranked struct {
		offer models.StoreOffer
		price float64
	}

	keyed := make([]ranked, len(offers))
	for i, offer := range offers {
		keyed[i] = ranked{offer: offer, price: offer.PriceValue()}
	}

	sort.SliceStable(keyed, func(i, j int) bool {
		return keyed[i].price < keyed[j].price
	})

	if limit > 0 && len(keyed) > limit {
		keyed = keyed[:limit]
	}

	result := make([]models.StoreOffer, len(keyed))
	for i, k := range keyed {
		result[i] = k.offer
	}
	return result
}
