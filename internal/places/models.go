package places

// Candidate is the best text-search match for a query.
type Candidate struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
}

// Details holds the fields used to back-fill an offer.
type Details struct {
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Website          string `json:"website"`
	URL              string `json:"url"`
}

type textSearchResponse struct {
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	Results      []Candidate `json:"results"`
}

type detailsResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Result       Details `json:"result"`
}
