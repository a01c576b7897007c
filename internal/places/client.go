package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ayash-Bera/budgetbites/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTextSearchURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	DefaultDetailsURL    = "https://maps.googleapis.com/maps/api/place/details/json"
	detailsFields        = "formatted_address,website,name,url"
)

var (
	// ErrLookupFailed wraps transport failures talking to the Places API.
	ErrLookupFailed = errors.New("places lookup failed")
	// ErrMissingAPIKey is returned by every call when no key is configured.
	ErrMissingAPIKey = errors.New("google places api key missing")
)

type Client struct {
	apiKey        string
	textSearchURL string
	detailsURL    string
	httpClient    *http.Client
	logger        *logrus.Logger
}

func NewClient(apiKey, textSearchURL, detailsURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if strings.TrimSpace(textSearchURL) == "" {
		textSearchURL = DefaultTextSearchURL
	}
	if strings.TrimSpace(detailsURL) == "" {
		detailsURL = DefaultDetailsURL
	}
	return &Client{
		apiKey:        apiKey,
		textSearchURL: textSearchURL,
		detailsURL:    detailsURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// SearchPlace returns the best match for query, or nil when the API answered
// with a non-200 status or no results.
func (c *Client) SearchPlace(ctx context.Context, query string) (*Candidate, error) {
	params := url.Values{}
	params.Set("query", query)

	var payload textSearchResponse
	ok, err := c.get(ctx, "Places Text Search", c.textSearchURL, params, &payload)
	if err != nil || !ok {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}
	return &payload.Results[0], nil
}

// GetDetails returns address and website for a place, or nil when the API
// answered with a non-200 status or a status other than OK.
func (c *Client) GetDetails(ctx context.Context, placeID string) (*Details, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailsFields)

	var payload detailsResponse
	ok, err := c.get(ctx, "Places Details", c.detailsURL, params, &payload)
	if err != nil || !ok {
		return nil, err
	}
	if payload.Status != "OK" {
		return nil, nil
	}
	return &payload.Result, nil
}

func (c *Client) get(ctx context.Context, name, endpoint string, params url.Values, result interface{}) (bool, error) {
	if !c.Configured() {
		return false, ErrMissingAPIKey
	}
	log := utils.LoggerFrom(ctx, c.logger)

	params.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %v", transportCause(err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error carries the full request URL, key included.
		cause := transportCause(err)
		log.WithError(cause).WithField("endpoint", endpoint).Errorf("%s HTTP error", name)
		return false, fmt.Errorf("%w: %s: %v", ErrLookupFailed, name, cause)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("%w: %s: failed to read response: %v", ErrLookupFailed, name, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.WithFields(logrus.Fields{
			"status_code":   resp.StatusCode,
			"response_body": truncate(string(body), 500),
		}).Warnf("%s non-200", name)
		return false, nil
	}

	if err := json.Unmarshal(body, result); err != nil {
		return false, fmt.Errorf("%w: %s: failed to unmarshal response: %v", ErrLookupFailed, name, err)
	}

	log.WithFields(logrus.Fields{
		"endpoint":      name,
		"response_size": len(body),
	}).Debug("Places API response received")

	return true, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func transportCause(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
