// Package markets fetches per-token trading constraints (tick size, minimum
// order size) from the CLOB API. The live venue uses these to round limit
// prices and reject orders the exchange would bounce anyway.
package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://clob.polymarket.com"

	// Fallbacks when the API does not return a value.
	defaultTickSize     = 0.01
	defaultMinOrderSize = 5.0
)

// MetadataClient fetches token metadata from the Polymarket CLOB API.
type MetadataClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMetadataClient creates a metadata client. An empty baseURL selects the
// production CLOB endpoint.
func NewMetadataClient(baseURL string) *MetadataClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &MetadataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchTickSize fetches the minimum tick size for a token.
func (c *MetadataClient) FetchTickSize(ctx context.Context, tokenID string) (float64, error) {
	start := time.Now()
	defer func() { MetadataFetchDuration.Observe(time.Since(start).Seconds()) }()

	var data struct {
		MinimumTickSize float64 `json:"minimum_tick_size"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/tick-size?token_id=%s", c.baseURL, tokenID), &data); err != nil {
		MetadataFetchErrorsTotal.Inc()
		return 0, err
	}

	return data.MinimumTickSize, nil
}

// FetchMinOrderSize fetches the minimum order size for a token from the book
// endpoint. Falls back to the exchange-wide default when the API does not
// expose it.
func (c *MetadataClient) FetchMinOrderSize(ctx context.Context, tokenID string) (float64, error) {
	var data struct {
		MinSize float64 `json:"min_size"`
		Market  struct {
			MinSize float64 `json:"minimum_order_size"`
		} `json:"market"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/book?token_id=%s", c.baseURL, tokenID), &data); err != nil {
		return defaultMinOrderSize, nil
	}

	if data.MinSize > 0 {
		return data.MinSize, nil
	}
	if data.Market.MinSize > 0 {
		return data.Market.MinSize, nil
	}
	return defaultMinOrderSize, nil
}

// FetchTokenMetadata fetches tick size and minimum order size, substituting
// defaults for anything that fails.
func (c *MetadataClient) FetchTokenMetadata(ctx context.Context, tokenID string) (tickSize, minOrderSize float64, err error) {
	tickSize, err = c.FetchTickSize(ctx, tokenID)
	if err != nil || tickSize <= 0 {
		tickSize = defaultTickSize
	}

	minOrderSize, err = c.FetchMinOrderSize(ctx, tokenID)
	if err != nil || minOrderSize <= 0 {
		minOrderSize = defaultMinOrderSize
	}

	return tickSize, minOrderSize, nil
}

func (c *MetadataClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
