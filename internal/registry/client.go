package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mselser95/polymarket-lag/pkg/types"
	"go.uber.org/zap"
)

const (
	// MaxBatchSize is the maximum number of markets the Gamma API returns
	// per request.
	MaxBatchSize = 100
)

// Client is an HTTP client for the Polymarket Gamma API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Gamma API client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// FetchActiveMarkets fetches active markets sorted by descending 24h volume,
// paginating until limit markets are collected. limit == 0 fetches all
// available markets.
func (c *Client) FetchActiveMarkets(ctx context.Context, limit int) ([]types.Market, error) {
	var (
		allMarkets   []types.Market
		currentPage  = 0
		totalFetched = 0
		fetchAll     = limit == 0
	)

	for {
		pageBatchSize := MaxBatchSize
		if !fetchAll {
			remaining := limit - totalFetched
			if remaining <= 0 {
				break
			}
			if remaining < pageBatchSize {
				pageBatchSize = remaining
			}
		}

		page, err := c.fetchPage(ctx, pageBatchSize, currentPage*MaxBatchSize)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", currentPage, err)
		}

		allMarkets = append(allMarkets, page...)
		totalFetched += len(page)

		if len(page) < pageBatchSize {
			break
		}
		if !fetchAll && totalFetched >= limit {
			break
		}

		currentPage++
	}

	c.logger.Debug("fetched-markets", zap.Int("count", len(allMarkets)))

	return allMarkets, nil
}

// fetchPage fetches a single page of active markets.
func (c *Client) fetchPage(ctx context.Context, limit int, offset int) ([]types.Market, error) {
	endpoint := fmt.Sprintf("%s/markets", c.baseURL)

	params := url.Values{}
	params.Add("closed", "false")
	params.Add("active", "true")
	params.Add("limit", strconv.Itoa(limit))
	params.Add("offset", strconv.Itoa(offset))
	params.Add("order", "volume24hr")
	params.Add("ascending", "false")

	requestURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "polymarket-lag/1.0")

	c.logger.Debug("fetching-markets",
		zap.String("url", requestURL),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	// Gamma API returns a direct array, not wrapped in an object
	var markets []types.Market
	err = json.Unmarshal(body, &markets)
	if err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return markets, nil
}
