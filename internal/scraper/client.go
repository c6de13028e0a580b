// Package scraper talks to the hosted scraping platform the adapters use for
// platforms without a first-party API. Each platform maps to an actor; a run
// returns the scraped dataset items directly.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	config "github.com/maheshrc27/creatorpulse/configs"
	"github.com/maheshrc27/creatorpulse/internal/transfer"
)

const defaultBaseURL = "https://api.apify.com"

// Runner is what the adapters depend on; tests swap in a fake.
type Runner interface {
	Run(ctx context.Context, actorID string, input interface{}, limit int) ([]map[string]interface{}, error)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   cfg.ScraperAPIToken,
		http: &http.Client{
			Timeout: time.Duration(cfg.UpstreamTimeoutSecs) * time.Second,
		},
	}
}

// NewClientWithBaseURL exists for tests that point the client at a local
// server.
func NewClientWithBaseURL(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{baseURL: baseURL, token: token, http: httpClient}
}

// Run executes the actor synchronously and returns its dataset items. The
// limit caps how many items the platform charges us for on a single run.
func (c *Client) Run(ctx context.Context, actorID string, input interface{}, limit int) ([]map[string]interface{}, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?%s",
		c.baseURL, url.PathEscape(actorID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("scraper run failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		var errResp transfer.ScraperErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err == nil && errResp.Error.Message != "" {
			slog.Info(errResp.Error.Message)
			return nil, fmt.Errorf("scraper run %s: %s", actorID, errResp.Error.Message)
		}
		return nil, fmt.Errorf("scraper run %s: status %d", actorID, resp.StatusCode)
	}

	var items []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("scraper run %s: decode dataset: %w", actorID, err)
	}

	return items, nil
}
