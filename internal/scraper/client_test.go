package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maheshrc27/creatorpulse/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRun(t *testing.T) {
	var gotPath, gotAuth, gotLimit string
	var gotInput transfer.ScrapeInput

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotLimit = r.URL.Query().Get("limit")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotInput))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"username":"creator1","followersCount":1200}]`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "test-token", srv.Client())
	input := transfer.ScrapeInput{Usernames: []string{"creator1"}, ResultsLimit: 30}

	items, err := c.Run(context.Background(), "apify~instagram-scraper", input, 30)
	require.NoError(t, err)

	assert.Equal(t, "/v2/acts/apify~instagram-scraper/run-sync-get-dataset-items", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "30", gotLimit)
	assert.Equal(t, []string{"creator1"}, gotInput.Usernames)

	require.Len(t, items, 1)
	assert.Equal(t, "creator1", items[0]["username"])
	assert.Equal(t, float64(1200), items[0]["followersCount"])
}

func TestClientRun_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"insufficient-credit","message":"Monthly usage hard limit exceeded"}}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "test-token", srv.Client())
	_, err := c.Run(context.Background(), "apify~instagram-scraper", transfer.ScrapeInput{}, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Monthly usage hard limit exceeded")
}

func TestClientRun_NonJSONFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "test-token", srv.Client())
	_, err := c.Run(context.Background(), "actor", transfer.ScrapeInput{}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClientRun_EmptyDataset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "test-token", srv.Client())
	items, err := c.Run(context.Background(), "actor", transfer.ScrapeInput{}, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}
