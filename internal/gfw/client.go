// Package gfw queries the Global Fishing Watch 4wings report API for vessel
// presence near a position over a trailing window. The lookup is an
// independent enrichment: it never affects the primary report or the
// process exit code, so every failure path folds into the Summary.
package gfw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tphakala/shipwatch-go/internal/geo"
	"github.com/tphakala/shipwatch-go/internal/logging"
)

const (
	// DefaultEndpoint is the production report endpoint.
	DefaultEndpoint = "https://gateway.api.globalfishingwatch.org/v3/4wings/report"

	// DefaultDataset selects global vessel presence.
	DefaultDataset = "public-global-presence:latest"

	// DefaultLookback is the trailing window queried.
	DefaultLookback = 96 * time.Hour

	// presenceMargin is the half-width in degrees of the query polygon.
	presenceMargin = 1.0

	requestTimeout = 60 * time.Second
)

// Summary is the outcome of one presence lookup. Skipped marks the
// no-credential case, which renders as "skipped" rather than an error.
type Summary struct {
	OK      bool
	Count   int
	Err     string
	Skipped bool
}

// Client issues presence lookups. The zero value is not usable; construct
// with NewClient.
type Client struct {
	endpoint   string
	dataset    string
	lookback   time.Duration
	httpClient *http.Client
	now        func() time.Time
}

// NewClient returns a presence client for the given endpoint and dataset.
// Empty values select the production defaults.
func NewClient(endpoint, dataset string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if dataset == "" {
		dataset = DefaultDataset
	}
	return &Client{
		endpoint: endpoint,
		dataset:  dataset,
		lookback: DefaultLookback,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		now: time.Now,
	}
}

// Lookup reports how many distinct vessels were present within 1 degree of
// ref over the trailing window. One request, no retry. An empty token skips
// the lookup without touching the network.
func (c *Client) Lookup(ctx context.Context, ref geo.Point, token string) Summary {
	token = strings.TrimSpace(token)
	if token == "" {
		return Summary{Err: "no credential", Skipped: true}
	}

	end := c.now().UTC()
	start := end.Add(-c.lookback)
	dateRange := fmt.Sprintf("%s,%s",
		start.Format("2006-01-02T15:04:05.000Z"),
		end.Format("2006-01-02T15:04:05.000Z"))

	query := fmt.Sprintf(
		"format=JSON&datasets[0]=%s&date-range=%s&temporal-resolution=ENTIRE&spatial-aggregation=true&group-by=VESSEL_ID",
		c.dataset, url.QueryEscape(dateRange))

	body, err := json.Marshal(map[string]any{
		"geojson": map[string]any{
			"type":        "Polygon",
			"coordinates": [][][]float64{geo.PolygonRing(ref, presenceMargin)},
		},
	})
	if err != nil {
		return Summary{Err: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?"+query, bytes.NewReader(body))
	if err != nil {
		return Summary{Err: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.ForService("gfw").Warn("presence lookup failed", "error", err)
		return Summary{Err: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Summary{Err: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Summary{Err: errorMessage(respBody, resp.StatusCode, resp.Status)}
	}

	var payload any
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return Summary{Err: err.Error()}
	}

	return Summary{OK: true, Count: countEntries(payload)}
}

// errorMessage extracts a human-readable message from an error response
// body, falling back to the HTTP status text.
func errorMessage(body []byte, statusCode int, status string) string {
	var errPayload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &errPayload); err == nil {
		if errPayload.Detail != "" {
			return errPayload.Detail
		}
		if errPayload.Error != "" {
			return errPayload.Error
		}
	}
	if status == "" {
		status = fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
	}
	return status
}

// countEntries derives a vessel count from the report response. The
// upstream schema is not firmly specified, so three shapes are accepted: a
// bare array, an object with an entries or data array, or an object with a
// numeric total.
func countEntries(payload any) int {
	switch v := payload.(type) {
	case []any:
		return len(v)
	case map[string]any:
		entries, ok := v["entries"]
		if !ok {
			entries, ok = v["data"]
		}
		if ok {
			if list, isList := entries.([]any); isList {
				return len(list)
			}
		}
		if total, isNum := v["total"].(float64); isNum {
			return int(total)
		}
	}
	return 0
}
