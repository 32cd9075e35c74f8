// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwatch/internal/metrics"
)

// requestConfig holds configuration for building HTTP requests.
type requestConfig struct {
	method   string
	path     string
	query    url.Values
	expectOK bool
}

// doRequest executes a Plex API request and decodes the JSON response
// into result when a result pointer is provided.
func (c *Client) doRequest(ctx context.Context, cfg requestConfig, result interface{}) error {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, cfg.path)

	req, err := http.NewRequestWithContext(ctx, cfg.method, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")

	if len(cfg.query) > 0 {
		req.URL.RawQuery = cfg.query.Encode()
	}

	resp, err := c.doRequestWithRateLimit(req)
	if err != nil {
		metrics.PlexRequestsTotal.WithLabelValues(cfg.path, "error").Inc()
		return err
	}
	defer resp.Body.Close()

	metrics.PlexRequestsTotal.WithLabelValues(cfg.path, strconv.Itoa(resp.StatusCode)).Inc()

	if cfg.expectOK && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// doJSONRequest is a convenience wrapper for GET requests.
func (c *Client) doJSONRequest(ctx context.Context, path string, result interface{}) error {
	return c.doRequest(ctx, requestConfig{
		method:   http.MethodGet,
		path:     path,
		expectOK: true,
	}, result)
}

// doJSONRequestWithQuery is a convenience wrapper for GET requests
// with query parameters.
func (c *Client) doJSONRequestWithQuery(ctx context.Context, path string, query url.Values, result interface{}) error {
	return c.doRequest(ctx, requestConfig{
		method:   http.MethodGet,
		path:     path,
		query:    query,
		expectOK: true,
	}, result)
}
