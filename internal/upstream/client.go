// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

// Package upstream provides the HTTP client for the external story server,
// which owns the story catalogue and the durable user-event log. All calls
// go through a circuit breaker; callers treat any error from this package
// as a collaborator failure.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/storyloom/recommender/internal/config"
	"github.com/storyloom/recommender/internal/metrics"
)

// ErrUnavailable marks errors caused by the story server being unreachable,
// returning a non-2xx status, or the circuit being open. Handlers map it to
// a collaborator-unavailable response.
var ErrUnavailable = errors.New("story server unavailable")

// maxErrorBodySize bounds how much of an error response body is read for
// diagnostics.
const maxErrorBodySize = 64 * 1024

// StoryServer is the operation surface of the story server. Implemented by
// Client for production and by mocks in tests.
type StoryServer interface {
	FetchCatalogue(ctx context.Context) (*CataloguePayload, error)
	LoadUserState(ctx context.Context) (*StateBatchPayload, error)
	SaveUserState(ctx context.Context, batch *StateBatchPayload) error
}

// Client is the plain HTTP client for the story server. Safe for concurrent
// use; every request carries the caller's context.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a story server client from configuration.
func NewClient(cfg *config.UpstreamConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchCatalogue retrieves the full story catalogue.
func (c *Client) FetchCatalogue(ctx context.Context) (*CataloguePayload, error) {
	start := time.Now()
	payload := &CataloguePayload{}
	err := c.getJSON(ctx, "/v1/catalogue", payload)
	metrics.RecordUpstreamCall("fetch_catalogue", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// LoadUserState retrieves the persisted event log for all users.
func (c *Client) LoadUserState(ctx context.Context) (*StateBatchPayload, error) {
	start := time.Now()
	payload := &StateBatchPayload{}
	err := c.getJSON(ctx, "/v1/user-state", payload)
	metrics.RecordUpstreamCall("load_state", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// SaveUserState replaces the persisted event log with the given batch.
func (c *Client) SaveUserState(ctx context.Context, batch *StateBatchPayload) error {
	start := time.Now()
	err := c.putJSON(ctx, "/v1/user-state", batch)
	metrics.RecordUpstreamCall("save_state", time.Since(start), err)
	return err
}

func (c *Client) getJSON(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%w: %s returned status %d: %s", ErrUnavailable, path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) putJSON(ctx context.Context, path string, body interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody := readBodyForError(resp.Body)
		return fmt.Errorf("%w: %s returned status %d: %s", ErrUnavailable, path, resp.StatusCode, string(respBody))
	}
	return nil
}

// readBodyForError reads at most maxErrorBodySize of a response body for
// error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}
