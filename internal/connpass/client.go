// Package connpass is a thin client for the connpass v2 events API.
// Each method performs exactly one GET request; paging, retries and request
// spacing are the caller's business.
package connpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"eventmeet/internal/model"
)

const (
	// DefaultBaseURL is the public v2 API root.
	DefaultBaseURL = "https://connpass.com/api/v2/"

	// MaxCount is the largest page size the API accepts.
	MaxCount = 100

	apiKeyHeader = "X-API-Key"
	userAgent    = "EventMeet/1.0"

	// maxBodySize bounds how much of a response body is read.
	maxBodySize = 8 << 20
)

// Client calls the events API. It is stateless apart from its configuration and
// safe for concurrent use.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates a Client. An empty baseURL selects DefaultBaseURL.
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// SearchEvents searches events by id, keyword, participant nickname or date.
func (c *Client) SearchEvents(ctx context.Context, q EventQuery) (*EventsResponse, error) {
	params, err := pageParams(q.Start, q.Count)
	if err != nil {
		return nil, err
	}
	if q.Order < OrderDefault || q.Order > OrderNewest {
		return nil, model.NewValidationError("order", "must be between 1 and 3")
	}

	if len(q.EventIDs) > 0 {
		ids := make([]string, len(q.EventIDs))
		for i, id := range q.EventIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		params.Set("event_id", strings.Join(ids, ","))
	}
	setJoined(params, "keyword", q.Keywords)
	setJoined(params, "nickname", q.Nicknames)
	setJoined(params, "ym", q.YM)
	setJoined(params, "ymd", q.YMD)
	if q.Order != OrderDefault {
		params.Set("order", strconv.Itoa(int(q.Order)))
	}

	var resp EventsResponse
	if err := c.get(ctx, "SearchEvents", "events/", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchUsers searches users by nickname. The API matches partial nicknames.
func (c *Client) SearchUsers(ctx context.Context, q UserQuery) (*UsersResponse, error) {
	params, err := pageParams(q.Start, q.Count)
	if err != nil {
		return nil, err
	}
	setJoined(params, "nickname", q.Nicknames)

	var resp UsersResponse
	if err := c.get(ctx, "SearchUsers", "users/", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserEvents returns the events a user participated in, newest first.
func (c *Client) UserEvents(ctx context.Context, nickname string, start, count int) (*EventsResponse, error) {
	if strings.TrimSpace(nickname) == "" {
		return nil, model.NewValidationError("nickname", "must not be blank")
	}
	return c.SearchEvents(ctx, EventQuery{
		Nicknames: []string{nickname},
		Start:     start,
		Count:     count,
		Order:     OrderStartDate,
	})
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return model.NewValidationError("api_key", "is not configured")
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &model.RemoteError{Op: op, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("events api request failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return &model.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &model.RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("events api returned error status",
			slog.String("op", op),
			slog.Int("http_status", resp.StatusCode),
		)
		return &model.RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", snippet(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("events api response could not be decoded",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return &model.RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding body: %w", err)}
	}

	return nil
}

// pageParams validates and encodes start/count. Zero values are left to the API default.
func pageParams(start, count int) (url.Values, error) {
	params := url.Values{}
	if start < 0 {
		return nil, model.NewValidationError("start", "must be 1 or greater")
	}
	if count < 0 || count > MaxCount {
		return nil, model.NewValidationError("count", fmt.Sprintf("must be between 1 and %d", MaxCount))
	}
	if start > 0 {
		params.Set("start", strconv.Itoa(start))
	}
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}
	return params, nil
}

func setJoined(params url.Values, key string, values []string) {
	var kept []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) > 0 {
		params.Set(key, strings.Join(kept, ","))
	}
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
