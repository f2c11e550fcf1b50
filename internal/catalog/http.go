package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lookuperrors "github.com/lepinkainen/lcsc-lookup/internal/errors"
)

func (c *Client) fetch(ctx context.Context, identifier string) (Document, error) {
	endpoint, err := c.lookupURL(identifier)
	if err != nil {
		return nil, lookuperrors.NewLookupError(identifier, lookuperrors.StageRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, lookuperrors.NewLookupError(identifier, lookuperrors.StageRequest, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, lookuperrors.NewLookupError(identifier, lookuperrors.StageRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, lookuperrors.NewLookupError(identifier, lookuperrors.StageStatus,
			lookuperrors.NewRateLimitErrorWithRetry("catalog rate limit reached", retryAfter))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, lookuperrors.NewLookupError(identifier, lookuperrors.StageStatus,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	doc, err := DecodeDocument(resp.Body)
	if err != nil {
		return nil, lookuperrors.NewLookupError(identifier, lookuperrors.StageDecode, err)
	}
	return doc, nil
}

func (c *Client) lookupURL(identifier string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid catalog endpoint: %w", err)
	}
	query := u.Query()
	query.Set(c.queryParam, identifier)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// parseRetryAfter understands the delay-seconds form only.
func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
