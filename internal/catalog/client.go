// Package catalog looks up LCSC product codes against the remote catalog API.
package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	lookuperrors "github.com/lepinkainen/lcsc-lookup/internal/errors"
)

const (
	DefaultEndpoint        = "https://wmsc.lcsc.com/ftps/wm/product/detail"
	DefaultQueryParam      = "productCode"
	DefaultProductPageBase = "https://www.lcsc.com/product-detail/"
	DefaultSiteRoot        = "https://www.lcsc.com"
	DefaultTimeout         = 30 * time.Second
	// The catalog degrades requests that do not look like they come from a browser.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client performs single-attempt product lookups.
type Client struct {
	endpoint    string
	queryParam  string
	userAgent   string
	timeout     time.Duration
	links       PageLinks
	httpClient  HTTPDoer
	rateLimited atomic.Bool
}

// NewClient creates a catalog client with the package defaults.
func NewClient(opts ...Option) *Client {
	client := &Client{
		endpoint:   DefaultEndpoint,
		queryParam: DefaultQueryParam,
		userAgent:  DefaultUserAgent,
		timeout:    DefaultTimeout,
		links: PageLinks{
			ProductPageBase: DefaultProductPageBase,
			SiteRoot:        DefaultSiteRoot,
		},
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithEndpoint sets the product lookup endpoint.
func WithEndpoint(endpoint string) Option {
	return func(client *Client) {
		if endpoint != "" {
			client.endpoint = endpoint
		}
	}
}

// WithQueryParam sets the query parameter that carries the identifier.
func WithQueryParam(param string) Option {
	return func(client *Client) {
		if param != "" {
			client.queryParam = param
		}
	}
}

// WithUserAgent sets the client identification header.
func WithUserAgent(userAgent string) Option {
	return func(client *Client) {
		if strings.TrimSpace(userAgent) != "" {
			client.userAgent = userAgent
		}
	}
}

// WithTimeout bounds each lookup. Zero leaves requests unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		if timeout >= 0 {
			client.timeout = timeout
		}
	}
}

// WithPageLinks sets how product page URLs are built.
func WithPageLinks(links PageLinks) Option {
	return func(client *Client) {
		if links.ProductPageBase != "" {
			client.links.ProductPageBase = links.ProductPageBase
		}
		if links.SiteRoot != "" {
			client.links.SiteRoot = links.SiteRoot
		}
	}
}

// Lookup resolves one identifier. It never returns an error: every failure
// is folded into a NotFound outcome.
func (c *Client) Lookup(ctx context.Context, identifier string) Outcome {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	doc, err := c.fetch(ctx, identifier)
	if err != nil {
		if lookuperrors.IsRateLimitError(err) {
			c.markRateLimited(err)
		}
		slog.Debug("Catalog lookup failed", "identifier", identifier, "error", err)
		return NewNotFound(identifier, err)
	}

	if ok, present := doc.Bool("success"); present && !ok {
		slog.Debug("Catalog reported no success", "identifier", identifier)
		return NewNotFound(identifier, lookuperrors.NewLookupError(identifier, lookuperrors.StageResult, lookuperrors.ErrNoResult))
	}

	result, ok := doc.Object("result")
	if !ok || len(result) == 0 {
		slog.Debug("No product in catalog response", "identifier", identifier)
		return NewNotFound(identifier, lookuperrors.NewLookupError(identifier, lookuperrors.StageResult, lookuperrors.ErrNoResult))
	}

	product := ExtractProduct(identifier, result, c.links)
	slog.Debug("Catalog lookup succeeded", "identifier", identifier, "mpn", product.ManufacturerPartNumber)
	return NewFound(identifier, product)
}

// RateLimited reports whether the catalog answered 429 at least once.
func (c *Client) RateLimited() bool {
	return c.rateLimited.Load()
}

func (c *Client) markRateLimited(err error) {
	if c.rateLimited.CompareAndSwap(false, true) {
		slog.Warn("Catalog is rate limiting requests; affected codes will be dropped. Consider a larger --stagger", "error", err)
	}
}
