package cris

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/attlih/cris-network-tool/internal/domain"
	"github.com/attlih/cris-network-tool/internal/papersources"
)

const (
	// DefaultBaseURL is the public research API of the University of Eastern Finland CRIS.
	DefaultBaseURL = "https://uef.cris.fi/api/public-research"

	// DefaultLang is the response language requested from the API.
	DefaultLang = "en"

	// DefaultOrder sorts list results by title, ascending.
	DefaultOrder = "data.titleOfPublication.titleOfPublication ASC"

	// DefaultPageSize is the number of publications requested per page.
	DefaultPageSize = 100

	// DefaultRateLimit is the default request ceiling per second.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// sourceName labels errors coming from this API.
	sourceName = "CRIS"

	// maxBodyBytes bounds decoded response bodies.
	maxBodyBytes = 32 << 20
)

// Config holds configuration for the CRIS client.
type Config struct {
	// BaseURL is the API root, without a trailing slash.
	BaseURL string

	// Lang is sent as the lang query parameter.
	Lang string

	// Order is sent as the order query parameter of list requests.
	Order string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// UserAgent overrides the default User-Agent header.
	UserAgent string
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Lang == "" {
		c.Lang = DefaultLang
	}
	if c.Order == "" {
		c.Order = DefaultOrder
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// ListQuery selects one page of the publication list.
type ListQuery struct {
	StartYear string
	EndYear   string
	// UnitID scopes the query to one organizational unit; empty means all units.
	UnitID string
	papersources.PageParams
}

// Client talks to the CRIS public research API.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// New creates a new CRIS client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: cfg.UserAgent,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new CRIS client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// ListPublications fetches one page of publications.
func (c *Client) ListPublications(ctx context.Context, q ListQuery) (*ListResponse, error) {
	listURL, err := c.buildListURL(q)
	if err != nil {
		return nil, fmt.Errorf("building list URL: %w", err)
	}

	var resp ListResponse
	if err := c.getJSON(ctx, listURL, "publication list", "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPublication fetches the detail record of one publication.
// Returns a *domain.NotFoundError when the API answers 404.
func (c *Client) GetPublication(ctx context.Context, id string) (*DetailResponse, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("id", "publication id is required")
	}

	detailURL, err := c.buildDetailURL(id)
	if err != nil {
		return nil, fmt.Errorf("building detail URL: %w", err)
	}

	var resp DetailResponse
	if err := c.getJSON(ctx, detailURL, "publication", id, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, target, entity, id string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && id != "" {
		return domain.NewNotFoundError(entity, id)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, strings.TrimSpace(string(body)), nil)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// buildListURL constructs the list API URL with query parameters.
func (c *Client) buildListURL(q ListQuery) (string, error) {
	u, err := url.Parse(c.config.BaseURL + "/publications")
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	query := url.Values{}
	query.Set("searchType", "publications")
	query.Set("localUnitIds", q.UnitID)
	query.Set("lang", c.config.Lang)
	query.Set("yearOfPublicationStart", q.StartYear)
	query.Set("yearOfPublicationEnd", q.EndYear)
	query.Set("order", c.config.Order)

	page := q.PageParams
	if page.Page == 0 {
		page = papersources.PageParamsFor(1, DefaultPageSize)
	}
	query.Set("page", strconv.Itoa(page.Page))
	query.Set("skip", strconv.Itoa(page.Skip))
	query.Set("limit", strconv.Itoa(page.Limit))

	u.RawQuery = query.Encode()
	return u.String(), nil
}

// buildDetailURL constructs the URL for fetching one publication.
func (c *Client) buildDetailURL(id string) (string, error) {
	u, err := url.Parse(c.config.BaseURL + "/publications/" + url.PathEscape(id))
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	query := url.Values{}
	query.Set("lang", c.config.Lang)
	u.RawQuery = query.Encode()
	return u.String(), nil
}
