// Package opendata implements transit.Provider for the Swiss public transport
// API at transport.opendata.ch.
package opendata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/transitdesk/transitdesk/internal/provider/resilience"
	"github.com/transitdesk/transitdesk/internal/transit"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "opendata"

	// DefaultBaseURL is the public API base URL.
	DefaultBaseURL = "https://transport.opendata.ch/v1"
)

// ClientConfig holds configuration for the opendata client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// UserAgent is sent with every request (optional).
	UserAgent string

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client talks to the transport.opendata.ch API.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	userAgent  string
	logger     zerolog.Logger
}

// NewClient creates a new opendata client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SearchLocation returns the names of stations matching query.
func (c *Client) SearchLocation(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("query", query)

	var resp locationsResponse
	if err := c.get(ctx, "search location", "/locations", params, &resp); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Stations))
	for _, s := range resp.Stations {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return names, nil
}

// SearchConnection returns the connections matching req.
func (c *Client) SearchConnection(ctx context.Context, req transit.SearchRequest) ([]transit.Connection, error) {
	var resp connectionsResponse
	if err := c.get(ctx, "search connection", "/connections", connectionParams(req), &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("connections", len(resp.Connections)).
		Msg("connections decoded")

	if resp.Connections == nil {
		return []transit.Connection{}, nil
	}
	return resp.Connections, nil
}

// connectionParams encodes req as query parameters. Unset date/time are
// omitted so the API defaults to today/now.
func connectionParams(req transit.SearchRequest) url.Values {
	params := url.Values{}
	params.Set("from", req.From)
	params.Set("to", req.To)
	for _, via := range req.Vias {
		params.Add("via[]", via)
	}
	if req.Date != nil {
		params.Set("date", *req.Date)
	}
	if req.Time != nil {
		params.Set("time", *req.Time)
	}
	if req.IsArrivalTime {
		params.Set("isArrivalTime", "1")
	}
	return params
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return &transit.TransportError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transit.TransportError{Op: op, Err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &transit.TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        transit.ErrProviderUnavailable,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &transit.TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// API response structures.

type locationsResponse struct {
	Stations []transit.Location `json:"stations"`
}

type connectionsResponse struct {
	Connections []transit.Connection `json:"connections"`
}
