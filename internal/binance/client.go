// Package binance fetches staking product status from Binance Earn's public
// "union" endpoints and turns each response into a models.Snapshot.
//
// The client performs exactly one request per call. Retry and backoff are left
// to the next polling cycle.
package binance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rewired-gh/stakewatch/internal/models"
)

const (
	// DefaultLockedEndpoint lists locked staking products.
	DefaultLockedEndpoint = "https://www.binance.com/gateway-api/v1/friendly/pos/union?pageSize=100&pageIndex=1&status=ALL"
	// DefaultDefiEndpoint lists DeFi staking products.
	DefaultDefiEndpoint = "https://www.binance.com/bapi/earn/v1/friendly/defi-pos/union?pageSize=15&pageIndex=1&status=ALL"

	defaultUserAgent = "stakewatch/1.0"
	maxBodyBytes     = 8 << 20
)

// FetchError reports that the status endpoint could not be reached or
// did not answer with 200 OK.
type FetchError struct {
	Endpoint   string
	StatusCode int // zero when the request never completed
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a payload that does not have the expected shape.
type ParseError struct {
	Endpoint string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse response from %s: %v", e.Endpoint, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Client provides access to the Binance staking status endpoints
type Client struct {
	httpClient *http.Client
	userAgent  string
	now        func() time.Time
}

// NewClient creates a new client. The timeout bounds each request.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		now:       time.Now,
	}
}

// FetchSnapshot requests endpoint and parses the body into a snapshot for
// category. Errors are *FetchError or *ParseError.
func (c *Client) FetchSnapshot(ctx context.Context, category models.Category, endpoint string) (*models.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: fmt.Errorf("read body: %w", err)}
	}

	snap, err := ParseSnapshot(category, c.now(), body)
	if err != nil {
		return nil, &ParseError{Endpoint: endpoint, Err: err}
	}
	return snap, nil
}

// unionResponse is the body shape shared by the locked and DeFi endpoints.
type unionResponse struct {
	Data *[]assetRecord `json:"data"`
}

type assetRecord struct {
	Asset    string          `json:"asset"`
	Projects []productRecord `json:"projects"`
	Products []productRecord `json:"products"`
}

type productRecord struct {
	Asset    string   `json:"asset"`
	Duration duration `json:"duration"`
	SellOut  bool     `json:"sellOut"`
}

// duration accepts the term as either a JSON string or a number.
type duration string

func (d *duration) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = duration(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration must be a string or number: %w", err)
	}
	*d = duration(n.String())
	return nil
}

// ParseSnapshot builds a snapshot from a raw endpoint body. Within each asset
// record, projects are applied before products and a repeated key keeps the
// last value seen.
func ParseSnapshot(category models.Category, fetchedAt time.Time, body []byte) (*models.Snapshot, error) {
	var resp unionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if resp.Data == nil {
		return nil, errors.New("missing data field")
	}

	var entries []models.StatusEntry
	for i, a := range *resp.Data {
		for _, group := range [][]productRecord{a.Projects, a.Products} {
			for _, p := range group {
				asset := p.Asset
				if asset == "" {
					asset = a.Asset
				}
				if asset == "" {
					return nil, fmt.Errorf("data[%d]: record without asset symbol", i)
				}
				entries = append(entries, models.StatusEntry{
					Key:       models.NewProductKey(asset, string(p.Duration)),
					Available: !p.SellOut,
				})
			}
		}
	}

	return models.BuildSnapshot(category, fetchedAt, entries), nil
}

// Source binds a client to one category endpoint.
type Source struct {
	Client   *Client
	Category models.Category
	Endpoint string
}

// Fetch retrieves a fresh snapshot for the bound category.
func (s *Source) Fetch(ctx context.Context) (*models.Snapshot, error) {
	return s.Client.FetchSnapshot(ctx, s.Category, s.Endpoint)
}
