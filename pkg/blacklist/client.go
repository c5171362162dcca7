package blacklist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultRequestTimeout bounds one blacklist round trip to the auth
// service.
const DefaultRequestTimeout = 10 * time.Second

// Client is a Store that consults the auth service's blacklist endpoints
// over HTTP. Relying services that don't share a Redis instance with the
// issuer use this.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a remote blacklist client. baseURL is the auth
// service's root, e.g. "https://auth.internal:8080".
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRequestTimeout}
	}
	return &Client{base: baseURL, http: httpClient}
}

type blacklistRequest struct {
	JTI        string `json:"jti"`
	TTLSeconds int64  `json:"ttl_seconds,omitempty"`
}

type blacklistResponse struct {
	Blacklisted bool `json:"blacklisted"`
}

// Blacklist implements Store via POST /v1/blacklist.
func (c *Client) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	body, err := json.Marshal(blacklistRequest{JTI: jti, TTLSeconds: int64(ttl.Seconds())})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/blacklist", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// IsBlacklisted implements Store via GET /v1/blacklist/{jti}: 200 means
// revoked, 404 means not. Anything else is a loud failure.
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/v1/blacklist/"+url.PathEscape(jti), nil)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out blacklistResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return false, fmt.Errorf("%w: decode: %w", ErrUnavailable, err)
		}
		return out.Blacklisted, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}
}
