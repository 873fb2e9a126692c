package shareclient

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

	"github.com/nerith/photofold/cache"
)

const defaultInfoTTL = 60 * time.Second

// Client talks to the public share API of one server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Provider
	infoTTL    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCache enables short-lived caching of info responses.
func WithCache(provider cache.Provider) Option {
	return func(c *Client) {
		c.cache = provider
	}
}

// WithInfoTTL overrides the info cache TTL.
func WithInfoTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.infoTTL = ttl
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		infoTTL:    defaultInfoTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetInfo fetches the public share metadata. Results may be served from the
// cache; link validity errors are never cached.
func (c *Client) GetInfo(ctx context.Context, identifier string) (*ShareInfo, error) {
	cacheKey := cache.ShareInfo.Build(identifier)
	if c.cache != nil {
		var cached ShareInfo
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(identifier, "info"), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var info ShareInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode info response: %w", err)
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, cacheKey, &info, c.infoTTL)
	}

	return &info, nil
}

type accessRequest struct {
	Password *string `json:"password"`
}

// Access requests the shared album. An empty password is sent as null; a
// protected link then answers 200 with requires_password set.
func (c *Client) Access(ctx context.Context, identifier, password, sortBy string) (*SharedAlbum, error) {
	body := accessRequest{}
	if password != "" {
		body.Password = &password
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	endpoint := c.endpoint(identifier, "access")
	if sortBy != "" {
		endpoint += "?sort_by=" + url.QueryEscape(sortBy)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var album SharedAlbum
	if err := json.NewDecoder(resp.Body).Decode(&album); err != nil {
		return nil, fmt.Errorf("failed to decode access response: %w", err)
	}
	return &album, nil
}

// DownloadURL returns the URL of one original file.
func (c *Client) DownloadURL(identifier string, photoID uint, password string) string {
	return c.withPassword(c.endpoint(identifier, fmt.Sprintf("download/%d", photoID)), password)
}

// DownloadAllURL returns the URL of the full-album ZIP.
func (c *Client) DownloadAllURL(identifier, password string) string {
	return c.withPassword(c.endpoint(identifier, "download-all"), password)
}

// AssetURL returns the URL of a display variant for grids and the lightbox.
func (c *Client) AssetURL(identifier string, photoID uint, variant, password string) string {
	endpoint := c.endpoint(identifier, fmt.Sprintf("asset/%d", photoID))
	endpoint += "?variant=" + url.QueryEscape(variant)
	if password != "" {
		endpoint += "&password=" + url.QueryEscape(password)
	}
	return endpoint
}

func (c *Client) endpoint(identifier, suffix string) string {
	return fmt.Sprintf("%s/api/share/%s/%s", c.baseURL, url.PathEscape(identifier), suffix)
}

// withPassword appends the password query parameter only when non-empty, so
// open links produce clean URLs.
func (c *Client) withPassword(endpoint, password string) string {
	if password == "" {
		return endpoint
	}
	return endpoint + "?password=" + url.QueryEscape(password)
}

// decodeError maps a non-2xx response to a typed error.
func decodeError(resp *http.Response) error {
	var body struct {
		Detail string `json:"detail"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusGone:
		return &ExpiredError{Detail: body.Detail}
	case http.StatusUnauthorized:
		return &UnauthorizedError{Detail: body.Detail}
	default:
		return &APIError{StatusCode: resp.StatusCode, Detail: body.Detail}
	}
}
