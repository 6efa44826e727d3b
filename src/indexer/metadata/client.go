package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
)

// ProposalMeta is the off-chain document shape referenced by a proposal's
// content pointer.
type ProposalMeta struct {
	Title       string   `json:"_title"`
	Description string   `json:"_description"`
	Options     []string `json:"_options"`
}

// ProjectMeta is the off-chain document shape referenced by a project's
// content pointer.
type ProjectMeta struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Banner      string `json:"banner"`
}

// Client fetches content-addressed JSON documents from an IPFS gateway.
// Fetches are bounded by the client timeout and retried a fixed number of
// times; documents are immutable, so successful fetches are cached when a
// redis client is provided.
type Client struct {
	baseURL  string
	client   *http.Client
	rdb      *redis.Client
	retries  int
	policy   *bluemonday.Policy
	cacheTTL time.Duration
}

// NewClient creates a gateway client. rdb may be nil to disable caching.
func NewClient(baseURL string, timeout time.Duration, retries int, rdb *redis.Client) *Client {
	if baseURL == "" {
		baseURL = "https://ipfs.io/ipfs"
	}
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
		rdb:      rdb,
		retries:  retries,
		policy:   bluemonday.StrictPolicy(),
		cacheTTL: 24 * time.Hour,
	}
}

// FetchProposal retrieves and sanitizes proposal metadata.
func (c *Client) FetchProposal(ctx context.Context, cid string) (*ProposalMeta, error) {
	body, err := c.fetch(ctx, cid)
	if err != nil {
		return nil, err
	}
	var meta ProposalMeta
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("metadata: parse %s: %w", cid, err)
	}
	meta.Title = c.policy.Sanitize(meta.Title)
	meta.Description = c.policy.Sanitize(meta.Description)
	for i, opt := range meta.Options {
		meta.Options[i] = c.policy.Sanitize(opt)
	}
	return &meta, nil
}

// FetchProject retrieves and sanitizes project metadata.
func (c *Client) FetchProject(ctx context.Context, cid string) (*ProjectMeta, error) {
	body, err := c.fetch(ctx, cid)
	if err != nil {
		return nil, err
	}
	var meta ProjectMeta
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("metadata: parse %s: %w", cid, err)
	}
	meta.Name = c.policy.Sanitize(meta.Name)
	meta.Description = c.policy.Sanitize(meta.Description)
	meta.Icon = c.policy.Sanitize(meta.Icon)
	meta.Banner = c.policy.Sanitize(meta.Banner)
	return &meta, nil
}

func (c *Client) fetch(ctx context.Context, cid string) ([]byte, error) {
	if cid == "" {
		return nil, fmt.Errorf("metadata: empty content pointer")
	}

	cacheKey := "ipfs:" + cid
	if c.rdb != nil {
		if cached, err := c.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			return cached, nil
		}
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, cid)

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		body, err := c.get(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}

		if c.rdb != nil {
			c.rdb.Set(ctx, cacheKey, body, c.cacheTTL)
		}
		return body, nil
	}
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata: gateway status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return body, nil
}
