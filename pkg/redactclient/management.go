package redactclient

import (
	"context"
	"fmt"
	"strings"
)

// ReloadCache clears the server's detection cache. Requires Config.APIKey.
func (c *Client) ReloadCache(ctx context.Context) (*StatusResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("an admin API key is required to reload the cache")
	}
	return postJSON[StatusResponse](ctx, c, "/admin/reload", nil, nil)
}

// Health calls GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	body, err := c.get(ctx, "/healthz")
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(body)) != "UP" {
		return fmt.Errorf("unexpected health response %q", string(body))
	}
	return nil
}

// Ready calls GET /ready. It fails when the server has no detector or its
// cache backend is unreachable.
func (c *Client) Ready(ctx context.Context) error {
	_, err := c.get(ctx, "/ready")
	return err
}
