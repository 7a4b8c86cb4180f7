package adapters

import (
	"context"
	"net/http"
	"time"

	"settleline.app/internal/cache"
)

const mapTokenCacheKey = "map_tile_token"

// MapClient issues short-lived tile tokens for the mapping vendor. Tokens
// are cached with an expiry margin and re-fetched when stale.
type MapClient struct {
	baseURL string
	apiKey  string
	tokens  cache.Store
}

func NewMap(baseURL, apiKey string, tokens cache.Store) *MapClient {
	return &MapClient{baseURL: baseURL, apiKey: apiKey, tokens: tokens}
}

func (c *MapClient) IsConfigured() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

// Token returns a live tile token, from cache when possible.
func (c *MapClient) Token(ctx context.Context) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	if cached, ok, err := c.tokens.GetToken(ctx, mapTokenCacheKey); err == nil && ok {
		return cached, nil
	}

	var resp struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := doJSON(ctx, http.MethodPost, c.baseURL+"/v1/tokens", c.apiKey, nil, &resp); err != nil {
		return "", err
	}

	ttl := time.Duration(resp.ExpiresIn) * time.Second
	if ttl > time.Minute {
		// Refresh a little before the vendor expiry.
		ttl -= 30 * time.Second
	}
	if ttl > 0 {
		_ = c.tokens.SetToken(ctx, mapTokenCacheKey, resp.Token, ttl)
	}
	return resp.Token, nil
}
