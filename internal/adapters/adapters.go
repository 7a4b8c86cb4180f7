// Package adapters holds the stateless vendor boundaries: identity
// verification, SMS, email, map tiles, practice management and the
// settlement-network feed. Each client performs exactly one vendor HTTP
// call per operation and reshapes the response; no retries, no backoff.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when required credentials are absent. The
// HTTP layer maps it to 503.
var ErrNotConfigured = errors.New("external service is not configured")

var httpClient = &http.Client{Timeout: 10 * time.Second}

// doJSON performs one vendor call: JSON request body in, JSON response out.
func doJSON(ctx context.Context, method, url, apiKey string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("vendor returned %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Set bundles all adapters for injection into the HTTP layer.
type Set struct {
	VOI      *VOIClient
	SMS      *SMSClient
	Email    *EmailClient
	Map      *MapClient
	Practice *PracticeClient
	Feed     *FeedClient
}
