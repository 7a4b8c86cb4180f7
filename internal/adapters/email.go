package adapters

import (
	"context"
	"net/http"
)

// EmailClient sends one email per call through the transactional email
// vendor's HTTP API.
type EmailClient struct {
	baseURL string
	apiKey  string
	from    string
}

func NewEmail(baseURL, apiKey, from string) *EmailClient {
	return &EmailClient{baseURL: baseURL, apiKey: apiKey, from: from}
}

func (c *EmailClient) IsConfigured() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

// Send delivers one email.
func (c *EmailClient) Send(ctx context.Context, to, subject, body string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	payload := map[string]string{
		"from":    c.from,
		"to":      to,
		"subject": subject,
		"text":    body,
	}
	return doJSON(ctx, http.MethodPost, c.baseURL+"/v1/send", c.apiKey, payload, nil)
}
