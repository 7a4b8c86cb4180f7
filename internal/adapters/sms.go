package adapters

import (
	"context"
	"net/http"
)

// SMSClient sends one text message per call through the SMS vendor.
type SMSClient struct {
	baseURL string
	apiKey  string
	sender  string
}

func NewSMS(baseURL, apiKey, sender string) *SMSClient {
	return &SMSClient{baseURL: baseURL, apiKey: apiKey, sender: sender}
}

func (c *SMSClient) IsConfigured() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

// Send delivers one message. A non-2xx vendor response is the only failure
// signal; there is no retry.
func (c *SMSClient) Send(ctx context.Context, to, body string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	payload := map[string]string{
		"from": c.sender,
		"to":   to,
		"body": body,
	}
	return doJSON(ctx, http.MethodPost, c.baseURL+"/v1/messages", c.apiKey, payload, nil)
}
