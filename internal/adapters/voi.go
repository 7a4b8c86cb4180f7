package adapters

import (
	"context"
	"net/http"
)

// VOIClient starts identity-verification sessions with the hosted VOI
// vendor.
type VOIClient struct {
	baseURL string
	apiKey  string
}

func NewVOI(baseURL, apiKey string) *VOIClient {
	return &VOIClient{baseURL: baseURL, apiKey: apiKey}
}

func (c *VOIClient) IsConfigured() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

// VerificationRequest is the applicant payload sent to the vendor.
type VerificationRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// VerificationSession is the reshaped vendor response.
type VerificationSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	Status    string `json:"status"`
}

// Start creates one verification session.
func (c *VOIClient) Start(ctx context.Context, req VerificationRequest) (VerificationSession, error) {
	if !c.IsConfigured() {
		return VerificationSession{}, ErrNotConfigured
	}
	var resp struct {
		ID     string `json:"id"`
		Link   string `json:"verification_url"`
		Status string `json:"status"`
	}
	if err := doJSON(ctx, http.MethodPost, c.baseURL+"/v1/verifications", c.apiKey, req, &resp); err != nil {
		return VerificationSession{}, err
	}
	return VerificationSession{SessionID: resp.ID, URL: resp.Link, Status: resp.Status}, nil
}
