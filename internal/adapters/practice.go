package adapters

import (
	"context"
	"net/http"
)

// PracticeClient pushes matter snapshots to the legal practice-management
// vendor.
type PracticeClient struct {
	baseURL string
	apiKey  string
}

func NewPractice(baseURL, apiKey string) *PracticeClient {
	return &PracticeClient{baseURL: baseURL, apiKey: apiKey}
}

func (c *PracticeClient) IsConfigured() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

// MatterSnapshot is the subset of a matter the vendor receives.
type MatterSnapshot struct {
	MatterID       string `json:"matterId"`
	Address        string `json:"address"`
	Status         string `json:"status"`
	ClientName     string `json:"clientName,omitempty"`
	SettlementDate string `json:"settlementDate,omitempty"`
}

// SyncMatter pushes one snapshot and returns the vendor's matter id.
func (c *PracticeClient) SyncMatter(ctx context.Context, snap MatterSnapshot) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	var resp struct {
		MatterID string `json:"matter_id"`
	}
	if err := doJSON(ctx, http.MethodPost, c.baseURL+"/v1/matters/sync", c.apiKey, snap, &resp); err != nil {
		return "", err
	}
	return resp.MatterID, nil
}
