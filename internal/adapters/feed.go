package adapters

import (
	"context"
	"net/http"
)

// FeedClient reads workspace status from the settlement-network feed.
type FeedClient struct {
	baseURL string
	apiKey  string
}

func NewFeed(baseURL, apiKey string) *FeedClient {
	return &FeedClient{baseURL: baseURL, apiKey: apiKey}
}

func (c *FeedClient) IsConfigured() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

// WorkspaceStatus is the reshaped feed entry for one workspace.
type WorkspaceStatus struct {
	WorkspaceID string `json:"workspaceId"`
	Status      string `json:"status"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Workspace fetches one workspace's current status.
func (c *FeedClient) Workspace(ctx context.Context, workspaceID string) (WorkspaceStatus, error) {
	if !c.IsConfigured() {
		return WorkspaceStatus{}, ErrNotConfigured
	}
	var resp struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		UpdatedAt string `json:"updated_at"`
	}
	if err := doJSON(ctx, http.MethodGet, c.baseURL+"/v1/workspaces/"+workspaceID, c.apiKey, nil, &resp); err != nil {
		return WorkspaceStatus{}, err
	}
	return WorkspaceStatus{WorkspaceID: resp.ID, Status: resp.Status, UpdatedAt: resp.UpdatedAt}, nil
}
