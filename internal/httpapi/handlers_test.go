package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"settleline.app/internal/adapters"
	"settleline.app/internal/auth"
	"settleline.app/internal/cache"
	"settleline.app/internal/notify"
	"settleline.app/internal/settle"
	"settleline.app/internal/stream"
)

type capturingEmail struct {
	to, subject, body string
	sends             int
}

func (c *capturingEmail) Send(ctx context.Context, to, subject, body string) error {
	c.to, c.subject, c.body = to, subject, body
	c.sends++
	return nil
}

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T

	store settle.Store
	email *capturingEmail
}

func newTestAPI(t *testing.T) *apiClient {
	return newTestAPIWithVendors(t, nil)
}

func newTestAPIWithVendors(t *testing.T, vendors *adapters.Set) *apiClient {
	t.Helper()

	t.Setenv("SETTLE_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()

	store := settle.NewInMemory()
	email := &capturingEmail{}
	dispatcher := notify.NewDispatcher(store, email, nil)

	api := New(ReadyProbe{}, "test", store, cache.NewMemory(), stream.New(), dispatcher, vendors)
	api.rateBurst = 1000
	api.ratePerSec = 1000

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
		store:   store,
		email:   email,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) patch(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPatch, path, body, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

// loginAs exchanges a demo account email for bearer headers plus the
// provisioned user id.
func (c *apiClient) loginAs(email string) (map[string]string, string) {
	c.t.Helper()
	resp := c.post("/api/auth/demo-login", map[string]any{"email": email}, nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected login status: %d", resp.StatusCode)
	}
	payload := decode[tokenResponse](c.t, resp)
	if payload.Token == "" || payload.User == nil {
		c.t.Fatalf("incomplete login payload: %+v", payload)
	}
	return map[string]string{"Authorization": "Bearer " + payload.Token}, payload.User.ID
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	if payload["service"] != "settleline-api" {
		t.Fatalf("unexpected service name: %v", payload["service"])
	}
}

func TestAPIEnforcesAuth(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/api/matters", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp = api.get("/api/matters", nil, map[string]string{"Authorization": "Bearer garbage"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.StatusCode)
	}
}

func TestPillarProgressFlow(t *testing.T) {
	api := newTestAPI(t)
	client, _ := api.loginAs("client@demo.settleline.app")

	resp := api.post("/api/matters", map[string]any{
		"address":            "7 Harbour St, Newcastle NSW 2300",
		"contractPriceCents": 92500000,
	}, client)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	matter := decode[settle.Matter](t, resp)

	resp = api.get("/api/matters/"+matter.ID+"/progress", nil, client)
	progress := decode[settle.Progress](t, resp)
	if progress.OverallPercent != 0 || progress.CompletedCount != 0 {
		t.Fatalf("expected zero progress, got %+v", progress)
	}

	pillars := []string{
		"pillarPreSettlement", "pillarExchange", "pillarConditions",
		"pillarPreCompletion", "pillarSettlement",
	}
	for i, pillar := range pillars {
		resp = api.patch("/api/matters/"+matter.ID, map[string]any{pillar: "complete"}, client)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("patch %s: unexpected status %d", pillar, resp.StatusCode)
		}
		resp.Body.Close()

		resp = api.get("/api/matters/"+matter.ID+"/progress", nil, client)
		progress = decode[settle.Progress](t, resp)
		want := (i + 1) * 20
		if progress.OverallPercent != want {
			t.Fatalf("after %s: percent=%d, want %d", pillar, progress.OverallPercent, want)
		}
	}
	if progress.CompletedCount != 5 {
		t.Fatalf("expected all pillars complete, got %d", progress.CompletedCount)
	}
}

func TestPillarValidation(t *testing.T) {
	api := newTestAPI(t)
	client, _ := api.loginAs("client@demo.settleline.app")

	resp := api.post("/api/matters", map[string]any{"address": "1 Elm St"}, client)
	matter := decode[settle.Matter](t, resp)

	resp = api.patch("/api/matters/"+matter.ID, map[string]any{"pillarExchange": "done"}, client)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	if msg, _ := payload["error"].(string); !contains(msg, "pillarExchange") {
		t.Fatalf("error should name the field: %v", payload["error"])
	}
}

func TestOnboardingAllowList(t *testing.T) {
	api := newTestAPI(t)
	client, _ := api.loginAs("client@demo.settleline.app")

	resp := api.patch("/api/auth/onboarding", map[string]any{
		"phone": "+61 400 000 111",
		"state": "NSW",
	}, client)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	user := decode[settle.User](t, resp)
	if user.Phone != "+61 400 000 111" || user.State != "NSW" {
		t.Fatalf("profile not updated: %+v", user)
	}

	// Role is not a self-service field.
	resp = api.patch("/api/auth/onboarding", map[string]any{"role": "ADMIN"}, client)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	if msg, _ := payload["error"].(string); !contains(msg, "role") {
		t.Fatalf("error should name the rejected field: %v", payload["error"])
	}

	resp = api.get("/api/auth/me", nil, client)
	me := decode[settle.User](t, resp)
	if me.Role != "CLIENT" {
		t.Fatalf("role must be unchanged, got %s", me.Role)
	}
}

func TestTaskStatusValidation(t *testing.T) {
	api := newTestAPI(t)
	client, _ := api.loginAs("client@demo.settleline.app")

	resp := api.post("/api/matters", map[string]any{"address": "1 Elm St"}, client)
	matter := decode[settle.Matter](t, resp)

	resp = api.post("/api/tasks", map[string]any{
		"matterId": matter.ID,
		"title":    "Order title search",
		"status":   "DONE",
	}, client)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	if msg, _ := payload["error"].(string); !contains(msg, "status") {
		t.Fatalf("error should name the field: %v", payload["error"])
	}

	resp = api.post("/api/tasks", map[string]any{
		"matterId": matter.ID,
		"title":    "Order title search",
	}, client)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	task := decode[settle.Task](t, resp)
	if task.Status != settle.TaskPending {
		t.Fatalf("expected default status PENDING, got %s", task.Status)
	}

	resp = api.get("/api/matters/"+matter.ID+"/tasks", nil, client)
	list := decode[map[string][]settle.Task](t, resp)
	if len(list["items"]) != 1 {
		t.Fatalf("expected one task, got %d", len(list["items"]))
	}
}

func TestLockedDocumentDelete(t *testing.T) {
	api := newTestAPI(t)
	client, _ := api.loginAs("client@demo.settleline.app")

	resp := api.post("/api/matters", map[string]any{"address": "1 Elm St"}, client)
	matter := decode[settle.Matter](t, resp)

	resp = api.post("/api/documents", map[string]any{
		"matterId": matter.ID,
		"name":     "Contract of Sale.pdf",
		"locked":   true,
	}, client)
	locked := decode[settle.Document](t, resp)

	resp = api.do(http.MethodDelete, "/api/documents/"+locked.ID, nil, client)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for locked document, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Still listed.
	resp = api.get("/api/matters/"+matter.ID+"/documents", nil, client)
	list := decode[map[string][]settle.Document](t, resp)
	if len(list["items"]) != 1 {
		t.Fatalf("locked document must survive, got %d items", len(list["items"]))
	}

	resp = api.post("/api/documents", map[string]any{
		"matterId": matter.ID,
		"name":     "Rates notice.pdf",
	}, client)
	unlocked := decode[settle.Document](t, resp)

	resp = api.do(http.MethodDelete, "/api/documents/"+unlocked.ID, nil, client)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestMatterVisibilityByRole(t *testing.T) {
	api := newTestAPI(t)
	client, clientID := api.loginAs("client@demo.settleline.app")
	broker, _ := api.loginAs("broker@demo.settleline.app")
	conveyancer, _ := api.loginAs("conveyancer@demo.settleline.app")

	resp := api.post("/api/matters", map[string]any{
		"address":      "18 Miller St, Fitzroy VIC 3065",
		"clientUserId": clientID,
	}, broker)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	matter := decode[settle.Matter](t, resp)

	resp = api.get("/api/matters", nil, client)
	clientList := decode[map[string][]settle.Matter](t, resp)
	if len(clientList["items"]) != 1 {
		t.Fatalf("client should see own matter, got %d", len(clientList["items"]))
	}

	resp = api.get("/api/matters", nil, conveyancer)
	convList := decode[map[string][]settle.Matter](t, resp)
	if len(convList["items"]) != 0 {
		t.Fatalf("unassigned conveyancer should see nothing, got %d", len(convList["items"]))
	}

	// Direct fetch outside the conveyancer's scope reads as absent.
	resp = api.get("/api/matters/"+matter.ID, nil, conveyancer)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/api/matters", nil, broker)
	brokerList := decode[map[string][]settle.Matter](t, resp)
	if len(brokerList["items"]) != 1 {
		t.Fatalf("broker should see all matters, got %d", len(brokerList["items"]))
	}
}

func TestMatterMessages(t *testing.T) {
	api := newTestAPI(t)
	client, _ := api.loginAs("client@demo.settleline.app")

	resp := api.post("/api/matters", map[string]any{"address": "1 Elm St"}, client)
	matter := decode[settle.Matter](t, resp)

	resp = api.post("/api/matters/"+matter.ID+"/messages", map[string]any{
		"body": "When is the building inspection booked?",
	}, client)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	msg := decode[cache.Message](t, resp)
	if msg.ID == "" || msg.MatterID != matter.ID {
		t.Fatalf("unexpected message: %+v", msg)
	}

	resp = api.get("/api/matters/"+matter.ID+"/messages", nil, client)
	list := decode[map[string][]cache.Message](t, resp)
	if len(list["items"]) != 1 || list["items"][0].Body != "When is the building inspection booked?" {
		t.Fatalf("unexpected listing: %+v", list["items"])
	}
}

func TestEmptyListingsSerializeAsArray(t *testing.T) {
	api := newTestAPI(t)
	client, _ := api.loginAs("client@demo.settleline.app")

	resp := api.post("/api/matters", map[string]any{"address": "1 Elm St"}, client)
	matter := decode[settle.Matter](t, resp)

	for _, path := range []string{
		"/api/matters/" + matter.ID + "/tasks",
		"/api/matters/" + matter.ID + "/documents",
		"/api/referrals",
		"/api/payments",
	} {
		resp := api.get(path, nil, client)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: unexpected status %d", path, resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("%s: read body: %v", path, err)
		}
		if !contains(string(body), `"items":[]`) {
			t.Fatalf("%s: empty listing should be an array, got %s", path, body)
		}
	}
}

func contains(haystack, needle string) bool {
	return bytes.Contains([]byte(haystack), []byte(needle))
}
