package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"settleline.app/internal/adapters"
	"settleline.app/internal/settle"
)

func TestVOIStartMarksUserPending(t *testing.T) {
	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/verifications" {
			t.Errorf("unexpected vendor path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"vs_1","verification_url":"https://voi.example/vs_1","status":"pending"}`))
	}))
	defer vendor.Close()

	api := newTestAPIWithVendors(t, &adapters.Set{VOI: adapters.NewVOI(vendor.URL, "key-1")})
	client, _ := api.loginAs("client@demo.settleline.app")

	resp := api.post("/api/voi/start", nil, client)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	session := decode[adapters.VerificationSession](t, resp)
	if session.SessionID != "vs_1" {
		t.Fatalf("unexpected session: %+v", session)
	}

	resp = api.get("/api/auth/me", nil, client)
	me := decode[settle.User](t, resp)
	if me.VOIStatus != settle.VOIPending {
		t.Fatalf("voi status = %q, want %q", me.VOIStatus, settle.VOIPending)
	}
}

func TestVOIStartUnconfigured(t *testing.T) {
	api := newTestAPI(t)
	client, _ := api.loginAs("client@demo.settleline.app")

	resp := api.post("/api/voi/start", nil, client)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}
