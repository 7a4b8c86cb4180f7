package httpapi

import (
	"net/http"
	"testing"

	"settleline.app/internal/settle"
)

func TestReferralQRLifecycle(t *testing.T) {
	api := newTestAPI(t)
	broker, _ := api.loginAs("broker@demo.settleline.app")

	resp := api.post("/api/referrals", map[string]any{
		"clientName":  "Jordan Example",
		"clientEmail": "jordan@example.com",
		"channel":     "QR",
	}, broker)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	ref := decode[settle.Referral](t, resp)
	if ref.QRToken == "" {
		t.Fatal("QR referral must carry a token")
	}
	if ref.Status != settle.ReferralPending {
		t.Fatalf("unexpected status: %s", ref.Status)
	}

	// Public lookup without auth, limited fields only.
	resp = api.get("/api/referrals/qr/"+ref.QRToken, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	if payload["clientFirstName"] != "Jordan" {
		t.Fatalf("unexpected first name: %v", payload["clientFirstName"])
	}
	if _, leaked := payload["qrToken"]; leaked {
		t.Fatal("public payload must not echo the token")
	}
	if _, leaked := payload["clientEmail"]; leaked {
		t.Fatal("public payload must not expose the client email")
	}

	// Unknown token: 404, still without auth.
	resp = api.get("/api/referrals/qr/no-such-token", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReferralTokenImmutableOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	broker, _ := api.loginAs("broker@demo.settleline.app")

	resp := api.post("/api/referrals", map[string]any{
		"clientName": "Jordan Example",
		"channel":    "QR",
	}, broker)
	ref := decode[settle.Referral](t, resp)

	// qrToken is not an accepted patch field.
	resp = api.patch("/api/referrals/"+ref.ID, map[string]any{"qrToken": "forged"}, broker)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.patch("/api/referrals/"+ref.ID, map[string]any{"status": "Settled"}, broker)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	updated := decode[settle.Referral](t, resp)
	if updated.QRToken != ref.QRToken {
		t.Fatalf("token changed: %s -> %s", ref.QRToken, updated.QRToken)
	}
	if updated.Status != settle.ReferralSettled {
		t.Fatalf("unexpected status: %s", updated.Status)
	}
}

func TestReferralConvert(t *testing.T) {
	api := newTestAPI(t)
	broker, _ := api.loginAs("broker@demo.settleline.app")
	_, clientID := api.loginAs("client@demo.settleline.app")

	resp := api.post("/api/referrals", map[string]any{
		"clientName": "Casey Demo",
		"channel":    "PORTAL",
	}, broker)
	ref := decode[settle.Referral](t, resp)

	resp = api.post("/api/referrals/"+ref.ID+"/convert", map[string]any{
		"address":      "44 Ocean Rd, Torquay VIC 3228",
		"clientUserId": clientID,
	}, broker)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	type convertResponse struct {
		Referral settle.Referral `json:"referral"`
		Matter   settle.Matter   `json:"matter"`
	}
	payload := decode[convertResponse](t, resp)
	if payload.Referral.Status != settle.ReferralConverted {
		t.Fatalf("unexpected referral status: %s", payload.Referral.Status)
	}
	if payload.Referral.MatterID != payload.Matter.ID {
		t.Fatal("referral must reference the created matter")
	}
	if payload.Matter.ClientUserID != clientID || payload.Matter.BrokerUserID == "" {
		t.Fatalf("unexpected matter ownership: %+v", payload.Matter)
	}

	// Second conversion is rejected.
	resp = api.post("/api/referrals/"+ref.ID+"/convert", map[string]any{
		"address":      "44 Ocean Rd, Torquay VIC 3228",
		"clientUserId": clientID,
	}, broker)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReferralBrokerScope(t *testing.T) {
	api := newTestAPI(t)
	broker, _ := api.loginAs("broker@demo.settleline.app")
	client, _ := api.loginAs("client@demo.settleline.app")

	resp := api.post("/api/referrals", map[string]any{
		"clientName": "Jordan Example",
		"channel":    "PORTAL",
	}, broker)
	ref := decode[settle.Referral](t, resp)

	// A non-owning viewer cannot reach the referral.
	resp = api.patch("/api/referrals/"+ref.ID, map[string]any{"status": "Settled"}, client)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
