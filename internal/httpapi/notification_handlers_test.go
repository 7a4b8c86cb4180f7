package httpapi

import (
	"net/http"
	"testing"

	"settleline.app/internal/settle"
)

func TestNotificationSendFlow(t *testing.T) {
	api := newTestAPI(t)
	admin, _ := api.loginAs("admin@demo.settleline.app")
	_, clientID := api.loginAs("client@demo.settleline.app")

	resp := api.post("/api/notification-templates", map[string]any{
		"name":    "Welcome",
		"channel": "email",
		"trigger": "client.welcome",
		"subject": "Welcome {{recipientName}}",
		"body":    "Hi {{recipientName}}, your portal is ready.",
	}, admin)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/api/notifications/send", map[string]any{
		"trigger":         "client.welcome",
		"channel":         "email",
		"recipientUserId": clientID,
	}, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	entry := decode[settle.NotificationLog](t, resp)
	if entry.Status != settle.DeliverySent {
		t.Fatalf("unexpected delivery status: %s", entry.Status)
	}
	if api.email.sends != 1 {
		t.Fatalf("expected one email send, got %d", api.email.sends)
	}
	if api.email.subject != "Welcome Demo Client" {
		t.Fatalf("unexpected subject: %q", api.email.subject)
	}

	resp = api.get("/api/notification-logs", nil, admin)
	logs := decode[map[string][]settle.NotificationLog](t, resp)
	if len(logs["items"]) != 1 {
		t.Fatalf("expected one log entry, got %d", len(logs["items"]))
	}

	// Unknown trigger has no template.
	resp = api.post("/api/notifications/send", map[string]any{
		"trigger":         "no.such.trigger",
		"channel":         "email",
		"recipientUserId": clientID,
	}, admin)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTemplateAdminOnly(t *testing.T) {
	api := newTestAPI(t)
	client, _ := api.loginAs("client@demo.settleline.app")

	resp := api.get("/api/notification-templates", nil, client)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPillarUpdateTriggersNotification(t *testing.T) {
	api := newTestAPI(t)
	admin, _ := api.loginAs("admin@demo.settleline.app")
	client, _ := api.loginAs("client@demo.settleline.app")

	resp := api.post("/api/notification-templates", map[string]any{
		"name":    "Pillar progress",
		"channel": "email",
		"trigger": "pillar.updated",
		"subject": "Progress on {{matterAddress}}",
		"body":    "{{overallPercent}}% complete",
	}, admin)
	resp.Body.Close()

	resp = api.post("/api/matters", map[string]any{"address": "1 Elm St"}, client)
	matter := decode[settle.Matter](t, resp)

	resp = api.patch("/api/matters/"+matter.ID, map[string]any{"pillarPreSettlement": "complete"}, client)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	if api.email.sends != 1 {
		t.Fatalf("expected pillar update email, got %d sends", api.email.sends)
	}
	if api.email.body != "20% complete" {
		t.Fatalf("unexpected body: %q", api.email.body)
	}
}
