package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                  "/",
		"/metrics":                          "/metrics",
		"/api/matters/01ABC":                "/api/matters/:id",
		"/api/matters/01ABC/tasks":          "/api/matters/:id/tasks",
		"/api/matters/01ABC/documents":      "/api/matters/:id/documents",
		"/api/referrals/qr/some-token":      "/api/referrals/qr/:token",
		"/api/referrals/01XYZ":              "/api/referrals/:id",
		"/api/playbook/what-is-exchange":    "/api/playbook/:slug",
		"/api/referrals":                    "/api/referrals",
		"/api/notification-logs?limit=10":   "/api/notification-logs",
		"/api/notification-templates/01DEF": "/api/notification-templates/:id",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
