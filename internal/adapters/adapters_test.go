package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"settleline.app/internal/cache"
)

func TestSMSSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key-1" {
			t.Fatalf("missing auth header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sms := NewSMS(srv.URL, "key-1", "Settleline")
	if err := sms.Send(context.Background(), "+61400000000", "your code is 123456"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["to"] != "+61400000000" || got["from"] != "Settleline" {
		t.Fatalf("unexpected payload: %v", got)
	}
}

func TestSMSNotConfigured(t *testing.T) {
	sms := NewSMS("", "", "Settleline")
	if sms.IsConfigured() {
		t.Fatal("should not be configured")
	}
	if err := sms.Send(context.Background(), "x", "y"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestMapTokenCached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "tile-tok", "expires_in": 3600})
	}))
	defer srv.Close()

	m := NewMap(srv.URL, "key-1", cache.NewMemory())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tok, err := m.Token(ctx)
		if err != nil {
			t.Fatalf("Token: %v", err)
		}
		if tok != "tile-tok" {
			t.Fatalf("unexpected token: %s", tok)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single vendor call, got %d", calls)
	}
}

func TestVendorErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad applicant", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	voi := NewVOI(srv.URL, "key-1")
	if _, err := voi.Start(context.Background(), VerificationRequest{Name: "Casey"}); err == nil {
		t.Fatal("expected vendor error")
	}
}
