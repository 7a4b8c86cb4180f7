// Command smoke drives a deployed API through the core client journey:
// demo login, matter creation, pillar advance, progress check.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	base := os.Getenv("SETTLE_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	client := &http.Client{Timeout: 10 * time.Second}

	var login struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	call(client, "POST", base+"/api/auth/demo-login", "", map[string]any{
		"email": "client@demo.settleline.app",
	}, &login)
	if login.Token == "" {
		log.Fatal("demo login returned no token")
	}

	var matter struct {
		ID string `json:"id"`
	}
	call(client, "POST", base+"/api/matters", login.Token, map[string]any{
		"address": "1 Smoke Test Pde",
	}, &matter)

	call(client, "PATCH", base+"/api/matters/"+matter.ID, login.Token, map[string]any{
		"pillarPreSettlement": "complete",
	}, nil)

	var progress struct {
		OverallPercent int `json:"overallPercent"`
	}
	call(client, "GET", base+"/api/matters/"+matter.ID+"/progress", login.Token, nil, &progress)
	if progress.OverallPercent != 20 {
		log.Fatalf("expected 20%% after one pillar, got %d%%", progress.OverallPercent)
	}

	fmt.Printf("smoke test passed: matter=%s progress=%d%%\n", matter.ID, progress.OverallPercent)
}

func call(client *http.Client, method, url, token string, body, out any) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal %s %s: %v", method, url, err)
		}
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("request %s %s: %v", method, url, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Fatalf("%s %s: status %d", method, url, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
}
