//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// getenv returns the value of the environment variable k or def if empty.
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8080")

// waitForAppReady polls /readyz until it answers 200 or timeout elapses.
func waitForAppReady(t *testing.T, client *http.Client, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/readyz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(time.Second)
	}
	t.Fatalf("app not ready after %s", timeout)
}

// postJSON posts payload and decodes the JSON reply, retrying briefly on 429.
func postJSON(t *testing.T, client *http.Client, path string, payload any) (int, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	var status int
	for i := 0; i < 6; i++ {
		resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		status = resp.StatusCode
		if status == http.StatusTooManyRequests {
			_ = resp.Body.Close()
			time.Sleep(500 * time.Millisecond)
			continue
		}
		var out map[string]any
		err = json.NewDecoder(resp.Body).Decode(&out)
		_ = resp.Body.Close()
		require.NoError(t, err)
		return status, out
	}
	return status, nil
}
