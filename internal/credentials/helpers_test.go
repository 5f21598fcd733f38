package credentials

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testScope = "https://www.googleapis.com/auth/youtube.readonly"

// tokenServer fakes the Google token endpoint
type tokenServer struct {
	*httptest.Server
	refreshes atomic.Int32
	exchanges atomic.Int32
	fail      atomic.Bool
	lastForm  atomic.Value
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ts.lastForm.Store(r.PostForm)
		if ts.fail.Load() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}

		resp := map[string]any{"token_type": "Bearer", "expires_in": 3600}
		switch r.PostForm.Get("grant_type") {
		case "refresh_token":
			n := ts.refreshes.Add(1)
			resp["access_token"] = fmt.Sprintf("refreshed-%d", n)
		case "authorization_code":
			ts.exchanges.Add(1)
			resp["access_token"] = "fresh-access"
			resp["refresh_token"] = "fresh-refresh"
		default:
			http.Error(w, "unsupported grant", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) form() url.Values {
	v, _ := ts.lastForm.Load().(url.Values)
	return v
}

func writeClientSecret(t *testing.T, tokenURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client_secret.json")
	secret := map[string]any{
		"installed": map[string]any{
			"client_id":     "client-id",
			"client_secret": "client-secret",
			"auth_uri":      "https://accounts.example.com/o/oauth2/auth",
			"token_uri":     tokenURL,
			"redirect_uris": []string{"http://127.0.0.1"},
		},
	}
	data, err := json.Marshal(secret)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func newOAuthConfig(t *testing.T, ts *tokenServer) *oauth2.Config {
	t.Helper()
	cfg, err := LoadClientConfig(writeClientSecret(t, ts.URL+"/token"), []string{testScope})
	require.NoError(t, err)
	return cfg
}
