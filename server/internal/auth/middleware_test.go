package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// passHandler answers 200 "ok".
var passHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok")) //nolint:errcheck
})

func callWithKey(t *testing.T, mw func(http.Handler) http.Handler, header, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	if key != "" {
		req.Header.Set(header, key)
	}
	rr := httptest.NewRecorder()
	mw(passHandler).ServeHTTP(rr, req)
	return rr
}

func TestAPIKey_ModeNone_PassesThrough(t *testing.T) {
	rr := callWithKey(t, APIKey("none", "X-API-Key", "secret"), "X-API-Key", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("body: got %q, want ok", rr.Body.String())
	}
}

func TestAPIKey_EmptyKey_PassesThrough(t *testing.T) {
	// key="" means auth is not configured → allow all.
	rr := callWithKey(t, APIKey("apikey", "X-API-Key", ""), "X-API-Key", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestAPIKey(t *testing.T) {
	mw := APIKey("apikey", "X-API-Key", "secret")

	tests := []struct {
		name     string
		header   string
		key      string
		wantCode int
		wantMsg  string
	}{
		{"correct key", "X-API-Key", "secret", http.StatusOK, ""},
		{"header is case-insensitive", "x-api-key", "secret", http.StatusOK, ""},
		{"missing key", "X-API-Key", "", http.StatusUnauthorized, "missing api key"},
		{"wrong key", "X-API-Key", "nope", http.StatusUnauthorized, "invalid api key"},
		{"prefix of key", "X-API-Key", "secre", http.StatusUnauthorized, "invalid api key"},
		{"wrong header", "Authorization", "secret", http.StatusUnauthorized, "missing api key"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := callWithKey(t, mw, tc.header, tc.key)
			if rr.Code != tc.wantCode {
				t.Fatalf("status: got %d, want %d", rr.Code, tc.wantCode)
			}
			if tc.wantCode == http.StatusOK {
				return
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: got %q", ct)
			}
			var body map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"] != tc.wantMsg || body["code"] != "unauthorized" {
				t.Errorf("body: got %v", body)
			}
		})
	}
}

func TestAPIKey_CustomHeader(t *testing.T) {
	mw := APIKey("apikey", "X-Logloss-Token", "tok")
	if rr := callWithKey(t, mw, "X-Logloss-Token", "tok"); rr.Code != http.StatusOK {
		t.Errorf("custom header: got %d, want 200", rr.Code)
	}
	if rr := callWithKey(t, mw, "X-API-Key", "tok"); rr.Code != http.StatusUnauthorized {
		t.Errorf("default header should not satisfy custom header: got %d", rr.Code)
	}
}
