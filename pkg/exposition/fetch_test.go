package exposition

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch(t *testing.T) {
	var body bytes.Buffer
	if err := Encode(&body, sampleEvals()); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Write(body.Bytes()) //nolint:errcheck
	}))
	defer srv.Close()

	evals, err := Fetch(context.Background(), nil, srv.URL+"/metrics")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(evals) != 2 || evals[0].Dataset != "hours-studied" || evals[1].Dataset != "validation" {
		t.Errorf("evaluations: got %+v", evals)
	}
	if !strings.HasPrefix(accept, "text/plain") {
		t.Errorf("Accept header: got %q", accept)
	}
}

func TestFetch_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := Fetch(context.Background(), nil, srv.URL); err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("status error: got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Fetch(ctx, srv.Client(), srv.URL); err == nil {
		t.Error("cancelled context: expected error")
	}

	if _, err := Fetch(context.Background(), nil, "://bad"); err == nil {
		t.Error("bad url: expected error")
	}
}
