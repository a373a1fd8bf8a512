package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRobotsChecker_DisallowedPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /admin\nAllow: /\n")
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	r := NewRobotsChecker("macadam-test/0.1", 5*time.Second)
	ctx := context.Background()

	if r.Allowed(ctx, server.URL+"/admin") {
		t.Error("expected /admin to be disallowed")
	}
	if !r.Allowed(ctx, server.URL+"/services") {
		t.Error("expected /services to be allowed")
	}
	if !r.Allowed(ctx, server.URL) {
		t.Error("expected bare origin to be allowed")
	}
}

func TestRobotsChecker_MissingRobotsFailsOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	r := NewRobotsChecker("macadam-test/0.1", 5*time.Second)
	if !r.Allowed(context.Background(), server.URL+"/anything") {
		t.Error("expected fail-open when robots.txt is missing")
	}
}

func TestRobotsChecker_UnparseableURL(t *testing.T) {
	r := NewRobotsChecker("macadam-test/0.1", 5*time.Second)
	if r.Allowed(context.Background(), "://bad") {
		t.Error("expected unparseable URL to be denied")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Macadam/0.1 (+https://github.com/macadam-io/macadam)", "Macadam"},
		{"Macadam", "Macadam"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUserAgent(tt.in); got != tt.want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOrigin(t *testing.T) {
	got, err := Origin("https://www.acmepaving.com/contact?x=1")
	if err != nil {
		t.Fatalf("Origin: %v", err)
	}
	if got != "https://www.acmepaving.com" {
		t.Errorf("Origin = %q", got)
	}

	if _, err := Origin("no-scheme.com/path"); err == nil {
		t.Error("expected error for relative URL")
	}
}
