package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker enforces robots exclusion rules for discovery fetches.
// Rule sets are fetched lazily per origin (scheme://host) and cached for the
// run's lifetime; there is no refresh. Retrieval failure of any kind is
// fail-open: the origin is treated as fully allowed.
type RobotsChecker struct {
	mu         sync.RWMutex
	cache      map[string]*robotstxt.RobotsData
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a checker identifying itself as userAgent.
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		cache: make(map[string]*robotstxt.RobotsData),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Allowed reports whether rawURL may be fetched under its origin's rules.
// URLs without an absolute origin are not allowed; everything else fails
// open.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	origin, err := Origin(rawURL)
	if err != nil {
		return false
	}

	data := r.rules(ctx, origin)
	if data == nil {
		return true
	}

	parsed, _ := url.Parse(rawURL)
	path := parsed.Path
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, r.userAgent)
}

// rules returns the cached rule set for an origin, fetching it on first use.
// A nil return means no usable rules (fail-open).
func (r *RobotsChecker) rules(ctx context.Context, origin string) *robotstxt.RobotsData {
	r.mu.RLock()
	data, ok := r.cache[origin]
	r.mu.RUnlock()
	if ok {
		return data
	}

	data = r.fetchRules(ctx, origin)

	r.mu.Lock()
	// Another goroutine may have raced us here; first insert wins.
	if prior, ok := r.cache[origin]; ok {
		data = prior
	} else {
		r.cache[origin] = data
	}
	r.mu.Unlock()

	return data
}

func (r *RobotsChecker) fetchRules(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data
}

// NormalizeUserAgent reduces a full User-Agent header to the product token
// used for robots group matching.
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	return strings.Split(parts[0], "/")[0]
}

// Origin returns the scheme://host origin of rawURL.
func Origin(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("not an absolute URL: %q", rawURL)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}
