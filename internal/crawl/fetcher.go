// Package crawl implements polite web discovery: rate-limited, robots-aware
// fetching of candidate contractor sites and the bounded fan-out that probes
// them.
package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/macadam-io/macadam/internal/model"
	"github.com/macadam-io/macadam/internal/util"
	"github.com/macadam-io/macadam/internal/worker"
)

// PoliteFetcher performs single politeness-checked GETs. The robots cache and
// the per-host limiter are the only state shared across concurrent fetches.
type PoliteFetcher struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	userAgent  string
	maxBytes   int64
}

// NewPoliteFetcher builds a fetcher from the HTTP section of the config.
func NewPoliteFetcher(cfg model.HTTPConfig) *PoliteFetcher {
	return &PoliteFetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots:    util.NewRobotsChecker(cfg.UserAgent, cfg.RobotsTimeout),
		limiter:   worker.NewLimiter(cfg.PerHostRPS, cfg.PerHostBurst),
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
	}
}

// Fetch retrieves a page body. It never returns an error: any robots denial,
// rate-limit interruption, network failure, non-200 status, or non-textual
// content type yields ok=false. Exactly one attempt is made.
func (f *PoliteFetcher) Fetch(ctx context.Context, rawURL string) (string, bool) {
	if !f.robots.Allowed(ctx, rawURL) {
		return "", false
	}

	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	if !textualContentType(resp.Header.Get("Content-Type")) {
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", false
	}

	return string(body), true
}

func textualContentType(ct string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "text")
}
