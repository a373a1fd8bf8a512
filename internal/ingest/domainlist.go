package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/macadam-io/macadam/internal/normalize"
	"go.uber.org/zap"
)

// defaultCollections are the Common Crawl index collections queried, newest
// first.
var defaultCollections = []string{
	"CC-MAIN-2025-10", "CC-MAIN-2025-06", "CC-MAIN-2024-50",
}

const commonCrawlIndexBase = "https://index.commoncrawl.org"

// DomainDiscovery finds candidate domains to probe, either from the Common
// Crawl URL index or from a local seed file.
type DomainDiscovery struct {
	httpClient  *http.Client
	indexBase   string
	collections []string
	logger      *zap.Logger
}

// NewDomainDiscovery builds a discovery client. A nil logger disables
// logging.
func NewDomainDiscovery(logger *zap.Logger) *DomainDiscovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DomainDiscovery{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		indexBase:   commonCrawlIndexBase,
		collections: defaultCollections,
		logger:      logger,
	}
}

type cdxHit struct {
	URL string `json:"url"`
}

// FromCommonCrawl returns registrable domains whose indexed URLs contain any
// of the keywords. Index failures degrade to fewer (possibly zero) domains;
// web discovery is opportunistic and a dead index is not an error. The
// result is sorted, de-duplicated, and capped at limit.
func (d *DomainDiscovery) FromCommonCrawl(ctx context.Context, keywords []string, limit int) []string {
	if limit <= 0 || len(keywords) == 0 {
		return nil
	}

	perQuery := limit / len(d.collections)
	if perQuery < 1 {
		perQuery = 1
	}

	domains := make(map[string]bool)
	for _, coll := range d.collections {
		for _, kw := range keywords {
			hits, err := d.queryIndex(ctx, coll, kw, perQuery)
			if err != nil {
				d.logger.Warn("index query failed",
					zap.String("collection", coll),
					zap.String("keyword", kw),
					zap.Error(err))
				continue
			}
			for _, hit := range hits {
				if dom := normalize.RootDomain(hit.URL); dom != "" {
					domains[dom] = true
				}
			}
		}
	}

	out := make([]string, 0, len(domains))
	for dom := range domains {
		out = append(out, dom)
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}

	d.logger.Info("candidate domains discovered", zap.Int("domains", len(out)))
	return out
}

// queryIndex runs one CDX lookup, matching the keyword as a URL substring.
// Responses are JSON lines, one hit per line.
func (d *DomainDiscovery) queryIndex(ctx context.Context, collection, keyword string, limit int) ([]cdxHit, error) {
	token := strings.ReplaceAll(strings.TrimSpace(keyword), " ", "-")
	params := url.Values{
		"url":    {"*" + token + "*"},
		"output": {"json"},
		"filter": {"status:200"},
		"limit":  {fmt.Sprint(limit)},
	}
	endpoint := fmt.Sprintf("%s/%s-index?%s", d.indexBase, collection, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var hits []cdxHit
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var hit cdxHit
		if err := json.Unmarshal(scanner.Bytes(), &hit); err != nil {
			continue
		}
		if hit.URL != "" {
			hits = append(hits, hit)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan response: %w", err)
	}
	return hits, nil
}

// DomainsFromFile reads seed domains from a file, one per line. Blank lines
// and # comments are skipped; duplicates are dropped keeping first
// occurrence.
func DomainsFromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open domains file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var domains []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			domains = append(domains, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan domains file: %w", err)
	}
	return domains, nil
}
