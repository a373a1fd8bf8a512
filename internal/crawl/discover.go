package crawl

import (
	"context"

	"github.com/macadam-io/macadam/internal/extract"
	"github.com/macadam-io/macadam/internal/model"
	"github.com/macadam-io/macadam/internal/worker"
	"go.uber.org/zap"
)

// servicePaths are the well-known paths probed per candidate domain, in
// order. The order matters: score ties keep the first-seen path.
var servicePaths = []string{
	"/", "/about", "/services", "/service", "/contact", "/areas-served", "/sitemap.xml",
}

// Discoverer probes candidate domains for contractor pages and emits the
// best extraction per domain as a RawRecord.
type Discoverer struct {
	fetcher   *PoliteFetcher
	extractor *extract.PageExtractor
	workers   int
	scheme    string // probe scheme, https outside tests
	logger    *zap.Logger
}

// NewDiscoverer builds a Discoverer. A nil logger disables logging.
func NewDiscoverer(fetcher *PoliteFetcher, extractor *extract.PageExtractor, workers int, logger *zap.Logger) *Discoverer {
	if workers <= 0 {
		workers = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{
		fetcher:   fetcher,
		extractor: extractor,
		workers:   workers,
		scheme:    "https",
		logger:    logger,
	}
}

// domainJob probes one domain. It satisfies worker.Job.
type domainJob struct {
	domain string
	d      *Discoverer
}

// domainResult carries the best candidate for one domain, if any.
type domainResult struct {
	domain string
	record *model.RawRecord
}

func (r *domainResult) GetError() error { return nil }

// Execute walks the fixed path list, keeps the highest-scoring extraction,
// and reports it. Domains yielding nothing produce a nil record.
func (j *domainJob) Execute(ctx context.Context) worker.Result {
	base := j.d.scheme + "://" + j.domain

	var best *model.RawRecord
	bestScore := -1

	for _, path := range servicePaths {
		body, ok := j.d.fetcher.Fetch(ctx, base+path)
		if !ok {
			continue
		}

		rec := j.d.extractor.Extract(body, base)
		score := probeScore(rec)
		if score > bestScore {
			rec.SourceName = "web"
			best = &rec
			bestScore = score
		}
	}

	return &domainResult{domain: j.domain, record: best}
}

// probeScore prefers pages that yield a phone number and work-type tags.
func probeScore(rec model.RawRecord) int {
	score := 0
	if rec.Phone != "" {
		score++
	}
	if rec.WorkTypes != "" {
		score++
	}
	return score
}

// DiscoverDomains probes up to limit domains under the configured worker
// cap. Output order follows completion order, not input order; downstream
// stages must not depend on it. Domains that produce nothing are dropped.
func (d *Discoverer) DiscoverDomains(ctx context.Context, domains []string, limit int) []model.RawRecord {
	if limit > 0 && len(domains) > limit {
		domains = domains[:limit]
	}
	if len(domains) == 0 {
		return nil
	}

	pool := worker.NewPool(d.workers)
	pool.Start()

	// Submit from a separate goroutine so results drain while jobs are
	// still queueing. The domain list routinely exceeds the pool's channel
	// buffers, and a submit-then-drain sequence would wedge once they fill.
	go func() {
		for _, domain := range domains {
			pool.Submit(&domainJob{domain: domain, d: d})
		}
		pool.Close()
	}()

	var records []model.RawRecord
	for res := range pool.Results() {
		dr, ok := res.(*domainResult)
		if !ok || dr.record == nil {
			continue
		}
		d.logger.Debug("domain probe yielded candidate",
			zap.String("domain", dr.domain),
			zap.String("name", dr.record.Name))
		records = append(records, *dr.record)
	}

	d.logger.Info("web discovery finished",
		zap.Int("domains", len(domains)),
		zap.Int("candidates", len(records)))

	return records
}
