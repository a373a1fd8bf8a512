// Package pipeline wires the sources, normalization, scoring, and
// resolution stages into one run.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/macadam-io/macadam/internal/crawl"
	"github.com/macadam-io/macadam/internal/extract"
	"github.com/macadam-io/macadam/internal/ingest"
	"github.com/macadam-io/macadam/internal/model"
	"github.com/macadam-io/macadam/internal/normalize"
	"github.com/macadam-io/macadam/internal/resolve"
	"github.com/macadam-io/macadam/internal/score"
	"github.com/macadam-io/macadam/internal/storage"
	"go.uber.org/zap"
)

// RunParams are the per-run knobs owned by the CLI layer.
type RunParams struct {
	Regions      []string
	RosterDir    string
	UseGeodata   bool
	UseDiscovery bool
	DomainsFile  string // optional local seed list; skips the index query
	DomainLimit  int
	OutPath      string
	EvidencePath string // optional evidence dump
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	Evidence  int // raw records gathered across all sources
	Canonical int // records written to the registry
}

// Pipeline orchestrates a full registry build.
type Pipeline struct {
	cfg        *model.Config
	discoverer *crawl.Discoverer
	domains    *ingest.DomainDiscovery
	geodata    *ingest.Overpass
	scorer     *score.Scorer
	resolver   *resolve.Resolver
	logger     *zap.Logger
}

// New builds a pipeline from configuration. A nil logger disables logging.
func New(cfg *model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	fetcher := crawl.NewPoliteFetcher(cfg.HTTP)
	return &Pipeline{
		cfg:        cfg,
		discoverer: crawl.NewDiscoverer(fetcher, extract.NewPageExtractor(), cfg.Crawl.ProbeWorkers, logger),
		domains:    ingest.NewDomainDiscovery(logger),
		geodata:    ingest.NewOverpass(cfg.Geo, logger),
		scorer:     score.NewScorer(cfg.Market),
		resolver:   resolve.NewResolver(),
		logger:     logger,
	}
}

// Run gathers every enabled source, reconciles the records, and writes the
// registry. A source producing nothing is soft; only structurally invalid
// parameters (an unsupported region) fail the run. An empty combined record
// set is "nothing to do", not an error.
func (p *Pipeline) Run(ctx context.Context, params RunParams) (*RunResult, error) {
	evidence, err := p.gather(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(evidence) == 0 {
		p.logger.Info("no evidence records produced; nothing to do")
		return &RunResult{}, nil
	}

	canonical := make([]model.CanonicalRecord, 0, len(evidence))
	for _, raw := range evidence {
		rec := normalize.Record(raw)
		rec.MarketFitScore, rec.FitLabel = p.scorer.Calculate(rec)
		canonical = append(canonical, rec)
	}

	if params.EvidencePath != "" {
		if err := storage.WriteEvidence(params.EvidencePath, canonical); err != nil {
			return nil, fmt.Errorf("write evidence: %w", err)
		}
	}

	pruned := make([]model.CanonicalRecord, 0, len(canonical))
	for _, rec := range canonical {
		if rec.FitLabel != model.LabelExclude {
			pruned = append(pruned, rec)
		}
	}

	resolved := p.resolver.Resolve(pruned)

	if err := storage.WriteRegistry(params.OutPath, resolved); err != nil {
		return nil, fmt.Errorf("write registry: %w", err)
	}

	p.logger.Info("registry written",
		zap.String("path", params.OutPath),
		zap.Int("evidence", len(evidence)),
		zap.Int("canonical", len(resolved)))

	return &RunResult{Evidence: len(evidence), Canonical: len(resolved)}, nil
}

// gather collects raw records from each enabled source. Discovery and
// rosters degrade softly; geodata fails loudly on bad regions or exhausted
// tile retries.
func (p *Pipeline) gather(ctx context.Context, params RunParams) ([]model.RawRecord, error) {
	var evidence []model.RawRecord

	if params.UseDiscovery {
		domains, err := p.candidateDomains(ctx, params)
		if err != nil {
			return nil, err
		}
		if len(domains) == 0 {
			p.logger.Info("no candidate domains; skipping web discovery")
		} else {
			evidence = append(evidence, p.discoverer.DiscoverDomains(ctx, domains, params.DomainLimit)...)
		}
	}

	if params.RosterDir != "" {
		rosters, err := ingest.LoadRosterDir(params.RosterDir, params.Regions)
		if err != nil {
			return nil, fmt.Errorf("load rosters: %w", err)
		}
		evidence = append(evidence, rosters...)
	}

	if params.UseGeodata {
		regex := geodataNameRegex(p.cfg.Market.IncludeTerms)
		for _, region := range params.Regions {
			records, err := p.geodata.CollectRegion(ctx, region, regex)
			if err != nil {
				return nil, fmt.Errorf("geodata: %w", err)
			}
			evidence = append(evidence, records...)
		}
	}

	return evidence, nil
}

func (p *Pipeline) candidateDomains(ctx context.Context, params RunParams) ([]string, error) {
	if params.DomainsFile != "" {
		domains, err := ingest.DomainsFromFile(params.DomainsFile)
		if err != nil {
			return nil, fmt.Errorf("seed domains: %w", err)
		}
		return domains, nil
	}
	return p.domains.FromCommonCrawl(ctx, p.cfg.Market.IncludeTerms, params.DomainLimit), nil
}

// geodataNameRegex builds the alternation matched against business names.
func geodataNameRegex(terms []string) string {
	if len(terms) == 0 {
		return "paving"
	}
	return strings.Join(terms, "|")
}
