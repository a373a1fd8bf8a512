package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/macadam-io/macadam/internal/logging"
	"github.com/macadam-io/macadam/internal/model"
	"github.com/macadam-io/macadam/internal/pipeline"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	regions      []string
	rosterDir    string
	useGeodata   bool
	useDiscovery bool
	domainsFile  string
	domainLimit  int
	probeWorkers int
	marketFile   string
	outPath      string
	evidencePath string
	fetchTimeout time.Duration
	userAgent    string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the contractor registry from all enabled sources",
	Long: `Run gathers raw records from every enabled source, normalizes and
scores them, prunes excluded records, resolves duplicates, and writes
the canonical registry.

Example:
  macadam run --regions TX,CO --roster-dir data/dot --out out/registry.csv
  macadam run --regions TX --web-discovery --domain-limit 500
  macadam run --regions MI --geodata --save-evidence out/evidence.jsonl`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&regions, "regions", []string{"TX", "MI", "CO"}, "target region codes")
	runCmd.Flags().StringVar(&rosterDir, "roster-dir", "data/dot", "directory of DOT roster CSV files")
	runCmd.Flags().BoolVar(&useGeodata, "geodata", false, "query the Overpass geodata service")
	runCmd.Flags().BoolVar(&useDiscovery, "web-discovery", false, "discover and crawl candidate domains")
	runCmd.Flags().StringVar(&domainsFile, "domains-file", "", "seed domains file (skips index discovery)")
	runCmd.Flags().IntVar(&domainLimit, "domain-limit", 800, "max domains to probe")
	runCmd.Flags().IntVar(&probeWorkers, "probe-workers", 20, "concurrent domain probes")
	runCmd.Flags().StringVar(&marketFile, "market", "", "market keyword policy YAML (include_terms, exclude_terms)")
	runCmd.Flags().StringVar(&outPath, "out", "out/registry.csv", "output registry path")
	runCmd.Flags().StringVar(&evidencePath, "save-evidence", "", "optional evidence dump path (JSONL)")
	runCmd.Flags().DurationVar(&fetchTimeout, "timeout", 15*time.Second, "per-fetch timeout")
	runCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent override")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = fetchTimeout
	cfg.Crawl.ProbeWorkers = probeWorkers
	cfg.Crawl.DomainLimit = domainLimit
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}

	if marketFile != "" {
		market, err := loadMarketConfig(marketFile)
		if err != nil {
			return fmt.Errorf("load market config: %w", err)
		}
		cfg.Market = market
	}

	logger, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if verbose {
		fmt.Fprintf(os.Stderr, "Regions: %v\n", regions)
		fmt.Fprintf(os.Stderr, "Geodata: %v  Web discovery: %v\n", useGeodata, useDiscovery)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.New(cfg, logger)

	result, err := p.Run(context.Background(), pipeline.RunParams{
		Regions:      regions,
		RosterDir:    rosterDir,
		UseGeodata:   useGeodata,
		UseDiscovery: useDiscovery,
		DomainsFile:  domainsFile,
		DomainLimit:  domainLimit,
		OutPath:      outPath,
		EvidencePath: evidencePath,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if result.Canonical == 0 {
		fmt.Println("No records produced. Provide roster files or enable a discovery source.")
		return nil
	}

	fmt.Printf("Wrote %d entities to %s (from %d evidence records)\n",
		result.Canonical, outPath, result.Evidence)
	return nil
}

// loadMarketConfig reads the keyword policy file. Terms are lowercased so
// the scorer's substring matching stays case-insensitive.
func loadMarketConfig(path string) (model.MarketConfig, error) {
	var market model.MarketConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return market, err
	}
	if err := yaml.Unmarshal(data, &market); err != nil {
		return market, err
	}

	market.IncludeTerms = lowerAll(market.IncludeTerms)
	market.ExcludeTerms = lowerAll(market.ExcludeTerms)
	return market, nil
}

func lowerAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(strings.TrimSpace(t))
	}
	return out
}
