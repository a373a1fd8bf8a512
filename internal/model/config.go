package model

import "time"

// MarketConfig holds the keyword policy for fit scoring. The term lists are
// ordered sets of lowercase keywords, read-only for the run's lifetime.
type MarketConfig struct {
	IncludeTerms []string `yaml:"include_terms" json:"include_terms"`
	ExcludeTerms []string `yaml:"exclude_terms" json:"exclude_terms"`
}

// HTTPConfig controls the polite fetcher.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	PerHostRPS    float64       `yaml:"per_host_rps" json:"per_host_rps"`
	PerHostBurst  int           `yaml:"per_host_burst" json:"per_host_burst"`
	RobotsTimeout time.Duration `yaml:"robots_timeout" json:"robots_timeout"`
}

// CrawlConfig controls web discovery.
type CrawlConfig struct {
	ProbeWorkers int `yaml:"probe_workers" json:"probe_workers"` // concurrent domain probes
	DomainLimit  int `yaml:"domain_limit" json:"domain_limit"`   // max domains scheduled
}

// GeoConfig controls the geodata (Overpass) adapter.
type GeoConfig struct {
	Endpoint       string        `yaml:"endpoint" json:"endpoint"`
	QueryTimeout   time.Duration `yaml:"query_timeout" json:"query_timeout"`
	TileStep       float64       `yaml:"tile_step" json:"tile_step"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	BackoffFactor  float64       `yaml:"backoff_factor" json:"backoff_factor"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
}

// Config is the full runtime configuration.
type Config struct {
	HTTP   HTTPConfig   `yaml:"http" json:"http"`
	Crawl  CrawlConfig  `yaml:"crawl" json:"crawl"`
	Geo    GeoConfig    `yaml:"geo" json:"geo"`
	Market MarketConfig `yaml:"market" json:"market"`
}

// DefaultConfig returns the built-in defaults. One request per second per host
// is the floor of politeness for uncontrolled sites.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       15 * time.Second,
			UserAgent:     "Macadam/0.1 (+https://github.com/macadam-io/macadam)",
			MaxBodyBytes:  2_000_000,
			PerHostRPS:    1.0,
			PerHostBurst:  1,
			RobotsTimeout: 10 * time.Second,
		},
		Crawl: CrawlConfig{
			ProbeWorkers: 20,
			DomainLimit:  800,
		},
		Geo: GeoConfig{
			Endpoint:       "https://overpass-api.de/api/interpreter",
			QueryTimeout:   60 * time.Second,
			TileStep:       2.0,
			InitialBackoff: time.Second,
			BackoffFactor:  1.8,
			MaxBackoff:     30 * time.Second,
			MaxAttempts:    8,
		},
		Market: MarketConfig{
			IncludeTerms: []string{
				"paving", "asphalt", "sealcoat", "sealcoating", "chip seal",
				"striping", "driveway", "parking lot", "milling", "overlay",
			},
			ExcludeTerms: []string{
				"equipment rental", "supply", "supplier", "manufacturer",
				"real estate", "landscaping only",
			},
		},
	}
}
