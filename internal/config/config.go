package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for volbyscrape.
type Config struct {
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Scraper ScraperConfig `mapstructure:"scraper" yaml:"scraper"`
	Output  OutputConfig  `mapstructure:"output"  yaml:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"             yaml:"type"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  yaml:"request_timeout"`
	UserAgent       string        `mapstructure:"user_agent"       yaml:"user_agent"`
	FollowRedirects bool          `mapstructure:"follow_redirects" yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"    yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"    yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"     yaml:"tls_insecure"`
	Stealth         bool          `mapstructure:"stealth"          yaml:"stealth"`
}

// ScraperConfig describes the results site.
type ScraperConfig struct {
	AllowedHosts      []string `mapstructure:"allowed_hosts"       yaml:"allowed_hosts"`
	NotFoundMarker    string   `mapstructure:"not_found_marker"    yaml:"not_found_marker"`
	IndexHeaderLabels []string `mapstructure:"index_header_labels" yaml:"index_header_labels"`
}

// OutputConfig controls the CSV file.
type OutputConfig struct {
	LineEnding string `mapstructure:"line_ending" yaml:"line_ending"` // auto, lf, crlf
	Collation  string `mapstructure:"collation"   yaml:"collation"`   // binary, czech
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			Type:            "http",
			RequestTimeout:  30 * time.Second,
			UserAgent:       "volbyscrape/" + Version,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
		},
		Scraper: ScraperConfig{
			AllowedHosts:      []string{"volby.cz"},
			NotFoundMarker:    "Page not found!",
			IndexHeaderLabels: []string{"Obec", "číslo", "název"},
		},
		Output: OutputConfig{
			LineEnding: "auto",
			Collation:  "binary",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
