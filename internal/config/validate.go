package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/IshaanNene/volbyscrape/internal/types"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if len(cfg.Scraper.AllowedHosts) == 0 {
		return fmt.Errorf("scraper.allowed_hosts must list at least one host")
	}

	switch cfg.Output.LineEnding {
	case "auto", "lf", "crlf":
	default:
		return fmt.Errorf("output.line_ending must be auto/lf/crlf, got %q", cfg.Output.LineEnding)
	}
	if cfg.Output.Collation != "binary" && cfg.Output.Collation != "czech" {
		return fmt.Errorf("output.collation must be 'binary' or 'czech', got %q", cfg.Output.Collation)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks that rawURL is an http(s) URL on one of the allowed
// hosts. A host matches an entry when it equals it or is a subdomain of it.
func ValidateURL(rawURL string, allowedHosts []string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", types.ErrInvalidURL, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: URL must have a host", types.ErrInvalidURL)
	}

	for _, allowed := range allowedHosts {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s (allowed: %s)", types.ErrHostNotAllowed, host, strings.Join(allowedHosts, ", "))
}
