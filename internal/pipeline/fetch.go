package pipeline

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"flowrunner/internal/resilience/retry"

	"golang.org/x/time/rate"
)

// FetchConfig bounds a single outbound content fetch performed by the
// Retrieve node. Adapted from the teacher's ContentFetchConfig: the same
// SSRF/size/redirect defenses apply here, since Retrieve also dereferences
// caller-supplied URLs (an entry's alternate link).
type FetchConfig struct {
	Timeout        time.Duration
	MaxBodySize    int64
	MaxRedirects   int
	DenyPrivateIPs bool
}

// DefaultFetchConfig returns production defaults.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:        10 * time.Second,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

func newFetchClient(cfg FetchConfig) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("too many redirects: %d", len(via))
			}
			return validateURL(req.URL.String(), cfg.DenyPrivateIPs)
		},
	}
}

// fetchURL validates urlStr, waits for limiter's permission, performs a
// bounded GET, and returns the body capped at cfg.MaxBodySize.
func fetchURL(ctx context.Context, client *http.Client, limiter *rate.Limiter, cfg FetchConfig, urlStr string) ([]byte, error) {
	if err := validateURL(urlStr, cfg.DenyPrivateIPs); err != nil {
		return nil, &BuildError{Msg: err.Error()}
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &BuildError{Msg: "build request: " + err.Error()}
	}
	req.Header.Set("User-Agent", "flowrunner/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("GET %s", urlStr)}
	}

	limited := io.LimitReader(resp.Body, cfg.MaxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > cfg.MaxBodySize {
		return nil, fmt.Errorf("response exceeds %d bytes", cfg.MaxBodySize)
	}
	return body, nil
}

// validateURL blocks non-http(s) schemes and, when denyPrivateIPs is set,
// hostnames resolving to loopback/private/link-local addresses (SSRF
// prevention).
func validateURL(urlStr string, denyPrivateIPs bool) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q not allowed", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("empty hostname")
	}
	if !denyPrivateIPs {
		return nil
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return fmt.Errorf("dns lookup failed for %s: %w", host, err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("hostname %q resolves to private ip %s", host, ip)
		}
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
