package publicip

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Echo services answer with a bare address; anything longer is not an IP.
const maxResponseSize = 64

// Resolver asks a plain-text echo service for the caller's public address.
type Resolver struct {
	url    string
	client *http.Client
	logger *logrus.Logger
}

// New creates a resolver for the given endpoint. A zero timeout leaves the
// request unbounded apart from the caller's context.
func New(url string, timeout time.Duration, logger *logrus.Logger) *Resolver {
	return &Resolver{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Resolve performs a single GET and returns the trimmed IPv4 address.
// There is no retry and no fallback service.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	r.logger.WithField("service", r.url).Debug("Requesting public IP")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build public IP request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach public IP service %s: %w", r.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("public IP service %s returned status %d", r.url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read public IP response: %w", err)
	}

	ip := strings.TrimSpace(string(body))
	r.logger.WithFields(logrus.Fields{
		"service": r.url,
		"rawIP":   ip,
	}).Debug("Received IP response from service")

	if ip == "" {
		return "", fmt.Errorf("public IP service %s returned an empty body", r.url)
	}

	ipv4, ok := parseIPv4(ip)
	if !ok {
		return "", fmt.Errorf("public IP service %s returned %q, which is not an IPv4 address", r.url, ip)
	}
	ip = ipv4

	r.logger.WithField("publicIP", ip).Info("🌐 Resolved public IP")
	return ip, nil
}

// parseIPv4 accepts dotted-quad text only. IPv4-mapped IPv6 forms such as
// ::ffff:203.0.113.7 are rejected: with a /32 appended they name an IPv6 prefix.
func parseIPv4(ip string) (string, bool) {
	if strings.Contains(ip, ":") {
		return "", false
	}
	parsed := net.ParseIP(ip).To4()
	if parsed == nil {
		return "", false
	}
	return parsed.String(), true
}
