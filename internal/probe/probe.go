// Package probe checks that a DNS-over-HTTPS endpoint answers RFC 8484 GET
// queries before it is committed to configuration.
package probe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/HerbHall/dnsswitch/internal/metrics"
)

const (
	// DefaultTimeout bounds one probe request.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent is sent with every probe.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

	// probeName is the fixed question of the test query.
	probeName = "www.example.com."

	// maxBody caps how much of the response is drained.
	maxBody = 64 << 10
)

// ErrProbeFailed is wrapped by Check when the endpoint did not answer.
var ErrProbeFailed = errors.New("DoH probe failed")

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout sets the per-probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(p *Prober) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) { p.client = c }
}

// WithMetrics counts probe outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Prober) { p.metrics = m }
}

// Prober issues reachability probes.
type Prober struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	metrics   *metrics.Metrics
	logger    *zap.Logger
	query     string
}

// New creates a Prober.
func New(logger *zap.Logger, opts ...Option) (*Prober, error) {
	q, err := Query()
	if err != nil {
		return nil, fmt.Errorf("build probe query: %w", err)
	}
	p := &Prober{
		client:    newClient(logger),
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		logger:    logger,
		query:     q,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// newClient returns a client that negotiates HTTP/2, the minimum RFC 8484
// recommends, and falls back to HTTP/1.1.
func newClient(logger *zap.Logger) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DisableCompression = true
	if err := http2.ConfigureTransport(t); err != nil {
		logger.Debug("HTTP/2 unavailable for probes", zap.Error(err))
	}
	return &http.Client{Transport: t}
}

// Query returns the base64url (unpadded) wire-format A query for
// www.example.com with ID 0 and recursion desired.
func Query() (string, error) {
	m := new(dns.Msg)
	m.SetQuestion(probeName, dns.TypeA)
	// RFC 8484 recommends ID 0 so GET responses stay cacheable.
	m.Id = 0
	wire, err := m.Pack()
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(wire), nil
}

// URL returns the probe URL for template.
func (p *Prober) URL(template string) (string, error) {
	u, err := url.Parse(template)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("template %q: unsupported scheme %q", template, u.Scheme)
	}
	if u.RawQuery == "" {
		u.RawQuery = "dns=" + p.query
	} else {
		u.RawQuery += "&dns=" + p.query
	}
	return u.String(), nil
}

// Probe reports whether template answered the test query with a 2xx status
// and a DNS message content type. It never returns an error; every failure
// collapses to false.
func (p *Prober) Probe(ctx context.Context, template string) bool {
	return p.Check(ctx, template) == nil
}

// Check is Probe with the failure reason wrapped in ErrProbeFailed.
func (p *Prober) Check(ctx context.Context, template string) error {
	ok, reason := p.probe(ctx, template)
	p.metrics.ObserveProbe(ok)
	if ok {
		p.logger.Debug("DoH probe succeeded", zap.String("template", template))
		return nil
	}
	p.logger.Info("DoH probe failed", zap.String("template", template), zap.String("reason", reason))
	return fmt.Errorf("%w: %s", ErrProbeFailed, reason)
}

func (p *Prober) probe(ctx context.Context, template string) (bool, string) {
	target, err := p.URL(template)
	if err != nil {
		return false, err.Error()
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return false, err.Error()
	}
	req.Header.Set("Accept", "application/dns-message")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return false, err.Error()
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Sprintf("status %d", resp.StatusCode)
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.Contains(mediaType, "dns-message") {
		return false, fmt.Sprintf("content type %q", resp.Header.Get("Content-Type"))
	}
	return true, ""
}
