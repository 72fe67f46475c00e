// Package aiproxy forwards requests to the external vision and gift AI
// services. It adds the service bearer token and a hard timeout, and never
// retries or caches.
package aiproxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/orchidcraft/orchid-backend/pkg/config"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
)

// Upstream names one of the AI collaborators.
type Upstream string

const (
	UpstreamVision Upstream = "vision"
	UpstreamGift   Upstream = "gift-ai"
)

const (
	defaultTimeout       = 150 * time.Second
	defaultMaxPayloadMB  = 15
	errorBodyLogLimit    = 2048
	msgUpstreamTimeout   = "upstream timeout"
	msgUpstreamFailure   = "upstream service error"
	defaultResponseLimit = 32 << 20
)

// Request is an inbound call to relay.
type Request struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	Body        io.Reader
}

// Response is the relayed upstream answer.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Proxy relays requests to the configured AI base URLs.
type Proxy struct {
	httpClient *http.Client
	bases      map[Upstream]*url.URL
	token      string
	maxBytes   int64
	logg       *logger.Logger
}

// Option configures optional proxy behavior.
type Option func(*Proxy)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Proxy) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// NewProxy builds a proxy from config. An empty base URL leaves that upstream disabled.
func NewProxy(cfg config.AIConfig, logg *logger.Logger, opts ...Option) (*Proxy, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxMB := cfg.MaxPayloadMB
	if maxMB <= 0 {
		maxMB = defaultMaxPayloadMB
	}
	if logg == nil {
		logg = logger.Nop()
	}
	p := &Proxy{
		httpClient: &http.Client{Timeout: timeout},
		bases:      map[Upstream]*url.URL{},
		token:      strings.TrimSpace(cfg.Token),
		maxBytes:   int64(maxMB) << 20,
		logg:       logg,
	}
	for name, raw := range map[Upstream]string{UpstreamVision: cfg.VisionBaseURL, UpstreamGift: cfg.GiftBaseURL} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid %s base url %q", name, raw)
		}
		p.bases[name] = u
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// Forward relays req to upstream. Errors carry GATEWAY_TIMEOUT, GATEWAY_ERROR or
// VALIDATION_ERROR codes with a generic public message.
func (p *Proxy) Forward(ctx context.Context, upstream Upstream, req Request) (*Response, error) {
	ctx = p.logg.WithFields(ctx, map[string]any{"upstream": string(upstream), "upstream_path": req.Path})

	base, ok := p.bases[upstream]
	if !ok {
		p.logg.Warn(ctx, "aiproxy.upstream_not_configured")
		return nil, pkgerrors.New(pkgerrors.CodeGateway, msgUpstreamFailure)
	}

	payload, err := io.ReadAll(io.LimitReader(req.Body, p.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read request body")
	}
	if int64(len(payload)) > p.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payload too large").
			WithDetails(map[string]any{"maxBytes": p.maxBytes})
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	target := resolve(base, req.Path, req.RawQuery)
	httpReq, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upstream request")
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if p.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.token)
	}

	start := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			p.logg.Error(ctx, "aiproxy.upstream_timeout", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayTimeout, err, msgUpstreamTimeout)
		}
		p.logg.Error(ctx, "aiproxy.upstream_transport_error", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, msgUpstreamFailure)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, defaultResponseLimit))
	if err != nil {
		if isTimeout(err) {
			p.logg.Error(ctx, "aiproxy.upstream_timeout", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayTimeout, err, msgUpstreamTimeout)
		}
		p.logg.Error(ctx, "aiproxy.upstream_read_error", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, msgUpstreamFailure)
	}

	ctx = p.logg.WithFields(ctx, map[string]any{
		"upstream_status": resp.StatusCode,
		"duration_ms":     time.Since(start).Milliseconds(),
	})
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > errorBodyLogLimit {
			snippet = snippet[:errorBodyLogLimit]
		}
		err := fmt.Errorf("upstream returned %d: %s", resp.StatusCode, snippet)
		p.logg.Error(ctx, "aiproxy.upstream_status", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, msgUpstreamFailure)
	}

	p.logg.Info(ctx, "aiproxy.forwarded")
	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func resolve(base *url.URL, rel, rawQuery string) string {
	clean := path.Clean("/" + strings.TrimPrefix(rel, "/"))
	u := *base
	u.Path = strings.TrimSuffix(base.Path, "/") + clean
	if clean == "/" {
		u.Path = base.Path
	}
	u.RawQuery = rawQuery
	return u.String()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
