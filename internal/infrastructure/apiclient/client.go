// Package apiclient is the single configured request pipeline shared by every
// admin API service: base URL, cookie credentials, default JSON headers, the
// CSRF interceptor for mutating calls, request/response logging and error
// classification.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
	"github.com/marketplace-admin/console/internal/infrastructure/csrf"
	"github.com/marketplace-admin/console/internal/metrics"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseBody = 10 << 20

	headerRequestID = "X-Request-ID"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Jar holds the session and CSRF cookies. A public-suffix aware jar is
	// created when nil.
	Jar http.CookieJar
	// Transport overrides http.DefaultTransport (tests).
	Transport http.RoundTripper
	// Header is merged into the defaults sent with every request.
	Header http.Header
}

// Client implements ports.Requester.
type Client struct {
	base   *url.URL
	http   *http.Client
	header http.Header
	log    zerolog.Logger

	mu     sync.RWMutex
	tokens ports.TokenResolver
}

var _ ports.Requester = (*Client)(nil)

// New validates opts and builds a Client.
func New(opts Options, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: base url %q must be absolute", opts.BaseURL)
	}

	jar := opts.Jar
	if jar == nil {
		jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("apiclient: cookie jar: %w", err)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")
	for k, vs := range opts.Header {
		header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: opts.Transport,
		},
		header: header,
		log:    log.With().Str("component", "apiclient").Logger(),
	}, nil
}

// UseTokenResolver installs the CSRF interceptor. Until called, mutating
// requests are sent without CSRF headers.
func (c *Client) UseTokenResolver(r ports.TokenResolver) {
	c.mu.Lock()
	c.tokens = r
	c.mu.Unlock()
}

// Jar exposes the cookie store shared with the CSRF resolver.
func (c *Client) Jar() http.CookieJar { return c.http.Jar }

// BaseURL returns a copy of the configured API root.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// URL resolves an API-relative path against the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	} else {
		u.RawQuery = ""
	}
	return u.String()
}

// Do sends req and returns the fully read response when the status is 2xx.
// Anything else comes back as *domain.RequestError.
func (c *Client) Do(ctx context.Context, req ports.APIRequest) (*ports.APIResponse, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	target := c.URL(req.Path, req.Query)

	var payload []byte
	if req.Body != nil {
		var err error
		if payload, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("apiclient: encode %s %s body: %w", method, target, err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	httpReq.Header = c.headersFor(ctx, method, req.Header)

	c.log.Debug().
		Str("method", method).
		Str("url", target).
		Interface("headers", redactHeaders(httpReq.Header)).
		Str("body", redactBody(payload)).
		Msg("api request")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.APIRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(method, metrics.OutcomeLabel(0)).Inc()
		c.log.Warn().Err(err).Str("method", method).Str("url", target).Msg("api request failed")
		return nil, &domain.RequestError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(method, metrics.OutcomeLabel(0)).Inc()
		return nil, &domain.RequestError{Method: method, URL: target, Err: fmt.Errorf("read body: %w", err)}
	}
	metrics.APIRequestsTotal.WithLabelValues(method, metrics.OutcomeLabel(resp.StatusCode)).Inc()

	c.log.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Interface("headers", redactHeaders(resp.Header)).
		Str("body", redactBody(body)).
		Dur("elapsed", time.Since(start)).
		Msg("api response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := newRequestError(method, target, resp.StatusCode, body)
		c.log.Info().
			Str("method", method).
			Str("url", target).
			Int("status", resp.StatusCode).
			Bool("auth_error", rerr.IsAuthError).
			Str("detail", rerr.Detail).
			Msg("api error response")
		return nil, rerr
	}

	return &ports.APIResponse{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// headersFor builds defaults, then CSRF headers for mutating methods, then
// caller headers on top.
func (c *Client) headersFor(ctx context.Context, method string, extra http.Header) http.Header {
	h := c.header.Clone()
	h.Set(headerRequestID, uuid.NewString())

	if isMutating(method) {
		c.mu.RLock()
		tokens := c.tokens
		c.mu.RUnlock()
		if tokens != nil {
			if token := tokens.Resolve(ctx); token != "" {
				csrf.Apply(h, token)
			} else {
				c.log.Warn().Str("method", method).Msg("no CSRF token available, sending request without it")
			}
		}
	}

	for k, vs := range extra {
		h[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	return h
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
