package csrf

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/marketplace-admin/console/internal/core/ports"
	"github.com/marketplace-admin/console/internal/metrics"
)

// TokenPath is the dedicated token-issuance endpoint used as last resort.
const TokenPath = "/csrf-token/"

// DocumentSource yields the HTML document carrying the meta tag.
type DocumentSource interface {
	Document(ctx context.Context) (*html.Node, error)
}

// Resolver implements ports.TokenResolver. It keeps no token in memory: each
// call re-reads the cookie jar, so rotation by the server is picked up.
type Resolver struct {
	jar    http.CookieJar
	apiURL *url.URL
	doc    DocumentSource
	fetch  ports.Requester
	log    zerolog.Logger
}

var _ ports.TokenResolver = (*Resolver)(nil)

// NewResolver wires the three sources. doc and fetch may be nil to disable
// the corresponding fallback.
func NewResolver(jar http.CookieJar, apiURL *url.URL, doc DocumentSource, fetch ports.Requester, log zerolog.Logger) *Resolver {
	u := *apiURL
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &Resolver{
		jar:    jar,
		apiURL: &u,
		doc:    doc,
		fetch:  fetch,
		log:    log.With().Str("component", "csrf").Logger(),
	}
}

// Resolve returns the token or "" after logging a warning.
func (r *Resolver) Resolve(ctx context.Context) string {
	if r.jar != nil {
		if t := FromCookies(r.jar.Cookies(r.apiURL)); t != "" {
			metrics.CSRFResolutionsTotal.WithLabelValues("cookie").Inc()
			return t
		}
	}

	if r.doc != nil {
		node, err := r.doc.Document(ctx)
		if err != nil {
			r.log.Debug().Err(err).Msg("csrf document unavailable")
		} else if t := FromDocument(node); t != "" {
			metrics.CSRFResolutionsTotal.WithLabelValues("meta").Inc()
			return t
		}
	}

	if r.fetch != nil {
		t, err := r.fromEndpoint(ctx)
		if err != nil {
			r.log.Debug().Err(err).Msg("csrf endpoint fallback failed")
		} else if t != "" {
			metrics.CSRFResolutionsTotal.WithLabelValues("endpoint").Inc()
			return t
		}
	}

	metrics.CSRFResolutionsTotal.WithLabelValues("none").Inc()
	r.log.Warn().Msg("CSRF token not found in cookies, meta tag or token endpoint")
	return ""
}

type tokenResponse struct {
	CSRFToken  string `json:"csrfToken"`
	CSRFToken2 string `json:"csrf_token"`
	Token      string `json:"token"`
}

func (r *Resolver) fromEndpoint(ctx context.Context) (string, error) {
	resp, err := r.fetch.Do(ctx, ports.APIRequest{Method: http.MethodGet, Path: TokenPath})
	if err != nil {
		return "", err
	}
	var body tokenResponse
	if err := resp.Decode(&body); err != nil {
		return "", fmt.Errorf("decode csrf token: %w", err)
	}
	for _, t := range []string{body.CSRFToken, body.CSRFToken2, body.Token} {
		if t != "" {
			return t, nil
		}
	}
	// The endpoint may only set the cookie.
	if r.jar != nil {
		return FromCookies(r.jar.Cookies(r.apiURL)), nil
	}
	return "", nil
}
