// Package csrf locates the cross-site request forgery token the admin API
// expects on state-changing requests.
//
// Sources are tried in order and the first hit wins:
//
//	cookie (XSRF-TOKEN, csrftoken, _csrf) → <meta name="csrf-token"> → GET /csrf-token/
//
// A missing token is never an error: the caller sends the request without it.
package csrf

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CookieNames in preference order.
var CookieNames = []string{"XSRF-TOKEN", "csrftoken", "_csrf"}

// HeaderNames carries the token under every convention a backend may read.
var HeaderNames = []string{"X-CSRFToken", "X-XSRF-TOKEN", "CSRF-Token", "X-CSRF-TOKEN"}

// MetaName is the name attribute of the meta tag holding the token.
const MetaName = "csrf-token"

// Apply sets token under all HeaderNames.
func Apply(h http.Header, token string) {
	for _, name := range HeaderNames {
		h.Set(name, token)
	}
}

// Headers returns a fresh header set carrying token.
func Headers(token string) http.Header {
	h := make(http.Header, len(HeaderNames))
	Apply(h, token)
	return h
}

// FromSources is the side-effect free part of resolution: cookies first,
// then the document's meta tag. doc may be nil.
func FromSources(cookies []*http.Cookie, doc *html.Node) string {
	if t := FromCookies(cookies); t != "" {
		return t
	}
	return FromDocument(doc)
}

// FromCookies returns the URL-decoded value of the most preferred CSRF cookie.
func FromCookies(cookies []*http.Cookie) string {
	for _, name := range CookieNames {
		for _, c := range cookies {
			if c.Name != name || c.Value == "" {
				continue
			}
			if v, err := url.PathUnescape(c.Value); err == nil {
				return v
			}
			return c.Value
		}
	}
	return ""
}

// FromDocument returns the content of the first <meta name="csrf-token">.
func FromDocument(doc *html.Node) string {
	if doc == nil {
		return ""
	}
	var walk func(n *html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.DataAtom == atom.Meta {
			var name, content string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "name":
					name = a.Val
				case "content":
					content = a.Val
				}
			}
			if strings.EqualFold(name, MetaName) && content != "" {
				return content
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := walk(c); t != "" {
				return t
			}
		}
		return ""
	}
	return walk(doc)
}

// ParseDocument parses an HTML page for FromDocument.
func ParseDocument(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}
