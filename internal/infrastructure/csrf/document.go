package csrf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

const maxDocumentSize = 2 << 20

// PageDocument fetches the dashboard page that embeds the meta tag. It uses
// its own http.Client so it can share the API cookie jar.
type PageDocument struct {
	url    string
	client *http.Client
}

// NewPageDocument returns a source that GETs pageURL with the given client.
func NewPageDocument(pageURL string, client *http.Client) *PageDocument {
	if client == nil {
		client = http.DefaultClient
	}
	return &PageDocument{url: pageURL, client: client}
}

func (p *PageDocument) Document(ctx context.Context) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build document request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch document: status %d", resp.StatusCode)
	}
	return ParseDocument(io.LimitReader(resp.Body, maxDocumentSize))
}

// StaticDocument serves an already parsed page.
type StaticDocument struct {
	node *html.Node
}

// NewStaticDocument parses markup once.
func NewStaticDocument(markup string) (*StaticDocument, error) {
	node, err := ParseDocument(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return &StaticDocument{node: node}, nil
}

func (s *StaticDocument) Document(context.Context) (*html.Node, error) {
	return s.node, nil
}
