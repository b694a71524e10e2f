package lookup

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"

	"github.com/Harshitk-cp/begrippen/internal/domain"
)

const snippetLimit = 240

// PageProvider fetches an HTML page per term and reports a hit when the page
// mentions the term. BaseURL contains a "{term}" placeholder, for example
// "https://wetten.example.nl/begrip/{term}".
type PageProvider struct {
	name      string
	baseURL   string
	client    *http.Client
	converter *md.Converter
}

func NewPageProvider(name, baseURL string, client *http.Client) *PageProvider {
	if client == nil {
		client = http.DefaultClient
	}
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &PageProvider{name: name, baseURL: baseURL, client: client, converter: converter}
}

func (p *PageProvider) Name() string {
	return p.name
}

func (p *PageProvider) Search(ctx context.Context, term string, _ domain.ContextRef) ([]domain.LookupHit, error) {
	target := strings.ReplaceAll(p.baseURL, "{term}", url.PathEscape(term))

	body, err := fetch(ctx, p.client, p.name, target, "text/html")
	if err != nil {
		if Category(err) == ErrorNotFound {
			return nil, nil
		}
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, NewProviderError(ErrorBadData, p.name, "parse html", err)
	}
	title := pageTitle(doc)
	stripElements(doc, "script", "style", "nav", "header", "footer", "aside", "noscript")

	var rendered strings.Builder
	if err := html.Render(&rendered, doc); err != nil {
		return nil, NewProviderError(ErrorBadData, p.name, "render html", err)
	}
	markdown, err := p.converter.ConvertString(rendered.String())
	if err != nil {
		return nil, NewProviderError(ErrorBadData, p.name, "convert html", err)
	}

	snippet, ok := mention(markdown, term)
	if !ok {
		return nil, nil
	}
	return []domain.LookupHit{{
		Provider: p.name,
		Title:    title,
		Snippet:  snippet,
		URL:      target,
		Score:    1,
	}}, nil
}

func pageTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := pageTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func stripElements(n *html.Node, tags ...string) {
	drop := make(map[string]bool, len(tags))
	for _, t := range tags {
		drop[t] = true
	}
	var remove []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && drop[node.Data] {
			remove = append(remove, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	for _, node := range remove {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

// mention returns the first markdown line containing term, case-insensitive,
// trimmed to snippetLimit runes.
func mention(markdown, term string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return "", false
	}
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(strings.ToLower(line), needle) {
			continue
		}
		line = strings.TrimLeft(line, "#*-> ")
		if r := []rune(line); len(r) > snippetLimit {
			line = string(r[:snippetLimit]) + "…"
		}
		return line, true
	}
	return "", false
}
