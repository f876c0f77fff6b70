// Package parser provides HTML parsing for the crawler. It turns raw bytes
// into a navigable document tree and collects the page title and all anchor
// hrefs in a single traversal. URL resolution and filtering are left to the
// caller.
package parser

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// RawLink is an unresolved anchor href as found in the document.
type RawLink struct {
	Href       string
	AnchorText string
}

// ParseResult contains the parsed document data.
type ParseResult struct {
	Title       string
	ContentHash string
	Links       []RawLink
	Root        *html.Node // Document tree, shared with the content extractor
}

// Parse parses HTML content into a document tree and extracts the title and
// anchor hrefs. The returned tree is never mutated by the crawler; the
// extractor clones the nodes it works on.
func Parse(htmlContent []byte) (*ParseResult, error) {
	doc, err := html.Parse(bytes.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &ParseResult{
		Links: []RawLink{},
		Root:  doc,
	}

	traverse(doc, result)

	hash := sha256.Sum256(htmlContent)
	result.ContentHash = fmt.Sprintf("%x", hash)

	return result, nil
}

// traverse recursively walks the HTML tree
func traverse(n *html.Node, result *ParseResult) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				result.Title = strings.TrimSpace(n.FirstChild.Data)
			}
		case "a":
			parseAnchor(n, result)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		traverse(c, result)
	}
}

// parseAnchor collects the href and anchor text of an <a> element. Anchors
// without an href are skipped; everything else is kept so the link filter
// sees every candidate.
func parseAnchor(n *html.Node, result *ParseResult) {
	var href string
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = attr.Val
			break
		}
	}

	if href == "" {
		return
	}

	result.Links = append(result.Links, RawLink{
		Href:       href,
		AnchorText: extractText(n),
	})
}

// extractText recursively extracts text content from a node
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := extractText(c); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " ")
}
